package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jne-ops/opsboard-api/internal/models"
	appErrors "github.com/jne-ops/opsboard-api/pkg/errors"
)

// BinStore talks to a simple key/value REST document store. The whole
// aggregate lives under a single bin; reads unwrap the provider's
// {record, metadata} envelope.
type BinStore struct {
	endpoint    string
	apiKey      string
	client      *http.Client
	probe       Probe
	maxAttempts int
	retryDelay  time.Duration
	logger      *zap.Logger
}

// BinConfig configures the key/value store adapter.
type BinConfig struct {
	Endpoint    string
	APIKey      string
	MaxAttempts int
	RetryDelay  time.Duration
	Timeout     time.Duration
}

type binEnvelope struct {
	Record models.AppData `json:"record"`
}

// NewBinStore builds the adapter with sane defaults.
func NewBinStore(cfg BinConfig, probe Probe, logger *zap.Logger) *BinStore {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if probe == nil {
		probe = AlwaysOnline{}
	}
	return &BinStore{
		endpoint:    cfg.Endpoint,
		apiKey:      cfg.APIKey,
		client:      &http.Client{Timeout: cfg.Timeout},
		probe:       probe,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		logger:      logger,
	}
}

// Name identifies the adapter in status payloads and logs.
func (s *BinStore) Name() string { return "jsonbin" }

// GetData fetches the aggregate, retrying failures a fixed number of times
// with a flat delay. Offline devices short-circuit to (nil, nil).
func (s *BinStore) GetData(ctx context.Context) (*models.AppData, error) {
	if !s.probe.Online() {
		return nil, nil
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		data, err := s.fetchOnce(ctx)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if attempt < s.maxAttempts {
			s.logger.Warn("bin fetch failed, retrying",
				zap.Int("attempt", attempt), zap.Error(err))
			select {
			case <-ctx.Done():
				return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrRemoteTransport.Code, appErrors.ErrRemoteTransport.Status, "fetch canceled")
			case <-time.After(s.retryDelay):
			}
		}
	}
	return nil, lastErr
}

func (s *BinStore) fetchOnce(ctx context.Context) (*models.AppData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRemoteTransport.Code, appErrors.ErrRemoteTransport.Status, "build bin request")
	}
	req.Header.Set("X-Master-Key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRemoteTransport.Code, appErrors.ErrRemoteTransport.Status, "bin fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, appErrors.Clone(appErrors.ErrRemoteProtocol, fmt.Sprintf("bin server returned %d", resp.StatusCode))
	}

	var envelope binEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRemoteProtocol.Code, appErrors.ErrRemoteProtocol.Status, "decode bin envelope")
	}

	record := envelope.Record
	record.Normalize()
	return &record, nil
}

// SaveData writes the aggregate with a single PUT. It reports success as a
// bool so a failed autosave stays a soft failure for the caller.
func (s *BinStore) SaveData(ctx context.Context, data *models.AppData) bool {
	if !s.probe.Online() {
		return false
	}

	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("marshal bin payload", zap.Error(err))
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		s.logger.Error("build bin save request", zap.Error(err))
		return false
	}
	req.Header.Set("X-Master-Key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("bin save failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("bin save rejected", zap.Int("status", resp.StatusCode))
		return false
	}
	return true
}

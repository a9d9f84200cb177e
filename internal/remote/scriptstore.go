package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jne-ops/opsboard-api/internal/models"
	appErrors "github.com/jne-ops/opsboard-api/pkg/errors"
)

// ScriptStore talks to a Google-Apps-Script-style webhook backend. The
// endpoint is re-resolved on every call so a runtime URL override takes
// effect on the next sync without a restart. The backend has quirks the
// adapter has to absorb: JSON served as text/plain, HTML error pages when
// the deployment permissions are wrong, redirects to the execution URL,
// and no support for CORS preflight or credentials.
type ScriptStore struct {
	resolveURL func() string
	client     *http.Client
	probe      Probe
	timeout    time.Duration
	retries    int
	backoff    time.Duration
	backoffX   float64
	now        func() time.Time
	logger     *zap.Logger
}

// ScriptConfig configures the webhook adapter.
type ScriptConfig struct {
	Timeout  time.Duration
	Retries  int
	Backoff  time.Duration
	BackoffX float64
}

// scriptEnvelope tolerates every response shape the script versions have
// shipped: a logical error, the aggregate wrapped under "data", or the
// aggregate at the top level.
type scriptEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    *models.AppData `json:"data"`

	Jobs           []models.Job           `json:"jobs"`
	Users          []models.User          `json:"users"`
	ValidationLogs []models.ValidationLog `json:"validationLogs"`
}

// NewScriptStore builds the adapter. resolveURL is consulted on every
// request; it should return the user override when one is configured and
// the compiled-in default otherwise.
func NewScriptStore(resolveURL func() string, cfg ScriptConfig, probe Probe, logger *zap.Logger) *ScriptStore {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	} else if cfg.Retries == 0 {
		cfg.Retries = 2
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.BackoffX <= 1 {
		cfg.BackoffX = 1.5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if probe == nil {
		probe = AlwaysOnline{}
	}
	return &ScriptStore{
		resolveURL: resolveURL,
		client:     &http.Client{}, // per-attempt deadline comes from the request context
		probe:      probe,
		timeout:    cfg.Timeout,
		retries:    cfg.Retries,
		backoff:    cfg.Backoff,
		backoffX:   cfg.BackoffX,
		now:        time.Now,
		logger:     logger,
	}
}

// Name identifies the adapter in status payloads and logs.
func (s *ScriptStore) Name() string { return "script" }

// GetData reads the aggregate. A {status:"error"} payload is "no data",
// not a failure: the caller keeps whatever it already has.
func (s *ScriptStore) GetData(ctx context.Context) (*models.AppData, error) {
	if !s.probe.Online() {
		return nil, nil
	}

	baseURL := strings.TrimSpace(s.resolveURL())
	if baseURL == "" {
		return nil, nil
	}

	separator := "?"
	if strings.Contains(baseURL, "?") {
		separator = "&"
	}
	// Timestamp defeats any cache in front of the script.
	url := fmt.Sprintf("%s%saction=read&t=%d", baseURL, separator, s.now().UnixMilli())

	body, err := s.doWithRetry(ctx, http.MethodGet, url, "", nil)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "<!DOCTYPE") || strings.HasPrefix(trimmed, "<html") {
		return nil, appErrors.Clone(appErrors.ErrRemoteMisconfigured, "")
	}

	var envelope scriptEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRemoteProtocol.Code, appErrors.ErrRemoteProtocol.Status, "invalid JSON response from script")
	}

	if envelope.Status == "error" {
		s.logger.Warn("script reported error", zap.String("message", envelope.Message))
		return nil, nil
	}

	if envelope.Jobs != nil || envelope.Users != nil || envelope.ValidationLogs != nil {
		return &models.AppData{
			Jobs:           envelope.Jobs,
			Users:          envelope.Users,
			ValidationLogs: envelope.ValidationLogs,
		}, nil
	}
	if envelope.Data != nil {
		return envelope.Data, nil
	}
	return &models.AppData{}, nil
}

// SaveData posts the aggregate as text/plain. The content type is
// deliberate: anything else makes browsers preflight an OPTIONS request
// the script deployment cannot answer, and the same wire contract is kept
// here. Success means the script answered {status:"success"}.
func (s *ScriptStore) SaveData(ctx context.Context, data *models.AppData) bool {
	if !s.probe.Online() {
		return false
	}

	url := strings.TrimSpace(s.resolveURL())
	if url == "" {
		s.logger.Warn("script URL not configured, skipping save")
		return false
	}

	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("marshal script payload", zap.Error(err))
		return false
	}

	body, err := s.doWithRetry(ctx, http.MethodPost, url, "text/plain;charset=utf-8", payload)
	if err != nil {
		s.logger.Warn("script save failed, will retry next sync", zap.Error(err))
		return false
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		s.logger.Warn("script save returned unparsable body", zap.Error(err))
		return false
	}
	return result.Status == "success"
}

// doWithRetry performs one request per attempt under the adapter timeout.
// Only timeouts and transport faults are retried; protocol errors are
// surfaced immediately since repeating them cannot help. The delay grows
// geometrically between attempts.
func (s *ScriptStore) doWithRetry(ctx context.Context, method, url, contentType string, payload []byte) ([]byte, error) {
	attempts := s.retries + 1
	delay := s.backoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := s.doOnce(ctx, method, url, contentType, payload)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !appErrors.Retryable(err) || attempt == attempts {
			return nil, err
		}

		s.logger.Warn("script request failed, retrying",
			zap.Int("attempt", attempt), zap.Duration("backoff", delay), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrRemoteTransport.Code, appErrors.ErrRemoteTransport.Status, "request canceled")
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * s.backoffX)
	}
	return nil, lastErr
}

func (s *ScriptStore) doOnce(parent context.Context, method, url, contentType string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = strings.NewReader(string(payload))
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRemoteTransport.Code, appErrors.ErrRemoteTransport.Status, "build script request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
			return nil, appErrors.Wrap(err, appErrors.ErrRemoteTimeout.Code, appErrors.ErrRemoteTimeout.Status, "script request timed out")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrRemoteTransport.Code, appErrors.ErrRemoteTransport.Status, "script request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRemoteTransport.Code, appErrors.ErrRemoteTransport.Status, "read script response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusNotFound {
			return nil, appErrors.Clone(appErrors.ErrRemoteProtocol, "script endpoint not found (404)")
		}
		return nil, appErrors.Clone(appErrors.ErrRemoteProtocol, fmt.Sprintf("script returned %d", resp.StatusCode))
	}
	return body, nil
}

package remote

import (
	"go.uber.org/zap"

	"github.com/jne-ops/opsboard-api/internal/models"
	"github.com/jne-ops/opsboard-api/pkg/config"
)

// NewStore constructs the adapter for the given storage mode. LOCAL has no
// remote backend and yields nil; callers treat a nil store as "cache only".
// resolveScriptURL is consulted per request so mode switches and URL
// overrides apply without rebuilding the adapter.
func NewStore(mode models.StorageMode, cfg config.SyncConfig, probe Probe, resolveScriptURL func() string, logger *zap.Logger) Store {
	switch mode {
	case models.ModeBin:
		return NewBinStore(BinConfig{
			Endpoint:    cfg.BinEndpoint,
			APIKey:      cfg.BinAPIKey,
			MaxAttempts: cfg.BinMaxAttempts,
			RetryDelay:  cfg.BinRetryDelay,
		}, probe, logger)
	case models.ModeScript:
		return NewScriptStore(resolveScriptURL, ScriptConfig{
			Timeout:  cfg.ScriptTimeout,
			Retries:  cfg.ScriptRetries,
			Backoff:  cfg.ScriptBackoff,
			BackoffX: cfg.ScriptBackoffX,
		}, probe, logger)
	default:
		return nil
	}
}

package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Sync   SyncConfig
	Cache  CacheConfig
	Redis  RedisConfig
	JWT    JWTConfig
	CORS   CORSConfig
	Log    LogConfig
	Export ExportConfig
}

// SyncConfig tunes the sync engine and the two remote store adapters.
// The interval is deliberately a knob, not a contract: longer intervals
// reduce quota pressure on the script backend.
type SyncConfig struct {
	DefaultMode    string
	Interval       time.Duration
	BinEndpoint    string
	BinAPIKey      string
	BinRetryDelay  time.Duration
	BinMaxAttempts int
	ScriptURL      string
	ScriptTimeout  time.Duration
	ScriptRetries  int
	ScriptBackoff  time.Duration
	ScriptBackoffX float64
	ProbeHost      string
	ProbeTimeout   time.Duration
}

// CacheConfig selects the durability backend for the local snapshot.
type CacheConfig struct {
	Backend string // "file" | "redis"
	DataDir string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ExportConfig gates the ledger export endpoints.
type ExportConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Sync = SyncConfig{
		DefaultMode:    v.GetString("SYNC_DEFAULT_MODE"),
		Interval:       parseDuration(v.GetString("SYNC_INTERVAL"), 30*time.Second),
		BinEndpoint:    v.GetString("BIN_ENDPOINT"),
		BinAPIKey:      v.GetString("BIN_API_KEY"),
		BinRetryDelay:  parseDuration(v.GetString("BIN_RETRY_DELAY"), time.Second),
		BinMaxAttempts: v.GetInt("BIN_MAX_ATTEMPTS"),
		ScriptURL:      v.GetString("SCRIPT_URL"),
		ScriptTimeout:  parseDuration(v.GetString("SCRIPT_TIMEOUT"), 15*time.Second),
		ScriptRetries:  v.GetInt("SCRIPT_RETRIES"),
		ScriptBackoff:  parseDuration(v.GetString("SCRIPT_BACKOFF"), time.Second),
		ScriptBackoffX: v.GetFloat64("SCRIPT_BACKOFF_MULTIPLIER"),
		ProbeHost:      v.GetString("PROBE_HOST"),
		ProbeTimeout:   parseDuration(v.GetString("PROBE_TIMEOUT"), 2*time.Second),
	}

	cfg.Cache = CacheConfig{
		Backend: v.GetString("CACHE_BACKEND"),
		DataDir: v.GetString("CACHE_DATA_DIR"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Export = ExportConfig{
		Enabled: v.GetBool("ENABLE_EXPORT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("SYNC_DEFAULT_MODE", "GAS")
	v.SetDefault("SYNC_INTERVAL", "30s")
	v.SetDefault("BIN_ENDPOINT", "")
	v.SetDefault("BIN_API_KEY", "")
	v.SetDefault("BIN_RETRY_DELAY", "1s")
	v.SetDefault("BIN_MAX_ATTEMPTS", 3)
	v.SetDefault("SCRIPT_URL", "")
	v.SetDefault("SCRIPT_TIMEOUT", "15s")
	v.SetDefault("SCRIPT_RETRIES", 2)
	v.SetDefault("SCRIPT_BACKOFF", "1s")
	v.SetDefault("SCRIPT_BACKOFF_MULTIPLIER", 1.5)
	v.SetDefault("PROBE_HOST", "1.1.1.1:53")
	v.SetDefault("PROBE_TIMEOUT", "2s")

	v.SetDefault("CACHE_BACKEND", "file")
	v.SetDefault("CACHE_DATA_DIR", "./data")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "opsboard-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_EXPORT", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

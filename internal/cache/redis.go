package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jne-ops/opsboard-api/internal/models"
	"github.com/jne-ops/opsboard-api/pkg/config"
)

const (
	keyData     = "opsboard:appdata"
	keySession  = "opsboard:session"
	keySettings = "opsboard:settings"

	redisOpTimeout = 5 * time.Second
)

// RedisStore keeps the durability snapshot in Redis for deployments that
// want it off-box. Entries never expire: the snapshot is a fallback, not a
// cache in the eviction sense.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisClient returns a configured and pinged Redis client.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// NewRedisStore wraps a Redis client as a persistence port.
func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, logger: logger}
}

// ReadData loads the cached aggregate.
func (s *RedisStore) ReadData() (*models.AppData, error) {
	var data models.AppData
	ok, err := s.readJSON(keyData, &data)
	if err != nil || !ok {
		return nil, err
	}
	data.Normalize()
	return &data, nil
}

// WriteData stores the aggregate.
func (s *RedisStore) WriteData(data *models.AppData) error {
	return s.writeJSON(keyData, data)
}

// ReadSession loads the persisted session user, if any.
func (s *RedisStore) ReadSession() (*models.User, error) {
	var user models.User
	ok, err := s.readJSON(keySession, &user)
	if err != nil || !ok || user.Email == "" {
		return nil, err
	}
	return &user, nil
}

// WriteSession stores the active session user.
func (s *RedisStore) WriteSession(user *models.User) error {
	return s.writeJSON(keySession, user)
}

// ClearSession removes the session slot.
func (s *RedisStore) ClearSession() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := s.client.Del(ctx, keySession).Err(); err != nil {
		return fmt.Errorf("redis clear session: %w", err)
	}
	return nil
}

// ReadSettings loads the storage-mode preference.
func (s *RedisStore) ReadSettings() (*models.StorageSettings, error) {
	var settings models.StorageSettings
	ok, err := s.readJSON(keySettings, &settings)
	if err != nil || !ok || settings.Mode == "" {
		return nil, err
	}
	return &settings, nil
}

// WriteSettings stores the storage-mode preference.
func (s *RedisStore) WriteSettings(settings models.StorageSettings) error {
	return s.writeJSON(keySettings, settings)
}

func (s *RedisStore) readJSON(key string, dest interface{}) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Warn("cached value corrupted, ignoring", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (s *RedisStore) writeJSON(key string, value interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/jne-ops/opsboard-api/internal/models"
)

const (
	dataFile     = "appdata.json"
	sessionFile  = "session.json"
	settingsFile = "settings.json"
)

// FileStore persists the snapshot as JSON documents under a base
// directory. Writes go through a temp file and rename so a crash mid-write
// leaves the previous snapshot intact.
type FileStore struct {
	baseDir string
	mu      sync.Mutex
	logger  *zap.Logger
}

// NewFileStore ensures the base directory exists and returns a handle.
func NewFileStore(baseDir string, logger *zap.Logger) (*FileStore, error) {
	if baseDir == "" {
		baseDir = "./data"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileStore{baseDir: baseDir, logger: logger}, nil
}

// ReadData loads the cached aggregate. Missing or corrupt files count as
// an empty cache.
func (s *FileStore) ReadData() (*models.AppData, error) {
	var data models.AppData
	ok, err := s.readJSON(dataFile, &data)
	if err != nil || !ok {
		return nil, err
	}
	data.Normalize()
	return &data, nil
}

// WriteData stores the aggregate atomically.
func (s *FileStore) WriteData(data *models.AppData) error {
	return s.writeJSON(dataFile, data)
}

// ReadSession loads the persisted session user, if any.
func (s *FileStore) ReadSession() (*models.User, error) {
	var user models.User
	ok, err := s.readJSON(sessionFile, &user)
	if err != nil || !ok {
		return nil, err
	}
	if user.Email == "" {
		return nil, nil
	}
	return &user, nil
}

// WriteSession stores the active session user.
func (s *FileStore) WriteSession(user *models.User) error {
	return s.writeJSON(sessionFile, user)
}

// ClearSession removes the session slot.
func (s *FileStore) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(filepath.Join(s.baseDir, sessionFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// ReadSettings loads the storage-mode preference.
func (s *FileStore) ReadSettings() (*models.StorageSettings, error) {
	var settings models.StorageSettings
	ok, err := s.readJSON(settingsFile, &settings)
	if err != nil || !ok {
		return nil, err
	}
	if settings.Mode == "" {
		return nil, nil
	}
	return &settings, nil
}

// WriteSettings stores the storage-mode preference.
func (s *FileStore) WriteSettings(settings models.StorageSettings) error {
	return s.writeJSON(settingsFile, settings)
}

func (s *FileStore) readJSON(name string, dest interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(filepath.Join(s.baseDir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// Corrupt cache is treated as no cache.
		s.logger.Warn("cached document corrupted, ignoring", zap.String("file", name), zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (s *FileStore) writeJSON(name string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	path := filepath.Join(s.baseDir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit %s: %w", name, err)
	}
	return nil
}

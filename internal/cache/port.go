package cache

import "github.com/jne-ops/opsboard-api/internal/models"

// Port is the persistence boundary for the sync engine: the last-known-good
// aggregate, the active session slot, and the storage-mode preference.
//
// Writes are synchronous; the engine persists locally before any remote
// attempt so a crash mid-save never loses data. A corrupt stored aggregate
// reads back as (nil, nil) — "no cache" — never as a fatal error.
type Port interface {
	ReadData() (*models.AppData, error)
	WriteData(data *models.AppData) error

	ReadSession() (*models.User, error)
	WriteSession(user *models.User) error
	ClearSession() error

	ReadSettings() (*models.StorageSettings, error)
	WriteSettings(settings models.StorageSettings) error
}

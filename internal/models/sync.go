package models

import "time"

// StorageMode selects which backend the engine syncs against.
type StorageMode string

const (
	ModeScript StorageMode = "GAS"     // Google Apps Script webhook store
	ModeBin    StorageMode = "JSONBIN" // simple key/value REST store
	ModeLocal  StorageMode = "LOCAL"   // local durability cache only
)

// Valid reports whether the mode is one of the known backends.
func (m StorageMode) Valid() bool {
	switch m {
	case ModeScript, ModeBin, ModeLocal:
		return true
	}
	return false
}

// StorageSettings is the persisted storage preference: the chosen mode and
// an optional runtime override for the script endpoint.
type StorageSettings struct {
	Mode      StorageMode `json:"mode"`
	ScriptURL string      `json:"scriptUrl,omitempty"`
}

// SyncSeverity classifies the connection state for the UI.
type SyncSeverity string

const (
	SeverityOK SyncSeverity = "ok"
	// SeveritySoft means the remote is unreachable but local data exists;
	// the UI shows a quiet warning, never a blocking error.
	SeveritySoft SyncSeverity = "soft"
	// SeverityHard means there is no data at all and the remote failed.
	SeverityHard SyncSeverity = "hard"
)

// SyncStatus is the status contract the engine exposes.
type SyncStatus struct {
	IsLoading       bool        `json:"isLoading"`
	IsSaving        bool        `json:"isSaving"`
	ConnectionError bool        `json:"connectionError"`
	LastSyncedAt    *time.Time  `json:"lastSyncedAt,omitempty"`
	Mode            StorageMode `json:"mode"`
	JobCount        int         `json:"jobCount"`
}

// Severity derives the UI classification: a connection error only presents
// as hard when there is nothing to show.
func (s SyncStatus) Severity() SyncSeverity {
	if !s.ConnectionError {
		return SeverityOK
	}
	if s.JobCount > 0 || s.Mode == ModeLocal {
		return SeveritySoft
	}
	return SeverityHard
}

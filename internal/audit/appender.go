package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/jne-ops/opsboard-api/internal/models"
)

// Appender builds audit trail entries. Every mutation path produces
// exactly one entry, prepended so the trail stays newest-first.
type Appender struct {
	actor func() string
	now   func() time.Time
	newID func() string
}

// New constructs an appender. actor resolves the current operator's
// display name at entry-creation time.
func New(actor func() string, now func() time.Time, newID func() string) *Appender {
	if actor == nil {
		actor = func() string { return "Unknown" }
	}
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &Appender{actor: actor, now: now, newID: newID}
}

// Entry stamps a new audit record for the current actor.
func (a *Appender) Entry(action, description, category string) models.ValidationLog {
	return models.ValidationLog{
		ID:          a.newID(),
		Timestamp:   a.now().UTC().Format(time.RFC3339),
		User:        a.actor(),
		Action:      action,
		Description: description,
		Category:    category,
	}
}

// SystemEntry stamps a record attributed to the system rather than an
// operator, e.g. password resets.
func (a *Appender) SystemEntry(action, description string) models.ValidationLog {
	entry := a.Entry(action, description, "")
	entry.User = "System"
	return entry
}

// Prepend returns the log collection with entry at the head.
func Prepend(logs []models.ValidationLog, entry models.ValidationLog) []models.ValidationLog {
	out := make([]models.ValidationLog, 0, len(logs)+1)
	out = append(out, entry)
	return append(out, logs...)
}

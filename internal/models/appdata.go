package models

// AppData is the synchronized aggregate. It round-trips atomically through
// the remote store and the local cache; there is no per-record sync
// granularity, and the engine owns the canonical copy during a session.
type AppData struct {
	Jobs           []Job           `json:"jobs"`
	Users          []User          `json:"users"`
	ValidationLogs []ValidationLog `json:"validationLogs"`
}

// Normalize replaces nil slices with empty ones so the aggregate always
// serializes as arrays, matching what both remote backends expect.
func (d *AppData) Normalize() {
	if d.Jobs == nil {
		d.Jobs = []Job{}
	}
	if d.Users == nil {
		d.Users = []User{}
	}
	if d.ValidationLogs == nil {
		d.ValidationLogs = []ValidationLog{}
	}
}

// Clone returns a deep-enough copy: the slices are copied so a caller
// cannot mutate the engine's canonical state through a snapshot.
func (d *AppData) Clone() *AppData {
	out := &AppData{
		Jobs:           make([]Job, len(d.Jobs)),
		Users:          make([]User, len(d.Users)),
		ValidationLogs: make([]ValidationLog, len(d.ValidationLogs)),
	}
	copy(out.Jobs, d.Jobs)
	copy(out.Users, d.Users)
	copy(out.ValidationLogs, d.ValidationLogs)
	return out
}

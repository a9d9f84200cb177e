package models

// LogAction constants represent auditable mutations.
const (
	LogActionCreate        = "CREATE"
	LogActionUpdate        = "UPDATE"
	LogActionDelete        = "DELETE"
	LogActionBulkImport    = "BULK_IMPORT"
	LogActionResetPassword = "RESET_PASSWORD"
	LogActionValidation    = "VALIDATION"
)

// ValidationLog is an append-only audit trail entry, newest first.
type ValidationLog struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"` // ISO 8601
	User        string `json:"user"`
	Action      string `json:"action"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

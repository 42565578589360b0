package model

// Audit actions recorded for soft-delete lifecycle events.
const (
	AuditSoftDelete = "soft_delete"
	AuditRestore    = "restore"
	AuditPurge      = "purge"
	AuditSweep      = "retention_sweep"
)

type AuditEntry struct {
	Action     string `json:"action"`
	OccurredAt string `json:"occurred_at"`
	Actor      *Actor `json:"actor,omitempty"`
	Collection string `json:"collection"`
	RecordID   string `json:"id,omitempty"`
	Count      int64  `json:"count,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

type AuditQuery struct {
	Action     string
	ActorID    string
	Collection string
	From       string
	To         string
	Page       int
	Limit      int
}

type AuditListData struct {
	Items []AuditEntry `json:"items"`
}

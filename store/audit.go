package store

import "context"

// AuditStatus is the status of an attempted assistant action.
type AuditStatus string

const (
	AuditStatusPending   AuditStatus = "pending"
	AuditStatusConfirmed AuditStatus = "confirmed"
	AuditStatusExecuted  AuditStatus = "executed"
	AuditStatusFailed    AuditStatus = "failed"
	AuditStatusCancelled AuditStatus = "cancelled"
)

// AuditLogEntry records one attempted function call. Entries are append-only:
// later status updates mutate an entry in place but entries are never removed.
type AuditLogEntry struct {
	ID             int64
	ActorID        int32
	FunctionName   string
	Parameters     string // JSON-encoded parameter map
	Status         AuditStatus
	Result         *string // JSON-encoded result envelope, when available
	ConversationID *string
	CreatedTs      int64
	ExecutedTs     *int64
}

// FindAuditLogEntry is the find condition for audit log entries.
type FindAuditLogEntry struct {
	ActorID      *int32
	FunctionName *string
	Limit        int
	Offset       int
}

// AuditStore defines the interface for action audit logging.
type AuditStore interface {
	// CreateAuditLogEntry appends an audit record.
	CreateAuditLogEntry(ctx context.Context, entry *AuditLogEntry) (*AuditLogEntry, error)

	// UpdateAuditLogEntryStatus updates the status and result of an entry.
	UpdateAuditLogEntryStatus(ctx context.Context, id int64, status AuditStatus, result *string, executedTs *int64) error

	// ListAuditLogEntries retrieves entries for an actor, newest first.
	ListAuditLogEntries(ctx context.Context, find *FindAuditLogEntry) ([]*AuditLogEntry, error)
}

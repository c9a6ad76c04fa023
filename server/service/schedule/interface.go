// Package schedule implements the calendar business logic: conflict-checked
// creation, reschedule, cancellation, and alternative slot search.
package schedule

import (
	"context"
	"time"

	"github.com/coachdesk/coachdesk/store"
)

// Service defines the core business logic interface for calendar
// management. The assistant's function handlers call this directly.
type Service interface {
	// FindEntries returns non-cancelled entries whose start time falls
	// between start and end.
	FindEntries(ctx context.Context, ownerID int32, start, end time.Time) ([]*store.CalendarEntry, error)

	// CreateEntry persists a new calendar entry.
	CreateEntry(ctx context.Context, ownerID int32, create *CreateEntryRequest) (*store.CalendarEntry, error)

	// GetEntry returns the entry by id, or nil when absent.
	GetEntry(ctx context.Context, id int32) (*store.CalendarEntry, error)

	// UpdateEntry applies a partial update. The caller is responsible for
	// ownership checks and conflict re-validation.
	UpdateEntry(ctx context.Context, id int32, update *UpdateEntryRequest) (*store.CalendarEntry, error)

	// CancelEntry transitions an entry to cancelled. Entries are never
	// hard-deleted.
	CancelEntry(ctx context.Context, id int32) (*store.CalendarEntry, error)

	// CheckConflicts returns entries that truly overlap the candidate
	// interval. excludeID drops one entry from consideration, used when
	// rescheduling an event against itself. Non-empty means conflict.
	CheckConflicts(ctx context.Context, ownerID int32, start, end time.Time, excludeID *int32) ([]*store.CalendarEntry, error)
}

// CreateEntryRequest is the request to create a calendar entry.
type CreateEntryRequest struct {
	SubjectID *int32
	Title     string
	Start     time.Time
	End       time.Time
	Timezone  string
	Kind      store.EventKind
	CreatedBy store.CreatorType
}

// UpdateEntryRequest is the request to update a calendar entry.
type UpdateEntryRequest struct {
	Title *string
	Start *time.Time
	End   *time.Time
}

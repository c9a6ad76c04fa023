package store

import "context"

// EventKind classifies a calendar entry.
type EventKind string

const (
	EventKindSession EventKind = "session"
	EventKindCall    EventKind = "call"
	EventKindAdhoc   EventKind = "adhoc"
)

// EventStatus is the lifecycle status of a calendar entry.
// Entries are never hard-deleted; cancellation is a status transition.
type EventStatus string

const (
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

// CreatorType records whether a human or the assistant created the entry.
type CreatorType string

const (
	CreatorHuman     CreatorType = "human"
	CreatorAssistant CreatorType = "assistant"
)

// CalendarEntry is a scheduled session, call, or ad-hoc event.
type CalendarEntry struct {
	ID        int32
	UID       string
	OwnerID   int32
	SubjectID *int32 // The client the event is with, when known
	Title     string
	StartTs   int64
	EndTs     int64
	Timezone  string
	Kind      EventKind
	Status    EventStatus
	CreatedBy CreatorType
	CreatedTs int64
	UpdatedTs int64
}

// FindCalendarEntry is the find condition for calendar entries.
// StartTsAfter/StartTsBefore express the coarse, indexable range scan over
// entry start times; precise overlap filtering happens in the service layer.
type FindCalendarEntry struct {
	ID            *int32
	OwnerID       *int32
	StartTsAfter  *int64
	StartTsBefore *int64
	ExcludeStatus []EventStatus
}

// UpdateCalendarEntry carries a partial calendar entry update.
type UpdateCalendarEntry struct {
	ID      int32
	Title   *string
	StartTs *int64
	EndTs   *int64
	Status  *EventStatus
}

// CreateCalendarEntry persists a calendar entry.
func (s *Store) CreateCalendarEntry(ctx context.Context, entry *CalendarEntry) (*CalendarEntry, error) {
	return s.driver.CreateCalendarEntry(ctx, entry)
}

// GetCalendarEntry returns the entry by id, or nil when absent.
func (s *Store) GetCalendarEntry(ctx context.Context, id int32) (*CalendarEntry, error) {
	list, err := s.driver.ListCalendarEntries(ctx, &FindCalendarEntry{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListCalendarEntries lists entries matching the find condition.
func (s *Store) ListCalendarEntries(ctx context.Context, find *FindCalendarEntry) ([]*CalendarEntry, error) {
	return s.driver.ListCalendarEntries(ctx, find)
}

// UpdateCalendarEntry applies a partial update to an entry.
func (s *Store) UpdateCalendarEntry(ctx context.Context, update *UpdateCalendarEntry) (*CalendarEntry, error) {
	return s.driver.UpdateCalendarEntry(ctx, update)
}

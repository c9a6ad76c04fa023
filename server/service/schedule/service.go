package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/coachdesk/coachdesk/store"
)

// conflictQueryPadding widens the store range scan around the candidate
// interval. The query fetches by entry start time only, so an entry that
// started shortly before the candidate window would be missed by an exact
// range; the precise half-open overlap test then runs in-process.
const conflictQueryPadding = 30 * time.Minute

type service struct {
	store *store.Store
}

// NewService creates the calendar service.
func NewService(st *store.Store) Service {
	return &service{store: st}
}

func (s *service) FindEntries(ctx context.Context, ownerID int32, start, end time.Time) ([]*store.CalendarEntry, error) {
	startTs := start.Unix()
	endTs := end.Unix()
	return s.store.ListCalendarEntries(ctx, &store.FindCalendarEntry{
		OwnerID:       &ownerID,
		StartTsAfter:  &startTs,
		StartTsBefore: &endTs,
		ExcludeStatus: []store.EventStatus{store.EventStatusCancelled},
	})
}

func (s *service) CreateEntry(ctx context.Context, ownerID int32, create *CreateEntryRequest) (*store.CalendarEntry, error) {
	if create.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if !create.End.After(create.Start) {
		return nil, fmt.Errorf("end time must be after start time")
	}

	now := time.Now().Unix()
	entry := &store.CalendarEntry{
		UID:       shortuuid.New(),
		OwnerID:   ownerID,
		SubjectID: create.SubjectID,
		Title:     create.Title,
		StartTs:   create.Start.Unix(),
		EndTs:     create.End.Unix(),
		Timezone:  create.Timezone,
		Kind:      create.Kind,
		Status:    store.EventStatusScheduled,
		CreatedBy: create.CreatedBy,
		CreatedTs: now,
		UpdatedTs: now,
	}
	return s.store.CreateCalendarEntry(ctx, entry)
}

func (s *service) GetEntry(ctx context.Context, id int32) (*store.CalendarEntry, error) {
	return s.store.GetCalendarEntry(ctx, id)
}

func (s *service) UpdateEntry(ctx context.Context, id int32, update *UpdateEntryRequest) (*store.CalendarEntry, error) {
	storeUpdate := &store.UpdateCalendarEntry{ID: id, Title: update.Title}
	if update.Start != nil {
		ts := update.Start.Unix()
		storeUpdate.StartTs = &ts
	}
	if update.End != nil {
		ts := update.End.Unix()
		storeUpdate.EndTs = &ts
	}
	return s.store.UpdateCalendarEntry(ctx, storeUpdate)
}

func (s *service) CancelEntry(ctx context.Context, id int32) (*store.CalendarEntry, error) {
	cancelled := store.EventStatusCancelled
	return s.store.UpdateCalendarEntry(ctx, &store.UpdateCalendarEntry{
		ID:     id,
		Status: &cancelled,
	})
}

// CheckConflicts fetches candidates via a coarse, indexable range scan over
// start times (padded by conflictQueryPadding on both sides), then keeps
// only true overlaps using the half-open interval test
// existing.start < candidate.end && existing.end > candidate.start.
func (s *service) CheckConflicts(ctx context.Context, ownerID int32, start, end time.Time, excludeID *int32) ([]*store.CalendarEntry, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("invalid interval: end must be after start")
	}

	scanStart := start.Add(-conflictQueryPadding).Unix()
	scanEnd := end.Add(conflictQueryPadding).Unix()

	candidates, err := s.store.ListCalendarEntries(ctx, &store.FindCalendarEntry{
		OwnerID:       &ownerID,
		StartTsAfter:  &scanStart,
		StartTsBefore: &scanEnd,
		ExcludeStatus: []store.EventStatus{store.EventStatusCancelled},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar: %w", err)
	}

	startTs, endTs := start.Unix(), end.Unix()
	conflicts := []*store.CalendarEntry{}
	for _, entry := range candidates {
		if excludeID != nil && entry.ID == *excludeID {
			continue
		}
		if entry.StartTs < endTs && entry.EndTs > startTs {
			conflicts = append(conflicts, entry)
		}
	}
	return conflicts, nil
}

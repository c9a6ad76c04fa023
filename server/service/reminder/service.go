// Package reminder manages trainer reminders: short notes surfaced at a
// due time, optionally tied to a specific client.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/coachdesk/coachdesk/store"
)

const (
	// Longest accepted reminder text, in characters.
	maxTextLength = 500

	// Reminders may be backdated this far, covering "remind me about
	// yesterday's session" phrasing. Anything older is a mistake.
	maxBackdate = 7 * 24 * time.Hour
)

// Service creates and lists reminders.
type Service struct {
	store *store.Store
}

// NewService creates the reminder service.
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// CreateRequest is the request to create a reminder.
type CreateRequest struct {
	OwnerID   int32
	SubjectID *int32
	Text      string
	Due       time.Time
}

// Create validates and persists a reminder. now is passed explicitly so the
// backdate window is checked against the caller's clock.
func (s *Service) Create(ctx context.Context, now time.Time, create *CreateRequest) (*store.Reminder, error) {
	if create.Text == "" {
		return nil, fmt.Errorf("reminder text cannot be empty")
	}
	if n := len([]rune(create.Text)); n > maxTextLength {
		return nil, fmt.Errorf("reminder text too long: %d characters, max %d", n, maxTextLength)
	}
	if create.Due.Before(now.Add(-maxBackdate)) {
		return nil, fmt.Errorf("reminder due date is more than %d days in the past", int(maxBackdate.Hours()/24))
	}

	return s.store.CreateReminder(ctx, &store.Reminder{
		OwnerID:   create.OwnerID,
		SubjectID: create.SubjectID,
		Text:      create.Text,
		DueTs:     create.Due.Unix(),
		Status:    store.ReminderStatusPending,
		CreatedTs: now.Unix(),
	})
}

// ListPending returns the owner's pending reminders.
func (s *Service) ListPending(ctx context.Context, ownerID int32) ([]*store.Reminder, error) {
	status := store.ReminderStatusPending
	return s.store.ListReminders(ctx, &store.FindReminder{
		OwnerID: &ownerID,
		Status:  &status,
	})
}

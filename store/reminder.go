package store

import "context"

// ReminderStatus is the lifecycle status of a reminder.
type ReminderStatus string

const (
	ReminderStatusPending ReminderStatus = "pending"
	ReminderStatusDone    ReminderStatus = "done"
)

// Reminder is a note the assistant surfaces to the trainer at a due time.
type Reminder struct {
	ID        int32
	OwnerID   int32
	SubjectID *int32 // The client the reminder is about, when named
	Text      string
	DueTs     int64
	Status    ReminderStatus
	CreatedTs int64
}

// FindReminder is the find condition for reminders.
type FindReminder struct {
	ID      *int32
	OwnerID *int32
	Status  *ReminderStatus
}

// CreateReminder persists a reminder.
func (s *Store) CreateReminder(ctx context.Context, reminder *Reminder) (*Reminder, error) {
	return s.driver.CreateReminder(ctx, reminder)
}

// ListReminders lists reminders matching the find condition.
func (s *Store) ListReminders(ctx context.Context, find *FindReminder) ([]*Reminder, error) {
	return s.driver.ListReminders(ctx, find)
}

package store

import "context"

// Driver is the storage backend interface. Postgres is the production
// driver; the memory driver serves development and tests.
type Driver interface {
	// Users
	CreateUser(ctx context.Context, user *User) (*User, error)
	ListUsers(ctx context.Context, find *FindUser) ([]*User, error)

	// Channels
	CreateChannel(ctx context.Context, channel *Channel) (*Channel, error)
	ListChannels(ctx context.Context, find *FindChannel) ([]*Channel, error)
	UpdateChannel(ctx context.Context, update *UpdateChannel) error

	// Messages
	CreateMessage(ctx context.Context, message *Message) (*Message, error)
	ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error)

	// Calendar
	CreateCalendarEntry(ctx context.Context, entry *CalendarEntry) (*CalendarEntry, error)
	ListCalendarEntries(ctx context.Context, find *FindCalendarEntry) ([]*CalendarEntry, error)
	UpdateCalendarEntry(ctx context.Context, update *UpdateCalendarEntry) (*CalendarEntry, error)

	// Reminders
	CreateReminder(ctx context.Context, reminder *Reminder) (*Reminder, error)
	ListReminders(ctx context.Context, find *FindReminder) ([]*Reminder, error)

	// Message embeddings (vector index)
	UpsertMessageEmbedding(ctx context.Context, embedding *MessageEmbedding) error
	MessageVectorSearch(ctx context.Context, opts *MessageVectorSearchOptions) ([]*MessageMatch, error)

	// Audit log
	AuditStore() AuditStore

	// Migrate prepares the backing schema.
	Migrate(ctx context.Context) error

	Close() error
}

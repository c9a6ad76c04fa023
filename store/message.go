package store

import "context"

// Message is a chat message persisted in a channel.
type Message struct {
	ID        string // UUID
	ChannelID int32
	SenderID  int32
	Text      string
	CreatedTs int64
}

// FindMessage is the find condition for messages.
type FindMessage struct {
	ID        *string
	ChannelID *int32
	Limit     int
}

// CreateMessage persists a message.
func (s *Store) CreateMessage(ctx context.Context, message *Message) (*Message, error) {
	return s.driver.CreateMessage(ctx, message)
}

// GetMessage returns the message by id, or nil when absent.
func (s *Store) GetMessage(ctx context.Context, id string) (*Message, error) {
	list, err := s.driver.ListMessages(ctx, &FindMessage{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListMessages lists messages matching the find condition, newest first.
func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	return s.driver.ListMessages(ctx, find)
}

package store

import "context"

// Channel is a communication thread between two or more users.
type Channel struct {
	ID              int32
	UID             string
	Name            string
	MemberIDs       []int32
	LastMessageText string
	LastMessageTs   int64
	CreatedTs       int64
}

// HasMember reports whether the user belongs to the channel.
func (c *Channel) HasMember(userID int32) bool {
	for _, id := range c.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// FindChannel is the find condition for channels.
type FindChannel struct {
	ID *int32
	// MemberID restricts to channels whose member set contains this user.
	MemberID *int32
}

// UpdateChannel carries a partial channel update.
type UpdateChannel struct {
	ID              int32
	LastMessageText *string
	LastMessageTs   *int64
}

// GetChannel returns the channel by id, or nil when absent.
func (s *Store) GetChannel(ctx context.Context, id int32) (*Channel, error) {
	list, err := s.driver.ListChannels(ctx, &FindChannel{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListChannels lists channels matching the find condition.
func (s *Store) ListChannels(ctx context.Context, find *FindChannel) ([]*Channel, error) {
	return s.driver.ListChannels(ctx, find)
}

// CreateChannel creates a channel.
func (s *Store) CreateChannel(ctx context.Context, channel *Channel) (*Channel, error) {
	return s.driver.CreateChannel(ctx, channel)
}

// UpdateChannel applies a partial update to a channel.
func (s *Store) UpdateChannel(ctx context.Context, update *UpdateChannel) error {
	return s.driver.UpdateChannel(ctx, update)
}

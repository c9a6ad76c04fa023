package store

import "context"

// User represents an identity known to the instance: the trainer (actor)
// and the clients they communicate with.
type User struct {
	ID          int32
	DisplayName string
	Email       string
	CreatedTs   int64
}

// FindUser is the find condition for users.
type FindUser struct {
	ID  *int32
	IDs []int32
}

// GetUser returns the user by id, or nil when absent. Reads go through
// the user cache since result enrichment hits the same senders repeatedly.
func (s *Store) GetUser(ctx context.Context, id int32) (*User, error) {
	if v, ok := s.userCache.Get(userCacheKey(id)); ok {
		if u, ok := v.(*User); ok {
			return u, nil
		}
	}

	list, err := s.driver.ListUsers(ctx, &FindUser{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	s.userCache.Set(userCacheKey(id), list[0])
	return list[0], nil
}

// ListUsers lists users matching the find condition.
func (s *Store) ListUsers(ctx context.Context, find *FindUser) ([]*User, error) {
	return s.driver.ListUsers(ctx, find)
}

// CreateUser creates a user.
func (s *Store) CreateUser(ctx context.Context, user *User) (*User, error) {
	created, err := s.driver.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	s.userCache.Set(userCacheKey(created.ID), created)
	return created, nil
}

package store

import (
	"context"
	"fmt"
)

// User represents a registered account.
type User struct {
	ID           int32
	Email        string
	PasswordHash string
	CreatedTs    int64
}

// FindUser is the find condition for users.
type FindUser struct {
	ID    *int32
	Email *string
}

// CreateUser creates a new user.
func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	user, err := s.driver.CreateUser(ctx, create)
	if err != nil {
		return nil, err
	}
	s.userCache.Set(userCacheKey(user.ID), user)
	return user, nil
}

// GetUser finds a single user, consulting the cache for lookups by ID.
func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	if find.ID != nil && find.Email == nil {
		if cached, ok := s.userCache.Get(userCacheKey(*find.ID)); ok {
			if user, ok := cached.(*User); ok {
				return user, nil
			}
		}
	}
	user, err := s.driver.GetUser(ctx, find)
	if err != nil {
		return nil, err
	}
	if user != nil {
		s.userCache.Set(userCacheKey(user.ID), user)
	}
	return user, nil
}

func userCacheKey(id int32) string {
	return fmt.Sprintf("user:%d", id)
}

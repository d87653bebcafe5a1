package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin   = "ADMIN"
	RoleMonitor = "MONITOR"
)

// User is an operator allowed on the operational endpoints.
type User struct {
	Username     string
	PasswordHash string
	Roles        []string
}

// Store holds the operator accounts and verifies basic-auth credentials.
type Store struct {
	users map[string]User
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// NewStore validates that every user has a bcrypt hash and at least one role.
// Users with an empty username or hash are skipped, which leaves them disabled.
func NewStore(users ...User) (*Store, error) {
	s := &Store{users: make(map[string]User, len(users))}
	for _, u := range users {
		if u.Username == "" || u.PasswordHash == "" {
			continue
		}
		if _, err := bcrypt.Cost([]byte(u.PasswordHash)); err != nil {
			return nil, fmt.Errorf("user %q: password hash is not bcrypt: %w", u.Username, err)
		}
		if len(u.Roles) == 0 {
			return nil, fmt.Errorf("user %q: %w", u.Username, errors.New("no roles"))
		}
		s.users[u.Username] = u
	}
	return s, nil
}

// Len is the number of enabled users.
func (s *Store) Len() int {
	return len(s.users)
}

// Authenticate returns the user's roles when the password matches.
// Unknown users still pay for one bcrypt comparison.
func (s *Store) Authenticate(_ context.Context, username, password string) ([]string, bool) {
	u, ok := s.users[username]
	if !ok {
		dummyHashOnce.Do(func() {
			dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
		})
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, false
	}
	if !VerifyPassword(u.PasswordHash, password) {
		return nil, false
	}
	return slices.Clone(u.Roles), true
}

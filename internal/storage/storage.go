// Package storage defines the persistence interfaces used by the auth
// collaborator. The session engine itself keeps no persistent state.
package storage

import (
	"context"
	"errors"

	"github.com/ZXseITz/zx-tbsg/internal/auth/user"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrUsernameTaken indicates a username collision on insert.
var ErrUsernameTaken = errors.New("username already taken")

// UserStore persists account records.
type UserStore interface {
	PutUser(ctx context.Context, account user.User) error
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByUsername(ctx context.Context, username string) (user.User, error)
}

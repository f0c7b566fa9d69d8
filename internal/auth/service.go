// Package auth provides account registration, login, and token verification.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZXseITz/zx-tbsg/internal/auth/user"
	"github.com/ZXseITz/zx-tbsg/internal/id"
	"github.com/ZXseITz/zx-tbsg/internal/storage"
)

// ErrInvalidCredentials indicates a login attempt with an unknown username
// or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service handles account registration and token-based authentication.
type Service struct {
	store       storage.UserStore
	secret      []byte
	tokenTTL    time.Duration
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewService creates an auth service backed by a user store.
func NewService(store storage.UserStore, secret string, tokenTTL time.Duration) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if secret == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		store:       store,
		secret:      []byte(secret),
		tokenTTL:    tokenTTL,
		clock:       time.Now,
		idGenerator: id.NewID,
	}, nil
}

// RegisterInput describes a registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates an account with a hashed password.
func (s *Service) Register(ctx context.Context, input RegisterInput) (user.User, error) {
	hash, err := HashPassword(input.Password)
	if err != nil {
		return user.User{}, err
	}

	account, err := user.CreateUser(user.CreateUserInput{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
	}, s.clock, s.idGenerator)
	if err != nil {
		return user.User{}, err
	}

	if err := s.store.PutUser(ctx, account); err != nil {
		return user.User{}, fmt.Errorf("store user: %w", err)
	}
	return account, nil
}

// Login verifies credentials and issues a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (string, user.User, error) {
	account, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return "", user.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", user.User{}, fmt.Errorf("load user: %w", err)
	}

	if err := VerifyPassword(account.PasswordHash, password); err != nil {
		if errors.Is(err, ErrWrongPassword) {
			return "", user.User{}, ErrInvalidCredentials
		}
		return "", user.User{}, err
	}

	token, err := issueToken(s.secret, account.ID, account.Username, account.Roles, s.tokenTTL, s.clock())
	if err != nil {
		return "", user.User{}, err
	}
	return token, account, nil
}

// Verify validates a signed token and returns its claims.
func (s *Service) Verify(token string) (Claims, error) {
	return parseToken(s.secret, token)
}

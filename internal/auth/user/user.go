// Package user provides the account model for authenticated players.
package user

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ZXseITz/zx-tbsg/internal/id"
)

var (
	// ErrEmptyUsername indicates a missing username.
	ErrEmptyUsername = errors.New("username is required")
	// ErrEmptyEmail indicates a missing email address.
	ErrEmptyEmail = errors.New("email is required")
)

// RoleUser is the default role assigned to registered accounts.
const RoleUser = "user"

// User represents an authenticated account record.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUserInput describes the metadata needed to create a user.
type CreateUserInput struct {
	Username     string
	Email        string
	PasswordHash string
}

// CreateUser creates a new user with a generated ID, the default role, and
// creation timestamps.
func CreateUser(input CreateUserInput, now func() time.Time, idGenerator func() (string, error)) (User, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateUserInput(input)
	if err != nil {
		return User{}, err
	}

	userID, err := idGenerator()
	if err != nil {
		return User{}, fmt.Errorf("generate user id: %w", err)
	}

	createdAt := now().UTC()
	return User{
		ID:           userID,
		Username:     normalized.Username,
		Email:        normalized.Email,
		PasswordHash: normalized.PasswordHash,
		Roles:        []string{RoleUser},
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}, nil
}

// NormalizeCreateUserInput trims and validates user input metadata.
func NormalizeCreateUserInput(input CreateUserInput) (CreateUserInput, error) {
	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" {
		return CreateUserInput{}, ErrEmptyUsername
	}
	input.Email = strings.TrimSpace(input.Email)
	if input.Email == "" {
		return CreateUserInput{}, ErrEmptyEmail
	}
	return input, nil
}

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Status is a user's presence status.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
	StatusAway    Status = "away"
)

// Valid reports whether s is one of the known presence statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOnline, StatusOffline, StatusAway:
		return true
	}
	return false
}

// User represents a user record. The live layer reads identity from it and
// writes presence (status, last_seen); everything else belongs to the REST
// collaborator.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Status       Status
	LastSeen     *time.Time
	CreatedAt    time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// UpdateUserStatus persists a presence transition. lastSeen may be nil
	// when the transition does not record one (e.g. going online).
	UpdateUserStatus(ctx context.Context, id string, status Status, lastSeen *time.Time) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore

	// Close closes the underlying database connection.
	Close() error
}

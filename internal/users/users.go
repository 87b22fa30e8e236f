package users

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("users: not found")

// User is a durable account record. OAuth-provisioned users carry the
// external account id they were created from.
type User struct {
	ID       string
	Username string
	GithubID int64
}

// Store persists user records. Users are created on first OAuth login and
// never deleted by this subsystem.
type Store interface {
	// GetByID returns the user or ErrNotFound.
	GetByID(ctx context.Context, id string) (*User, error)

	// FindOrCreateByGithubID maps an external account id to a local
	// user, creating one if none exists. It must be idempotent under
	// concurrent calls for the same account id.
	FindOrCreateByGithubID(ctx context.Context, githubID int64, username string) (*User, error)
}

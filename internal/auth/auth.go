package auth

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means no such user or credential exists.
	ErrNotFound = errors.New("auth: not found")

	// ErrVerificationFailed means the secret did not match or the
	// provider rejected the token.
	ErrVerificationFailed = errors.New("auth: verification failed")
)

// User is an authenticated principal. AccessToken is OAuth-derived and
// session-scoped; it is never written to durable storage.
type User struct {
	ID          string
	Username    string
	AccessToken string
}

// Backend turns a presented credential into a verified User. One concrete
// implementation per deployment covers both login methods.
type Backend interface {
	// VerifyDirect checks an identifier/secret pair against the
	// credential source.
	VerifyDirect(ctx context.Context, username, password string) (*User, error)

	// VerifyOAuth resolves a provider access token to a local user,
	// provisioning one on first login. Provisioning is idempotent,
	// keyed by the external account id.
	VerifyOAuth(ctx context.Context, accessToken string) (*User, error)

	// LoadUser re-hydrates an identity already stored in a session
	// without re-verifying it.
	LoadUser(ctx context.Context, id string) (*User, error)
}

package flow

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"auth-gateway/internal/auth"
	"auth-gateway/internal/session"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

var (
	// ErrCsrfMismatch means the callback state did not match the pending
	// attempt, or no attempt was pending. Terminal for the attempt.
	ErrCsrfMismatch = errors.New("oauth: state mismatch")

	// ErrTokenExchange means the code-for-token exchange failed.
	ErrTokenExchange = errors.New("oauth: token exchange failed")

	// ErrIdentityResolution means the provider accepted the code but the
	// backend could not resolve a user from the token.
	ErrIdentityResolution = errors.New("oauth: identity resolution failed")
)

// Pending-attempt keys in the session data map. Exactly one attempt is
// outstanding per session; a new Begin overwrites it.
const (
	stateKey   = "oauth.state"
	createdKey = "oauth.created_at"
)

// Flow drives the authorization-code dance for the provider. It holds no
// per-attempt state of its own; everything pending lives in the session.
type Flow struct {
	cfg     *oauth2.Config
	backend auth.Backend
}

func New(clientID, clientSecret, redirectURL string, backend auth.Backend) *Flow {
	return &Flow{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     github.Endpoint,
		},
		backend: backend,
	}
}

// WithEndpoint overrides the provider endpoints. Tests point this at a
// local fake.
func (f *Flow) WithEndpoint(ep oauth2.Endpoint) *Flow {
	f.cfg.Endpoint = ep
	return f
}

// Begin stores a fresh anti-forgery state in the session and returns the
// provider authorization URL with the state embedded.
func (f *Flow) Begin(sess *session.Session) (string, error) {
	state, err := session.GenerateID()
	if err != nil {
		return "", err
	}

	sess.Set(stateKey, state)
	sess.Set(createdKey, time.Now().UTC().Format(time.RFC3339))

	return f.cfg.AuthCodeURL(state), nil
}

// Complete validates the callback and resolves the user. The pending
// attempt is consumed before any provider I/O, so a replayed state can
// never reach the token exchange. No identity is written on any failed
// path; the caller attaches the returned user and rotates the session.
func (f *Flow) Complete(
	ctx context.Context,
	sess *session.Session,
	code string,
	state string,
) (*auth.User, error) {

	stored, pending := sess.Get(stateKey)
	sess.Remove(stateKey)
	sess.Remove(createdKey)

	if !pending || state == "" ||
		subtle.ConstantTimeCompare([]byte(stored), []byte(state)) != 1 {
		return nil, ErrCsrfMismatch
	}

	token, err := f.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}

	user, err := f.backend.VerifyOAuth(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityResolution, err)
	}

	return user, nil
}

package auth

import (
	"context"
	"errors"
	"fmt"

	"auth-gateway/internal/auth/credentials"
	"auth-gateway/internal/auth/github"
	"auth-gateway/internal/users"
)

// GatewayBackend is the deployment's single Backend implementation: direct
// logins verify against the credential file, OAuth logins resolve through
// the provider identity client into the user store.
type GatewayBackend struct {
	creds *credentials.File
	gh    *github.Client
	users users.Store
}

func NewGatewayBackend(
	creds *credentials.File,
	gh *github.Client,
	userStore users.Store,
) *GatewayBackend {
	return &GatewayBackend{
		creds: creds,
		gh:    gh,
		users: userStore,
	}
}

func (b *GatewayBackend) VerifyDirect(
	ctx context.Context,
	username string,
	password string,
) (*User, error) {

	cred, err := b.creds.Lookup(username)
	if errors.Is(err, credentials.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := credentials.VerifyPassword(cred.PasswordHash, password); err != nil {
		return nil, ErrVerificationFailed
	}

	return &User{
		ID:       cred.UserID,
		Username: cred.Username,
	}, nil
}

func (b *GatewayBackend) VerifyOAuth(
	ctx context.Context,
	accessToken string,
) (*User, error) {

	account, err := b.gh.Account(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	u, err := b.users.FindOrCreateByGithubID(ctx, account.ID, account.Login)
	if err != nil {
		return nil, err
	}

	return &User{
		ID:          u.ID,
		Username:    u.Username,
		AccessToken: accessToken,
	}, nil
}

// LoadUser checks the credential file first, then the user store, since a
// session may reference an identity from either source.
func (b *GatewayBackend) LoadUser(ctx context.Context, id string) (*User, error) {
	if cred, err := b.creds.LookupByID(id); err == nil {
		return &User{
			ID:       cred.UserID,
			Username: cred.Username,
		}, nil
	}

	u, err := b.users.GetByID(ctx, id)
	if errors.Is(err, users.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &User{
		ID:       u.ID,
		Username: u.Username,
	}, nil
}

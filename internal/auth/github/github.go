package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	gogithub "github.com/google/go-github/github"
	"golang.org/x/oauth2"
)

// Account is the provider-side identity behind an access token.
type Account struct {
	ID    int64
	Login string
}

// Client resolves an access token to the GitHub account it belongs to via
// the provider's identity endpoint.
type Client struct {
	baseURL *url.URL
}

func NewClient() *Client {
	return &Client{}
}

// NewClientWithBaseURL points the client at an alternate API root.
// Tests use this to talk to a local fake.
func NewClientWithBaseURL(raw string) (*Client, error) {
	// go-github requires the base url to end in a slash.
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("github: invalid base url: %w", err)
	}
	return &Client{baseURL: u}, nil
}

func (c *Client) Account(ctx context.Context, accessToken string) (*Account, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	api := gogithub.NewClient(oauth2.NewClient(ctx, src))
	if c.baseURL != nil {
		api.BaseURL = c.baseURL
	}

	// Empty login means "the user the token belongs to".
	u, _, err := api.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("github: identity lookup failed: %w", err)
	}

	if u.ID == nil || u.Login == nil {
		return nil, errors.New("github: identity response missing id or login")
	}

	return &Account{
		ID:    *u.ID,
		Login: *u.Login,
	}, nil
}

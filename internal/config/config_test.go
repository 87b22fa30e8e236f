package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, "postgres", cfg.SessionBackend)
	assert.True(t, cfg.CookieSecure)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("GITHUB_CLIENT_ID", "cid")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "redis", cfg.SessionBackend)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, "cid", cfg.GithubClientID)
}

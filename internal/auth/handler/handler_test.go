package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"auth-gateway/internal/auth"
	"auth-gateway/internal/auth/flow"
	"auth-gateway/internal/middleware"
	"auth-gateway/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// stubBackend resolves any exchanged token to one OAuth user and accepts
// one direct credential pair.
type stubBackend struct{}

func (stubBackend) VerifyDirect(ctx context.Context, username, password string) (*auth.User, error) {
	if username == "ferris" && password == "hunter2hunter2" {
		return &auth.User{ID: "u-file", Username: "ferris"}, nil
	}
	return nil, auth.ErrVerificationFailed
}

func (stubBackend) VerifyOAuth(ctx context.Context, accessToken string) (*auth.User, error) {
	return &auth.User{ID: "u-github", Username: "octocat", AccessToken: accessToken}, nil
}

func (stubBackend) LoadUser(ctx context.Context, id string) (*auth.User, error) {
	switch id {
	case "u-file":
		return &auth.User{ID: "u-file", Username: "ferris"}, nil
	case "u-github":
		return &auth.User{ID: "u-github", Username: "octocat"}, nil
	}
	return nil, auth.ErrNotFound
}

type fixture struct {
	router *gin.Engine
	store  *session.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok-exchanged","token_type":"bearer"}`)
	}))
	t.Cleanup(provider.Close)

	backend := stubBackend{}
	oauthFlow := flow.New("client-id", "client-secret", "http://gateway/login/oauth/callback", backend).
		WithEndpoint(oauth2.Endpoint{
			AuthURL:  provider.URL + "/authorize",
			TokenURL: provider.URL + "/token",
		})

	store := session.NewMemoryStore()
	manager := middleware.NewSessionManager(store, backend, session.CookieOptions{
		SameSite: http.SameSiteLaxMode,
	})

	router := gin.New()
	router.Use(manager.Handler())
	NewHandler(oauthFlow, backend).RegisterRoutes(router)

	protected := router.Group("/")
	protected.Use(middleware.RequireAuth())
	protected.GET("/", func(c *gin.Context) {
		st := middleware.FromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"username": st.User().Username})
	})

	return &fixture{router: router, store: store}
}

func (f *fixture) do(t *testing.T, method, target string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) cookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", session.CookieName)
	return nil
}

func TestOAuthLoginRedirectsToProvider(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/login/oauth", nil)
	require.Equal(t, http.StatusFound, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Contains(t, loc.Path, "/authorize")
	assert.NotEmpty(t, loc.Query().Get("state"))
}

func TestOAuthCallbackSuccess(t *testing.T) {
	f := newFixture(t)

	begin := f.do(t, http.MethodGet, "/login/oauth", nil)
	cookie := f.cookie(t, begin)

	loc, err := url.Parse(begin.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")

	cb := f.do(t, http.MethodGet, "/login/oauth/callback?code=c1&state="+url.QueryEscape(state), cookie)
	require.Equal(t, http.StatusFound, cb.Code)
	assert.Equal(t, "/", cb.Header().Get("Location"))

	// Fixation protection: the post-login id differs from the pre-login
	// one, and the old id no longer loads.
	rotated := f.cookie(t, cb)
	assert.NotEqual(t, cookie.Value, rotated.Value)
	_, err = f.store.Get(context.Background(), cookie.Value)
	assert.ErrorIs(t, err, session.ErrNotFound)

	home := f.do(t, http.MethodGet, "/", rotated)
	assert.Equal(t, http.StatusOK, home.Code)
	assert.Contains(t, home.Body.String(), "octocat")
}

func TestOAuthCallbackForgedState(t *testing.T) {
	f := newFixture(t)

	begin := f.do(t, http.MethodGet, "/login/oauth", nil)
	cookie := f.cookie(t, begin)

	cb := f.do(t, http.MethodGet, "/login/oauth/callback?code=c1&state=forged", cookie)
	require.Equal(t, http.StatusFound, cb.Code)
	assert.Equal(t, loginFailedURL, cb.Header().Get("Location"))

	// Still unauthenticated.
	home := f.do(t, http.MethodGet, "/", f.cookie(t, cb))
	assert.Equal(t, http.StatusFound, home.Code)
	assert.Equal(t, middleware.LoginURL, home.Header().Get("Location"))
}

func TestOAuthCallbackReplayedState(t *testing.T) {
	f := newFixture(t)

	begin := f.do(t, http.MethodGet, "/login/oauth", nil)
	cookie := f.cookie(t, begin)

	loc, err := url.Parse(begin.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")

	cb := f.do(t, http.MethodGet, "/login/oauth/callback?code=c1&state="+url.QueryEscape(state), cookie)
	require.Equal(t, http.StatusFound, cb.Code)
	rotated := f.cookie(t, cb)

	// The consumed state is worthless on a second callback; note the
	// session keeps its authenticated user from the first pass, so use a
	// fresh session to model the attacker.
	replay := f.do(t, http.MethodGet, "/login/oauth/callback?code=c1&state="+url.QueryEscape(state), nil)
	require.Equal(t, http.StatusFound, replay.Code)
	assert.Equal(t, loginFailedURL, replay.Header().Get("Location"))

	// The legitimate session is untouched.
	home := f.do(t, http.MethodGet, "/", rotated)
	assert.Equal(t, http.StatusOK, home.Code)
}

func TestDirectLoginAndLogout(t *testing.T) {
	f := newFixture(t)

	anon := f.do(t, http.MethodGet, "/login", nil)
	require.Equal(t, http.StatusOK, anon.Code)
	cookie := f.cookie(t, anon)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("not json"))
	req.AddCookie(cookie)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := `{"username":"ferris","password":"hunter2hunter2"}`
	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.AddCookie(cookie)
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	loggedIn := f.cookie(t, w)
	assert.NotEqual(t, cookie.Value, loggedIn.Value)

	home := f.do(t, http.MethodGet, "/", loggedIn)
	assert.Equal(t, http.StatusOK, home.Code)
	assert.Contains(t, home.Body.String(), "ferris")

	out := f.do(t, http.MethodPost, "/logout", loggedIn)
	require.Equal(t, http.StatusNoContent, out.Code)

	home = f.do(t, http.MethodGet, "/", f.cookie(t, out))
	assert.Equal(t, http.StatusFound, home.Code)
}

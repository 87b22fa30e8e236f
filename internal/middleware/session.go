package middleware

import (
	"context"
	"errors"
	"net/http"

	"auth-gateway/internal/auth"
	"auth-gateway/internal/logger"
	"auth-gateway/internal/session"

	"github.com/gin-gonic/gin"
)

// userIDKey is where the authenticated identity lives in the session's
// data map.
const userIDKey = "user_id"

type stateContextKeyType struct{}

var stateContextKey = stateContextKeyType{}

// State is the per-request view of the session and its resolved user.
// Handlers mutate it; the session middleware persists the result after the
// handler returns.
type State struct {
	sess      *session.Session
	user      *auth.User
	oldID     string
	destroyed bool

	w      http.ResponseWriter
	cookie session.CookieOptions
}

// FromContext returns the request's State, or nil outside the session
// middleware.
func FromContext(ctx context.Context) *State {
	st, _ := ctx.Value(stateContextKey).(*State)
	return st
}

func (s *State) Session() *session.Session { return s.sess }

func (s *State) User() *auth.User { return s.user }

// SetUser records the authenticated identity. At most one user per
// session; a new login overwrites the previous identity.
func (s *State) SetUser(u *auth.User) {
	s.user = u
	s.sess.Set(userIDKey, u.ID)
}

func (s *State) ClearUser() {
	s.user = nil
	s.sess.Remove(userIDKey)
}

// Rotate issues a new session id carrying the data over, invalidating any
// id an attacker may have pre-seeded. The old record is deleted when the
// middleware persists the request.
func (s *State) Rotate() error {
	id, err := session.GenerateID()
	if err != nil {
		return err
	}

	if s.oldID == "" {
		s.oldID = s.sess.ID
	}
	s.sess.ID = id
	session.SetCookie(s.w, s.sess.ID, s.sess.ExpiresAt, s.cookie)

	return nil
}

// Destroy deletes the session and clears the cookie once the handler
// returns.
func (s *State) Destroy() {
	s.destroyed = true
	session.ClearCookie(s.w, s.cookie)
}

// SessionManager wraps every request: it loads or creates the session,
// resolves the stored identity, and persists mutations after the handler
// runs, whatever the handler's outcome.
type SessionManager struct {
	store   session.Store
	backend auth.Backend
	cookie  session.CookieOptions
}

func NewSessionManager(
	store session.Store,
	backend auth.Backend,
	cookie session.CookieOptions,
) *SessionManager {
	return &SessionManager{
		store:   store,
		backend: backend,
		cookie:  cookie,
	}
}

func (m *SessionManager) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		sess, err := m.loadOrCreate(c)
		if err != nil {
			logger.Error("session store unavailable", map[string]any{
				"error": err.Error(),
			})
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}

		st := &State{
			sess:   sess,
			w:      c.Writer,
			cookie: m.cookie,
		}

		if id, ok := sess.Get(userIDKey); ok {
			u, err := m.backend.LoadUser(ctx, id)
			switch {
			case err == nil:
				st.user = u
			case errors.Is(err, auth.ErrNotFound):
				// Stale identity; treat as unauthenticated.
				sess.Remove(userIDKey)
			default:
				logger.Error("identity load failed", map[string]any{
					"error": err.Error(),
				})
				c.AbortWithStatus(http.StatusServiceUnavailable)
				return
			}
		}

		// Refresh the cookie up front; response bodies may be written
		// before the handler returns.
		sess.Touch()
		session.SetCookie(c.Writer, sess.ID, sess.ExpiresAt, m.cookie)

		c.Request = c.Request.WithContext(
			context.WithValue(ctx, stateContextKey, st),
		)

		c.Next()

		m.persist(c, st)
	}
}

func (m *SessionManager) loadOrCreate(c *gin.Context) (*session.Session, error) {
	ctx := c.Request.Context()

	if cookie, err := c.Request.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		sess, err := m.store.Get(ctx, cookie.Value)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, session.ErrNotFound) {
			return nil, err
		}
	}

	return m.store.Create(ctx)
}

func (m *SessionManager) persist(c *gin.Context, st *State) {
	// A client disconnect should not lose a computed mutation; the worst
	// case otherwise is only a missed sliding-expiry refresh.
	ctx := context.WithoutCancel(c.Request.Context())

	if st.destroyed {
		if err := m.store.Delete(ctx, st.sess.ID); err != nil {
			logger.Error("session delete failed", map[string]any{
				"error": err.Error(),
			})
		}
		return
	}

	if st.oldID != "" && st.oldID != st.sess.ID {
		if err := m.store.Delete(ctx, st.oldID); err != nil {
			logger.Error("rotated session delete failed", map[string]any{
				"error": err.Error(),
			})
		}
	}

	if err := m.store.Save(ctx, st.sess); err != nil {
		logger.Error("session save failed", map[string]any{
			"error": err.Error(),
		})
	}
}

package session

import (
	"errors"
	"time"
)

// InactivityWindow is the sliding expiry window. A session ends after this
// long without activity, not at a fixed time after creation.
const InactivityWindow = 24 * time.Hour

var (
	ErrNotFound = errors.New("session: not found")
)

// Session is the server-side record identified by the opaque cookie value.
// Per-visitor state, including the authenticated user id, lives in Data.
type Session struct {
	ID           string            `json:"id"`
	Data         map[string]string `json:"data"`
	ExpiresAt    time.Time         `json:"expires_at"`
	LastActivity time.Time         `json:"last_activity"`
}

// New allocates an unpersisted session with a fresh id and default expiry.
func New() (*Session, error) {
	id, err := GenerateID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Session{
		ID:           id,
		Data:         make(map[string]string),
		ExpiresAt:    now.Add(InactivityWindow),
		LastActivity: now,
	}, nil
}

// Touch refreshes the sliding expiry from the current time.
func (s *Session) Touch() {
	s.LastActivity = time.Now()
	s.ExpiresAt = s.LastActivity.Add(InactivityWindow)
}

func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

func (s *Session) Get(key string) (string, bool) {
	v, ok := s.Data[key]
	return v, ok
}

func (s *Session) Set(key, value string) {
	if s.Data == nil {
		s.Data = make(map[string]string)
	}
	s.Data[key] = value
}

func (s *Session) Remove(key string) {
	delete(s.Data, key)
}

func (s *Session) clone() *Session {
	data := make(map[string]string, len(s.Data))
	for k, v := range s.Data {
		data[k] = v
	}
	return &Session{
		ID:           s.ID,
		Data:         data,
		ExpiresAt:    s.ExpiresAt,
		LastActivity: s.LastActivity,
	}
}

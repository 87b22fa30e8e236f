package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in a mutex-guarded map. It backs tests and
// single-process development deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
	}
}

func (m *MemoryStore) Create(ctx context.Context) (*Session, error) {
	s, err := New()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s.clone()
	m.mu.Unlock()

	return s, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || s.Expired() {
		return nil, ErrNotFound
	}

	return s.clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	s.Touch()

	m.mu.Lock()
	m.sessions[s.ID] = s.clone()
	m.mu.Unlock()

	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	return nil
}

// DeleteExpired uses the collect-then-delete pattern to keep the write lock
// short; an in-flight Save of an unrelated session is never blocked for the
// duration of the scan.
func (m *MemoryStore) DeleteExpired(ctx context.Context) (int, error) {
	now := time.Now()

	m.mu.RLock()
	var expired []string
	for id, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	if len(expired) == 0 {
		return 0, nil
	}

	m.mu.Lock()
	deleted := 0
	for _, id := range expired {
		if s, ok := m.sessions[id]; ok && now.After(s.ExpiresAt) {
			delete(m.sessions, id)
			deleted++
		}
	}
	m.mu.Unlock()

	return deleted, nil
}

package users

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory user store for tests and development.
type MemoryStore struct {
	mu       sync.Mutex
	byID     map[string]*User
	byGithub map[int64]*User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[string]*User),
		byGithub: make(map[int64]*User),
	}
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	cp := *u
	return &cp, nil
}

func (m *MemoryStore) FindOrCreateByGithubID(
	ctx context.Context,
	githubID int64,
	username string,
) (*User, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.byGithub[githubID]; ok {
		u.Username = username
		cp := *u
		return &cp, nil
	}

	u := &User{
		ID:       uuid.NewString(),
		Username: username,
		GithubID: githubID,
	}
	m.byID[u.ID] = u
	m.byGithub[githubID] = u

	cp := *u
	return &cp, nil
}

package session

import (
	"context"
	"errors"
	"sync/atomic"
)

// failingStore always fails DeleteExpired and counts the attempts.
type failingStore struct {
	Store
	calls atomic.Int32
}

func (f *failingStore) DeleteExpired(ctx context.Context) (int, error) {
	f.calls.Add(1)
	return 0, errors.New("store unavailable")
}

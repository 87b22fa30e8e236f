package session

import "context"

// Store defines how sessions are stored and retrieved. Implementations must
// be safe for concurrent use; Save on the same id is last-writer-wins.
type Store interface {
	// Create allocates a fresh session and durably inserts it.
	Create(ctx context.Context) (*Session, error)

	// Get returns the session or ErrNotFound. An expired-but-present
	// record is treated as absent.
	Get(ctx context.Context, id string) (*Session, error)

	// Save upserts the session, refreshing its sliding expiry.
	Save(ctx context.Context, s *Session) error

	// Delete removes the session. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes every expired record and reports how many.
	DeleteExpired(ctx context.Context) (int, error)
}

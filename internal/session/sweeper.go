package session

import (
	"context"
	"time"

	"auth-gateway/internal/logger"
)

// SweepInterval is how often expired sessions are purged.
const SweepInterval = 60 * time.Second

// Sweeper deletes expired sessions on a fixed interval for the lifetime of
// the process. It owns no state beyond the store handle; the app starts it
// at boot and cancels its context at shutdown.
type Sweeper struct {
	store    Store
	interval time.Duration
}

func NewSweeper(store Store, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = SweepInterval
	}
	return &Sweeper{store: store, interval: interval}
}

// Run blocks until ctx is cancelled. A failed sweep is logged and retried
// on the next tick; it never takes down the serving process.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := w.store.DeleteExpired(ctx)
			if err != nil {
				logger.Error("session sweep failed", map[string]any{
					"error": err.Error(),
				})
				continue
			}
			if n > 0 {
				logger.Info("session sweep", map[string]any{
					"deleted": n,
				})
			}
		}
	}
}

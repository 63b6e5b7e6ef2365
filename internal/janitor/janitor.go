// Package janitor periodically clears password reset tokens that have expired.
// Students themselves are never removed.
package janitor

import (
	"context"
	"log/slog"
	"time"
)

// Store is the subset of the student repository the janitor cleans.
type Store interface {
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// Janitor runs the cleanup on a fixed interval.
type Janitor struct {
	store    Store
	interval time.Duration
	now      func() time.Time
}

// New creates a new Janitor.
func New(store Store, interval time.Duration) *Janitor {
	return &Janitor{
		store:    store,
		interval: interval,
		now:      time.Now,
	}
}

// Start begins the cleanup loop. It blocks until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	slog.Info("janitor started", "interval", j.interval.String())
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("janitor stopped")
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce clears the expired tokens once. Failures are logged and retried on
// the next tick.
func (j *Janitor) RunOnce(ctx context.Context) {
	n, err := j.store.ClearExpiredResetTokens(ctx, j.now())
	if err != nil {
		slog.Error("janitor: failed to clear expired reset tokens", "error", err)
		return
	}
	if n > 0 {
		slog.Info("janitor: cleared expired reset tokens", "count", n)
	}
}

package exchange

import (
	"context"
	"log"
	"time"
)

// DefaultSweepInterval is how often the background sweeper runs.
const DefaultSweepInterval = time.Minute

// Sweeper periodically expires stale pending sessions. Multiple sweepers may
// run against the same store; the underlying transition is idempotent.
type Sweeper struct {
	svc      *Service
	interval time.Duration
}

// NewSweeper returns a Sweeper invoking svc.SweepExpired every interval.
// A non-positive interval means DefaultSweepInterval.
func NewSweeper(svc *Service, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{svc: svc, interval: interval}
}

// Run sweeps until ctx is cancelled. Sweep failures are logged and the loop
// continues; there is no internal retry beyond the next tick.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.svc.SweepExpired(ctx); err != nil {
				log.Printf("session sweep: %v", err)
			}
		}
	}
}

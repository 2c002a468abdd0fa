package services

import (
	"context"
	"sync"
	"time"
)

// Throttle spaces out calls to a rate-limited provider. Callers queue behind
// each other; each Wait returns no sooner than interval after the previous one.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil || t.interval <= 0 {
		return ctx.Err()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() {
		if err := WaitFor(ctx, t.interval-time.Since(t.last)); err != nil {
			return err
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}

	t.last = time.Now()
	return nil
}

// WaitFor sleeps for d or until ctx is done.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

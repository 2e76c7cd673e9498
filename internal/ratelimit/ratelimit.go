// Package ratelimit paces requests against the storefront.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Throttle enforces a fixed minimum delay between successive actions.
// The walker uses one between listing pages so pagination stays polite
// without turning into a scheduler.
type Throttle struct {
	delay      time.Duration
	mu         sync.Mutex
	lastAction time.Time
}

// NewThrottle builds a throttle with the given inter-action delay.
func NewThrottle(delay time.Duration) *Throttle {
	return &Throttle{delay: delay}
}

// Wait blocks until the delay since the previous action has elapsed, or
// the context is canceled.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if elapsed := time.Since(t.lastAction); elapsed < t.delay {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.delay - elapsed):
		}
	}

	t.lastAction = time.Now()
	return nil
}

// Delay returns the configured inter-action delay.
func (t *Throttle) Delay() time.Duration {
	return t.delay
}

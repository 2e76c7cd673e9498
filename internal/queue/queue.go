// Package queue holds pending scrape requests. The server accepts runs at
// any rate but a single worker drains them one at a time, which is how
// overlapping scrapes are serialized.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrQueueClosed is returned once the queue has been shut down.
var ErrQueueClosed = errors.New("queue is closed")

// ScrapeRequest is one queued run.
type ScrapeRequest struct {
	RunID       string
	ListingURLs []string
	MaxPages    int
	EnqueuedAt  time.Time
}

// RunQueue is a FIFO of scrape requests with blocking Pop.
type RunQueue struct {
	mu       sync.Mutex
	requests []*ScrapeRequest
	closed   bool
	// wake is closed and replaced on every state change, waking all
	// blocked Pops.
	wake chan struct{}
}

// NewRunQueue builds an empty queue.
func NewRunQueue() *RunQueue {
	return &RunQueue{wake: make(chan struct{})}
}

// Push enqueues a request.
func (q *RunQueue) Push(req *ScrapeRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if req.EnqueuedAt.IsZero() {
		req.EnqueuedAt = time.Now()
	}
	q.requests = append(q.requests, req)
	q.broadcast()
	return nil
}

// Pop blocks until a request is available, the queue closes, or the
// context is canceled.
func (q *RunQueue) Pop(ctx context.Context) (*ScrapeRequest, error) {
	for {
		q.mu.Lock()
		if len(q.requests) > 0 {
			req := q.requests[0]
			q.requests = q.requests[1:]
			q.mu.Unlock()
			return req, nil
		}
		if q.closed {
			q.mu.Unlock()
			return nil, ErrQueueClosed
		}
		wake := q.wake
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wake:
		}
	}
}

// Size returns the number of queued requests.
func (q *RunQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.requests)
}

// Close wakes all blocked Pops; queued requests may still be drained.
func (q *RunQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	q.broadcast()
	return nil
}

// broadcast wakes every waiter. Callers must hold mu.
func (q *RunQueue) broadcast() {
	close(q.wake)
	q.wake = make(chan struct{})
}

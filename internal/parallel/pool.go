// Package parallel provides a weighted-semaphore pool for bounding
// concurrent work.
package parallel

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool limits concurrency using a weighted semaphore. The engine runs one
// option evaluation per goroutine through a shared Pool so a decision over a
// large option set cannot exhaust the scheduler.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool creates a Pool that allows at most limit concurrent tasks.
func NewPool(limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(limit))}
}

// Run acquires a slot, runs fn, and releases the slot. Blocks if all slots
// are busy and returns ctx.Err() if the context is cancelled while waiting.
// A nil pool runs fn directly without concurrency control.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	if p == nil || p.sem == nil {
		return fn()
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}

package fmc

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Governor bounds the number of simultaneous in-flight HTTP exchanges.
// A permit is held for exactly one request dispatch, including its
// internal 401/429 retries, and released on every exit path.
type Governor struct {
	sem *semaphore.Weighted
	max int64
}

// NewGovernor creates a governor with maxConnections permits.
func NewGovernor(maxConnections int) *Governor {
	if maxConnections <= 0 {
		maxConnections = 1
	}
	return &Governor{
		sem: semaphore.NewWeighted(int64(maxConnections)),
		max: int64(maxConnections),
	}
}

// Acquire blocks until a permit is free or ctx is cancelled.
func (g *Governor) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// Release returns a permit. Must be called exactly once per successful
// Acquire.
func (g *Governor) Release() {
	g.sem.Release(1)
}

// TryAcquire reports whether a permit was immediately available.
func (g *Governor) TryAcquire() bool {
	return g.sem.TryAcquire(1)
}

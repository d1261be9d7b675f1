package fmc

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultRateCapacity   = 120
	defaultRateRefillRate = 2.0
)

// RateLimiter is a token bucket gating outbound FMC requests. Tokens
// accumulate at refillRate per second up to capacity; each Acquire
// consumes one, waiting for a refill when the bucket is empty.
type RateLimiter struct {
	mu         sync.Mutex
	capacity   float64
	refillRate float64
	tokens     float64
	lastRefill time.Time
	logger     zerolog.Logger
}

// NewRateLimiter creates a rate limiter holding capacity tokens refilled
// at refillRate tokens per second. Non-positive arguments fall back to
// 120 tokens at 2.0/s.
func NewRateLimiter(capacity int, refillRate float64, logger zerolog.Logger) *RateLimiter {
	if capacity <= 0 {
		capacity = defaultRateCapacity
	}
	if refillRate <= 0 {
		refillRate = defaultRateRefillRate
	}
	return &RateLimiter{
		capacity:   float64(capacity),
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
		logger:     logger,
	}
}

// Acquire consumes one token, waiting for a refill if none is available.
// The refill-and-decrement section runs under a single mutex, so only one
// caller is mid-acquire at a time; the rest queue behind it. The only
// error outcome is ctx cancellation.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()

	for r.tokens < 1 {
		wait := time.Duration((1 - r.tokens) / r.refillRate * float64(time.Second))
		r.logger.Warn().
			Float64("tokens", r.tokens).
			Dur("wait", wait).
			Msg("Rate limit reached, waiting for refill")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		r.refill()
	}

	r.tokens--

	if r.tokens < r.capacity*0.2 {
		r.logger.Warn().
			Float64("tokens", r.tokens).
			Float64("capacity", r.capacity).
			Msg("Rate limit bucket running low")
	}

	return nil
}

// Tokens reports the current token count after applying any pending
// refill. Intended for observation and tests.
func (r *RateLimiter) Tokens() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refill()
	return r.tokens
}

// refill credits tokens for the time elapsed since the last refill,
// capped at capacity. Callers must hold r.mu.
func (r *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	r.tokens = min(r.capacity, r.tokens+elapsed*r.refillRate)
	r.lastRefill = now
}

// Package ratelimit paces outgoing requests so a long library run does not
// hammer the platform. A single token bucket guards all page and stream
// fetches; downloads themselves are not budgeted.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is the pacing contract the HTTP client depends on
type Limiter interface {
	// Allow reports whether a request may proceed right now
	Allow() bool
	// Wait blocks until a request may proceed
	Wait()
	// Reset restores the limiter to its initial state
	Reset()
}

// TokenBucket is a whole-window token bucket: the bucket refills to capacity
// once per refill period rather than dripping continuously.
type TokenBucket struct {
	capacity     int
	tokens       int
	refillPeriod time.Duration
	lastRefill   time.Time
	mu           sync.Mutex
}

// NewTokenBucket creates a bucket holding capacity tokens per refill period
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

// PerMinute creates a bucket sized for the given requests-per-minute budget.
// A non-positive budget returns a nil Limiter, which callers treat as
// unlimited.
func PerMinute(requests int) Limiter {
	if requests <= 0 {
		return nil
	}
	return NewTokenBucket(requests, time.Minute)
}

// Allow consumes a token when one is available
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait() {
	for !tb.Allow() {
		tb.mu.Lock()
		untilRefill := tb.refillPeriod - time.Since(tb.lastRefill)
		tb.mu.Unlock()

		if untilRefill > 0 {
			time.Sleep(untilRefill)
		} else {
			time.Sleep(100 * time.Millisecond)
		}
	}
}

// Reset refills the bucket to capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

// refill tops the bucket up when a full period has elapsed. Caller holds mu.
func (tb *TokenBucket) refill() {
	now := time.Now()
	if now.Sub(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}

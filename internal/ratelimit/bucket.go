// Package ratelimit throttles API callers with token buckets, one per user.
package ratelimit

import (
	"sync"
	"time"
)

// Bucket holds up to capacity tokens and refills continuously at rate tokens
// per second. Each request takes one token. Safe for concurrent use.
type Bucket struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64
	last     time.Time
	clock    func() time.Time
}

// NewBucket returns a full bucket. NewBucket(30, 1) allows a burst of 30
// requests, then one per second.
func NewBucket(capacity, rate float64) *Bucket {
	return newBucket(capacity, rate, time.Now)
}

func newBucket(capacity, rate float64, clock func() time.Time) *Bucket {
	return &Bucket{tokens: capacity, capacity: capacity, rate: rate, last: clock(), clock: clock}
}

// advance credits the tokens earned since the last call. mu must be held.
func (b *Bucket) advance() {
	now := b.clock()
	b.tokens = min(b.capacity, b.tokens+now.Sub(b.last).Seconds()*b.rate)
	b.last = now
}

// Take consumes a token when one is available. Otherwise it reports how long
// until one will be; a zero wait with ok false means the bucket never refills.
func (b *Bucket) Take() (ok bool, wait time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advance()
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if b.rate <= 0 {
		return false, 0
	}
	return false, time.Duration((1 - b.tokens) / b.rate * float64(time.Second))
}

// Tokens returns the tokens currently available.
func (b *Bucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.tokens
}

// idle reports whether the bucket has refilled completely, which makes it
// indistinguishable from a new one.
func (b *Bucket) idle() bool {
	return b.Tokens() >= b.capacity
}

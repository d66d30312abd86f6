package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter is a keyed token bucket. Every key shares the same capacity and
// refill period.
type Limiter struct {
	mu       sync.Mutex
	m        map[string]*bucket
	capacity float64
	rate     float64 // tokens per second
	now      func() time.Time
}

// New returns a limiter that holds capacity tokens per key and adds one token
// every refill.
func New(capacity int, refill time.Duration) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	rate := 0.0
	if refill > 0 {
		rate = 1 / refill.Seconds()
	}
	return &Limiter{m: make(map[string]*bucket), capacity: float64(capacity), rate: rate, now: time.Now}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.m[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = min(l.capacity, b.tokens+elapsed*l.rate)
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

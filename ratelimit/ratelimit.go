package ratelimit

import (
	"math"
	"sync"
	"time"
)

// bucket holds the accumulated capacity for one key.
type bucket struct {
	tokens        float64
	lastUpdated   time.Time // last refill computation
	lastRequested time.Time // last access of any kind; drives eviction
}

// Limiter is a per-key token bucket admission controller.
//
// Each key gets its own bucket, created lazily at full capacity on first
// access. Tokens refill at a fixed rate up to capacity; buckets idle for
// longer than the expiration are evicted by an amortized sweep that runs
// every cleanupEvery calls instead of on a background timer.
type Limiter struct {
	rate         float64 // tokens added per second
	capacity     float64
	expiration   time.Duration
	cleanupEvery int
	now          func() time.Time
	rec          Recorder

	mu      sync.Mutex
	buckets map[string]*bucket
	calls   int // accessor calls since the last sweep
}

// NewRateLimiter creates a Limiter that refills rate tokens per second up to
// capacity, and evicts buckets idle for longer than expiration.
func NewRateLimiter(rate float64, capacity int, expiration time.Duration, opts ...Option) (*Limiter, error) {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil, ErrInvalidRate
	}
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if expiration <= 0 {
		return nil, ErrInvalidExpiration
	}

	l := &Limiter{
		rate:         rate,
		capacity:     float64(capacity),
		expiration:   expiration,
		cleanupEvery: defaultCleanupEvery,
		now:          time.Now,
		rec:          nopRecorder{},
		buckets:      make(map[string]*bucket),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Allow reports whether one unit of work may proceed for key, consuming one
// token if so. Unknown keys start with a full bucket and are never rejected
// for being unknown.
func (l *Limiter) Allow(key string) bool {
	ok, _ := l.AllowN(key, 1)
	return ok
}

// AllowN reports whether n units of work may proceed for key, consuming n
// tokens atomically if so. The check and the debit happen in one critical
// section; a denied call leaves the bucket untouched beyond the refill.
// n must be positive, otherwise ErrInvalidTokens is returned.
func (l *Limiter) AllowN(key string, n int) (bool, error) {
	if n <= 0 {
		return false, ErrInvalidTokens
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b := l.refill(key, now)
	l.maybeSweep(now)

	if b.tokens < float64(n) {
		l.rec.Denied(key)
		return false, nil
	}
	b.tokens -= float64(n)
	l.rec.Allowed(key)
	return true, nil
}

// GetTokens returns the current token count for key after a refill, without
// debiting. The count is advisory: concurrent Allow calls may consume tokens
// immediately after GetTokens returns.
func (l *Limiter) GetTokens(key string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b := l.refill(key, now)
	l.maybeSweep(now)
	return b.tokens
}

// Reset discards all buckets, as if the limiter had just been constructed.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buckets = make(map[string]*bucket)
	l.calls = 0
	l.rec.Buckets(0)
}

// ResetKey discards the bucket for key. Resetting an absent key is a no-op.
func (l *Limiter) ResetKey(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.buckets, key)
	l.rec.Buckets(len(l.buckets))
}

// Len returns the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Capacity returns the configured burst capacity.
func (l *Limiter) Capacity() int {
	return int(l.capacity)
}

// refill creates or updates the bucket for key at time now. New buckets start
// full. Existing buckets earn elapsed*rate tokens, capped at capacity; a
// non-monotonic clock reading is clamped so elapsed is never negative.
// Callers must hold l.mu.
func (l *Limiter) refill(key string, now time.Time) *bucket {
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.capacity, lastUpdated: now, lastRequested: now}
		l.buckets[key] = b
		l.rec.Buckets(len(l.buckets))
		return b
	}

	elapsed := now.Sub(b.lastUpdated).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	b.tokens = math.Min(l.capacity, b.tokens+elapsed*l.rate)
	b.lastUpdated = now
	b.lastRequested = now
	return b
}

// maybeSweep counts the call and, every cleanupEvery calls, evicts buckets
// whose last access is older than the expiration. Callers must hold l.mu.
func (l *Limiter) maybeSweep(now time.Time) {
	l.calls++
	if l.calls < l.cleanupEvery {
		return
	}
	l.calls = 0

	evicted := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastRequested) > l.expiration {
			delete(l.buckets, key)
			evicted++
		}
	}
	if evicted > 0 {
		l.rec.Evicted(evicted)
	}
	l.rec.Buckets(len(l.buckets))
}

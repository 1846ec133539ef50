package ratelimit

import "time"

// defaultCleanupEvery is the number of accessor calls between eviction sweeps.
const defaultCleanupEvery = 100

// Option configures a Limiter.
type Option func(*Limiter)

// WithCleanupEvery sets how many accessor calls pass between eviction sweeps
// (default 100). Non-positive values are ignored.
func WithCleanupEvery(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.cleanupEvery = n
		}
	}
}

// WithClock replaces the time source. Refill math depends entirely on elapsed
// time, so tests inject a fake clock here.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithRecorder injects a metrics backend. The default recorder does nothing.
func WithRecorder(rec Recorder) Option {
	return func(l *Limiter) {
		if rec != nil {
			l.rec = rec
		}
	}
}

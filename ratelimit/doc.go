// Package ratelimit implements per-key token bucket admission control.
//
// A Limiter decides, for an arbitrary set of caller-supplied keys (user IDs,
// API clients, IP addresses), whether a unit of work may proceed right now
// under a configured average rate and burst capacity:
//
//	lim, err := ratelimit.NewRateLimiter(10, 20, 10*time.Minute)
//	if err != nil { ... }
//	if lim.Allow("user_123") {
//		// admit the request
//	}
//
// # Algorithm
//
// Each key owns a bucket holding up to capacity tokens. A brand-new key
// starts with a full bucket, so a burst of up to capacity requests is
// admitted immediately. Tokens refill lazily at rate per second: there is no
// timer per key, the balance is recomputed from elapsed time on each access.
// Allow consumes one token, AllowN consumes n, and a request is denied when
// the balance is insufficient. A denied request consumes nothing.
//
// # Memory
//
// Buckets for idle keys are evicted by an amortized sweep: every cleanupEvery
// accessor calls (default 100) the limiter drops buckets that have not been
// touched for longer than the expiration. A swept key simply reappears with a
// full bucket on its next access, so eviction never causes a spurious denial.
// This bounds memory without a background goroutine to manage.
//
// # Concurrency
//
// All methods are safe for concurrent use. A single mutex guards the bucket
// map, so the check-and-debit in AllowN is atomic with respect to every other
// call; critical sections are O(1) except for the amortized sweep, which is
// linear in the number of live buckets.
//
// Denial is a decision, not a failure: Allow and AllowN report "not enough
// tokens" as false, never as an error. The only errors this package returns
// are constructor validation and a non-positive n passed to AllowN.
package ratelimit

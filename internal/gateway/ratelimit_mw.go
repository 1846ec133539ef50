package gateway

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/keygate/keygate/ratelimit"
)

// KeyFunc extracts the limiter key for a request.
type KeyFunc func(r *http.Request) string

// KeyByHeader keys requests by an API-key style header, falling back to
// "anon" when the header is absent.
func KeyByHeader(name string) KeyFunc {
	return func(r *http.Request) string {
		if v := strings.TrimSpace(r.Header.Get(name)); v != "" {
			return v
		}
		return "anon"
	}
}

// KeyByIP keys requests by the client address, without the port.
func KeyByIP() KeyFunc {
	return func(r *http.Request) string {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return r.RemoteAddr
		}
		return host
	}
}

// RateLimit admits or rejects requests through lim, keyed by keyFn.
// Rejected requests get a 429 with a JSON error body; every limited response
// carries X-RateLimit-Limit and X-RateLimit-Remaining headers.
func RateLimit(
	lim *ratelimit.Limiter,
	keyFn KeyFunc,
	skipPaths map[string]struct{},
	onLimited func(key string),
) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// allow ops endpoints without limits
			if _, ok := skipPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFn(r)
			allowed := lim.Allow(key)

			// headers for good DX; Remaining is advisory, concurrent
			// callers may already have debited it
			remaining := int(math.Floor(lim.GetTokens(key)))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(lim.Capacity()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))

			if !allowed {
				if onLimited != nil {
					onLimited(key)
				}
				writeJSON(w, http.StatusTooManyRequests, "rate_limited", "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

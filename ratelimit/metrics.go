package ratelimit

// Recorder receives limiter observations. Implementations must be safe for
// concurrent use; all methods are called with the limiter mutex held, so they
// must not call back into the Limiter.
type Recorder interface {
	// Allowed is called when a request for key is admitted.
	Allowed(key string)
	// Denied is called when a request for key is rejected.
	Denied(key string)
	// Evicted is called after a sweep with the number of buckets removed.
	Evicted(n int)
	// Buckets is called with the live bucket count whenever it changes.
	Buckets(n int)
}

// nopRecorder is the default Recorder so the hot path never checks for nil.
type nopRecorder struct{}

func (nopRecorder) Allowed(string) {}
func (nopRecorder) Denied(string)  {}
func (nopRecorder) Evicted(int)    {}
func (nopRecorder) Buckets(int)    {}

package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/keygate/keygate/internal/gateway"
)

type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AdmittedTotal   *prometheus.CounterVec
	RateLimited     *prometheus.CounterVec
	BucketsLive     prometheus.Gauge
	EvictionsTotal  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keygate_requests_total",
				Help: "Total HTTP requests processed",
			},
			[]string{"method", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keygate_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		AdmittedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keygate_admitted_total",
				Help: "Total requests admitted by the rate limiter",
			},
			[]string{"key"},
		),
		RateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keygate_rate_limited_total",
				Help: "Total requests rejected due to rate limiting",
			},
			[]string{"key"},
		),
		BucketsLive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "keygate_buckets_live",
				Help: "Number of live token buckets",
			},
		),
		EvictionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "keygate_bucket_evictions_total",
				Help: "Total idle buckets evicted by the cleanup sweep",
			},
		),
	}

	reg.MustRegister(
		m.RequestsTotal, m.RequestDuration,
		m.AdmittedTotal, m.RateLimited,
		m.BucketsLive, m.EvictionsTotal,
	)
	return m
}

// Allowed, Denied, Evicted and Buckets let Metrics plug into the limiter as
// its ratelimit.Recorder.
func (m *Metrics) Allowed(key string) { m.AdmittedTotal.WithLabelValues(key).Inc() }
func (m *Metrics) Denied(key string)  { m.RateLimited.WithLabelValues(key).Inc() }
func (m *Metrics) Evicted(n int)      { m.EvictionsTotal.Add(float64(n)) }
func (m *Metrics) Buckets(n int)      { m.BucketsLive.Set(float64(n)) }

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Middleware records per-request metrics.
func (m *Metrics) Middleware(skip map[string]struct{}) gateway.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			code := rec.status
			if code == 0 {
				code = http.StatusOK
			}

			m.RequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
			m.RequestsTotal.WithLabelValues(r.Method, strconv.Itoa(code)).Inc()
		})
	}
}

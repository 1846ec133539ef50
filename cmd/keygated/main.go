package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keygate/keygate/internal/config"
	"github.com/keygate/keygate/internal/gateway"
	"github.com/keygate/keygate/internal/obs"
	"github.com/keygate/keygate/ratelimit"
)

func main() {

	cfg, err := config.Load("./config.yaml")

	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := obs.SetupLogger(cfg.Observability.LogLevel)
	logger.Info().Msg("Setup logger")

	reg := prometheus.NewRegistry()
	metrics := obs.NewMetrics(reg)

	limiter, err := ratelimit.NewRateLimiter(
		cfg.Limits.RatePerSec,
		cfg.Limits.Burst,
		cfg.Limits.IdleExpiration(),
		ratelimit.WithCleanupEvery(cfg.Limits.CleanupEvery),
		ratelimit.WithRecorder(metrics),
	)
	if err != nil {
		log.Fatalf("create limiter: %v", err)
	}

	var keyFn gateway.KeyFunc
	switch cfg.Keying.Mode {
	case "ip":
		keyFn = gateway.KeyByIP()
	default:
		keyFn = gateway.KeyByHeader(cfg.Keying.Header)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	mux.Handle(cfg.Observability.PrometheusPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	mux.HandleFunc("/v1/work", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"admitted":true}`))
	})

	skip := map[string]struct{}{
		"/health":                        {},
		cfg.Observability.PrometheusPath: {},
	}

	handler := gateway.Chain(
		mux,
		obs.Logger(logger),
		metrics.Middleware(skip),
		gateway.RateLimit(limiter, keyFn, skip, func(key string) {
			logger.Warn().Str("key", key).Msg("rate limited")
		}),
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout(),
		IdleTimeout:       cfg.Server.IdleTimeout(),
		ReadTimeout:       cfg.Server.ReadTimeout(),
	}

	// start
	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	log.Printf("bye")
}

package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Addr           string `yaml:"addr"`
	ReadTimeoutMS  int    `yaml:"read_timeout_ms"`
	WriteTimeoutMS int    `yaml:"write_timeout_ms"`
	IdleTimeoutMS  int    `yaml:"idle_timeout_ms"`
}

type Observability struct {
	LogLevel       string `yaml:"log_level"`       // "debug","info","warn","error"
	PrometheusPath string `yaml:"prometheus_path"` // e.g. "/metrics"
}

type Limits struct {
	RatePerSec       float64 `yaml:"rate_per_sec"`       // tokens refilled per second
	Burst            int     `yaml:"burst"`              // bucket capacity
	IdleExpirationMS int     `yaml:"idle_expiration_ms"` // evict buckets idle this long
	CleanupEvery     int     `yaml:"cleanup_every"`      // calls between eviction sweeps
}

type Keying struct {
	Mode   string `yaml:"mode"`   // "header" or "ip"
	Header string `yaml:"header"` // header name when mode is "header"
}

type Root struct {
	Server        Server        `yaml:"server"`
	Observability Observability `yaml:"observability"`
	Limits        Limits        `yaml:"limits"`
	Keying        Keying        `yaml:"keying"`
}

func (s Server) ReadTimeout() time.Duration {
	if s.ReadTimeoutMS == 0 {
		return 5 * time.Second
	}
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

func (s Server) WriteTimeout() time.Duration {
	if s.WriteTimeoutMS == 0 {
		return 10 * time.Second
	}
	return time.Duration(s.WriteTimeoutMS) * time.Millisecond
}

func (s Server) IdleTimeout() time.Duration {
	if s.IdleTimeoutMS == 0 {
		return 60 * time.Second
	}
	return time.Duration(s.IdleTimeoutMS) * time.Millisecond
}

func (l Limits) IdleExpiration() time.Duration {
	if l.IdleExpirationMS == 0 {
		return 10 * time.Minute
	}
	return time.Duration(l.IdleExpirationMS) * time.Millisecond
}

func Load(path string) (*Root, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Root
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	if cfg.Observability.PrometheusPath == "" {
		cfg.Observability.PrometheusPath = "/metrics"
	}
	if cfg.Limits.RatePerSec <= 0 {
		cfg.Limits.RatePerSec = 1
	}
	if cfg.Limits.Burst <= 0 {
		cfg.Limits.Burst = 30
	}
	if cfg.Limits.CleanupEvery <= 0 {
		cfg.Limits.CleanupEvery = 100
	}
	if cfg.Keying.Mode == "" {
		cfg.Keying.Mode = "header"
	}
	if cfg.Keying.Header == "" {
		cfg.Keying.Header = "X-API-Key"
	}

	return &cfg, nil
}

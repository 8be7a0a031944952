// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and MATCHDAY_ env vars over the defaults.
// - Errors wrap ErrInvalidConfig or ErrLoadConfig so callers can errors.Is them.
package config

import (
	"fmt"
	"regexp"
	"runtime"
	"time"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory match request queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of simulation workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many request ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxTableLimit caps GET /competitions/{id}/standings?limit.
	MaxTableLimit int `koanf:"max_table_limit"`

	// Store selects the repository: memory or postgres.
	Store string `koanf:"store"`

	// PostgresDSN is required when Store is postgres.
	PostgresDSN string `koanf:"postgres_dsn"`

	// Seed makes simulations reproducible. Zero seeds from the clock.
	Seed int64 `koanf:"seed"`

	// SnapshotIntervalMS batches standings snapshots in the memory store.
	// Zero publishes after every fold.
	SnapshotIntervalMS int `koanf:"snapshot_interval_ms"`

	// MetricsEnabled switches metric recording. Collectors stay registered.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsNamespace, MetricsSubsystem and MetricsPrefix build metric names
	// as namespace_subsystem_prefixname.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
	MetricsPrefix    string `koanf:"metrics_prefix"`

	// MetricsRefreshMS sets how often runtime and service gauges are refreshed.
	MetricsRefreshMS int `koanf:"metrics_refresh_ms"`

	// MetricsBuckets overrides the latency histogram buckets. Must increase.
	MetricsBuckets []float64 `koanf:"metrics_buckets"`

	// MetricsLabels are constant labels added to every metric.
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		LogFormat:     "text",
		Addr:          ":9080",
		QueueSize:     10_000,
		WorkerCount:   runtime.NumCPU() * 2,
		DedupeSize:    50_000,
		MaxTableLimit: 100,
		Store:         StoreMemory,

		MetricsEnabled:   true,
		MetricsNamespace: "matchday",
		MetricsSubsystem: "engine",
		MetricsRefreshMS: 10_000,
	}
}

// SnapshotInterval returns SnapshotIntervalMS as a duration.
func (c *Config) SnapshotInterval() time.Duration {
	return time.Duration(c.SnapshotIntervalMS) * time.Millisecond
}

// MetricsRefreshInterval returns MetricsRefreshMS as a duration.
func (c *Config) MetricsRefreshInterval() time.Duration {
	return time.Duration(c.MetricsRefreshMS) * time.Millisecond
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("addr must not be empty: %w", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("queue_size %d: %w", c.QueueSize, ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("worker_count %d: %w", c.WorkerCount, ErrInvalidConfig)
	case c.DedupeSize <= 0:
		return fmt.Errorf("dedupe_size %d: %w", c.DedupeSize, ErrInvalidConfig)
	case c.MaxTableLimit <= 0:
		return fmt.Errorf("max_table_limit %d: %w", c.MaxTableLimit, ErrInvalidConfig)
	case c.SnapshotIntervalMS < 0:
		return fmt.Errorf("snapshot_interval_ms %d: %w", c.SnapshotIntervalMS, ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("log_format %q: %w", c.LogFormat, ErrInvalidConfig)
	case c.MetricsRefreshMS <= 0:
		return fmt.Errorf("metrics_refresh_ms %d: %w", c.MetricsRefreshMS, ErrInvalidConfig)
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres_dsn is required for the postgres store: %w", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("store %q: %w", c.Store, ErrInvalidConfig)
	}
	return nil
}

// validateMetrics rejects names and buckets Prometheus would panic on.
func (c *Config) validateMetrics() error {
	for key, v := range map[string]string{
		"metrics_namespace": c.MetricsNamespace,
		"metrics_subsystem": c.MetricsSubsystem,
		"metrics_prefix":    c.MetricsPrefix,
	} {
		if v != "" && !metricName.MatchString(v) {
			return fmt.Errorf("%s %q: %w", key, v, ErrInvalidConfig)
		}
	}
	for name := range c.MetricsLabels {
		if !metricName.MatchString(name) {
			return fmt.Errorf("metrics_labels key %q: %w", name, ErrInvalidConfig)
		}
	}
	for i := 1; i < len(c.MetricsBuckets); i++ {
		if c.MetricsBuckets[i] <= c.MetricsBuckets[i-1] {
			return fmt.Errorf("metrics_buckets %v must increase: %w", c.MetricsBuckets, ErrInvalidConfig)
		}
	}
	return nil
}

package repository

import (
	"time"

	"github.com/okian/matchday/pkg/metrics"
)

// Option applies a configuration option to a MemoryStore.
type Option func(*MemoryStore)

// WithSnapshotInterval switches snapshot publishing from every fold to a
// periodic rebuild of competitions changed since the last tick.
func WithSnapshotInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.snapshotInterval = interval
		}
	}
}

// WithMetrics sets the metrics manager. Defaults to the process-wide one.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *MemoryStore) {
		if m != nil {
			s.metrics = m
		}
	}
}

// PostgresOption applies a configuration option to a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithPostgresMetrics sets the metrics manager for a PostgresStore.
func WithPostgresMetrics(m *metrics.Manager) PostgresOption {
	return func(s *PostgresStore) {
		if m != nil {
			s.metrics = m
		}
	}
}

package worker

import (
	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"
)

// Option applies a configuration option to an InMemoryWorker or Pool.
type Option func(*settings)

type settings struct {
	name    string
	logger  logger.Logger
	metrics *metrics.Manager
	hook    Hook
}

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics manager. Defaults to the process-wide one.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *settings) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithHook registers a callback invoked after every processed request.
func WithHook(h Hook) Option {
	return func(s *settings) {
		s.hook = h
	}
}

package service

import (
	"time"

	"github.com/okian/matchday/internal/adapters/repository"
	"github.com/okian/matchday/internal/domain/strength"
	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of waiting match requests.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many request ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore supplies the repository. The caller keeps ownership and closes it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSnapshotInterval is passed to the default in-memory store.
func WithSnapshotInterval(interval time.Duration) Option {
	return func(s *Service) {
		s.snapshotInterval = interval
	}
}

// WithSeed makes the simulator replay the same sequence of draws.
// Zero keeps clock seeding.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithEvaluator replaces the strength evaluator.
func WithEvaluator(e strength.Evaluator) Option {
	return func(s *Service) {
		if e != nil {
			s.evaluator = e
		}
	}
}

// WithMetrics sets the metrics manager. Defaults to the process-wide one.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithIDGenerator sets how match ids are minted for requests without one.
func WithIDGenerator(f func() string) Option {
	return func(s *Service) {
		if f != nil {
			s.newID = f
		}
	}
}

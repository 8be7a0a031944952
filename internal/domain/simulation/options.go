package simulation

import (
	"math/rand"
	"time"
)

// Option applies a configuration option to the Simulator.
type Option func(*Simulator)

// WithSeed makes the simulator deterministic for the given seed.
func WithSeed(seed int64) Option {
	return func(s *Simulator) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // simulation, not security
	}
}

// WithRand injects a random source. The simulator takes ownership of r.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithIDGenerator sets the function used to mint match ids when the input has none.
func WithIDGenerator(fn func() string) Option {
	return func(s *Simulator) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock sets the time source stamped on results.
func WithClock(fn func() time.Time) Option {
	return func(s *Simulator) {
		if fn != nil {
			s.now = fn
		}
	}
}

// Package worker plays queued match requests on a pool of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/matchday/internal/adapters/mq/queue"
	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2
	poolShutdownTimeout     = 30 * time.Second
)

// Player plays one match request to completion: load, evaluate, simulate, record.
type Player interface {
	Play(ctx context.Context, req model.MatchRequest) (model.MatchResult, error)
}

// PlayerFunc adapts a function to Player.
type PlayerFunc func(ctx context.Context, req model.MatchRequest) (model.MatchResult, error)

func (f PlayerFunc) Play(ctx context.Context, req model.MatchRequest) (model.MatchResult, error) {
	return f(ctx, req)
}

// Hook observes the outcome of a processed request.
type Hook func(req model.MatchRequest, res model.MatchResult, err error)

// Queue defines how workers receive requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Request
}

// InMemoryWorker drains a queue and hands each request to a Player.
type InMemoryWorker struct {
	queue  Queue
	player Player
	cfg    settings

	processed atomic.Int64
	done      chan struct{}
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, p Player, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:  q,
		player: p,
		cfg:    defaults("worker"),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(&w.cfg)
	}
	w.cfg.logger = w.cfg.logger.Named(w.cfg.name)
	return w
}

// Run processes requests until the queue is drained and closed or ctx is
// cancelled.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			w.cfg.metrics.RecordQueueDequeue()
			if err := w.process(ctx, req); err != nil {
				w.cfg.logger.Error(ctx, "match request failed",
					logger.String("match_id", req.ID),
					logger.String("competition_id", req.CompetitionID),
					logger.Error(err),
				)
			}
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Processed returns the number of requests handled, successful or not.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

func (w *InMemoryWorker) process(ctx context.Context, req model.MatchRequest) error {
	start := time.Now()
	res, err := w.player.Play(ctx, req)
	w.cfg.metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	w.processed.Add(1)

	if w.cfg.hook != nil {
		w.cfg.hook(req, res, err)
	}
	if err != nil {
		w.cfg.metrics.RecordWorkerError("play_error")
		return fmt.Errorf("play %s: %w", req.ID, err)
	}

	w.cfg.logger.Debug(ctx, "match played",
		logger.String("match_id", res.ID),
		logger.Int("home_goals", res.HomeGoals),
		logger.Int("away_goals", res.AwayGoals),
	)
	return nil
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	cfg     settings

	shutdown chan struct{}
	lastRate time.Time
	lastSeen int64
}

// NewPool creates a pool. A non-positive workerCount uses twice the CPU count.
func NewPool(workerCount int, q Queue, p Player, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		cfg:      defaults("worker-pool"),
		shutdown: make(chan struct{}),
		lastRate: time.Now(),
	}
	for _, opt := range opts {
		opt(&pool.cfg)
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, p,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(pool.cfg.logger),
			WithMetrics(pool.cfg.metrics),
			WithHook(pool.cfg.hook),
		)
	}
	pool.cfg.logger = pool.cfg.logger.Named(pool.cfg.name)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the total handled by every worker.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Start launches every worker and the throughput gauge updater.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.cfg.metrics.UpdateWorkerActiveCount(len(p.workers))
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateRate()
		}
	}
}

func (p *Pool) updateRate() {
	now := time.Now()
	total := p.Processed()
	if secs := now.Sub(p.lastRate).Seconds(); secs > 0 {
		p.cfg.metrics.UpdateWorkerMessagesPerSecond(float64(total-p.lastSeen) / secs)
	}
	p.lastRate = now
	p.lastSeen = total
}

// Shutdown closes the queue, lets workers drain what is buffered and waits
// for them up to ctx or the pool timeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.cfg.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.cfg.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker %d: %w", i, shutdownCtx.Err())
		}
	}
	p.cfg.metrics.UpdateWorkerActiveCount(0)
	return nil
}

func defaults(name string) settings {
	return settings{
		name:    name,
		logger:  logger.Get(),
		metrics: metrics.Default(),
	}
}

// Package queue buffers match requests between submission and the worker pool.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Request is the payload flowing through the queue.
type Request = model.MatchRequest

// Queue provides non-blocking enqueue and channel-based dequeue.
type Queue interface {
	// Enqueue adds a request. It never blocks; a full or closed queue
	// returns ErrFull or ErrClosed.
	Enqueue(ctx context.Context, r Request) error

	// Dequeue returns the receive side of the queue. It is closed after
	// Close once every buffered request has been received.
	Dequeue(ctx context.Context) <-chan Request

	Len(ctx context.Context) int
	Capacity() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	requests chan Request
	capacity int
	metrics  *metrics.Manager

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded FIFO queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		metrics:  metrics.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.requests = make(chan Request, q.capacity)

	q.metrics.UpdateQueueCapacity(q.capacity)
	q.metrics.UpdateQueueDepth(0, q.capacity)
	return q
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, r Request) error {
	start := time.Now()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.metrics.RecordQueueEnqueueError("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		q.metrics.RecordQueueEnqueueError("context_cancelled")
		return err
	}

	select {
	case q.requests <- r:
		q.metrics.RecordQueueEnqueue(float64(time.Since(start).Microseconds()) / 1000)
		q.metrics.UpdateQueueDepth(len(q.requests), q.capacity)
		return nil
	default:
		q.metrics.RecordQueueEnqueueError("queue_full")
		return ErrFull
	}
}

func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Request {
	return q.requests
}

// Len returns the number of waiting requests and refreshes the depth gauges.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.requests)
	q.metrics.UpdateQueueDepth(size, q.capacity)
	return size
}

func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops new enqueues. Buffered requests remain readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.requests)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestQueue(capacity int) *InMemoryQueue {
	m := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
	return NewInMemoryQueue(WithCapacity(capacity), WithMetrics(m))
}

func request(id string) model.MatchRequest {
	return model.MatchRequest{ID: id, CompetitionID: "league", HomeClubID: "home", AwayClubID: "away"}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := newTestQueue(2)
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if c := q.Capacity(); c != 2 {
		t.Errorf("expected capacity 2, got %d", c)
	}

	if err := q.Enqueue(ctx, request("m1")); err != nil {
		t.Fatalf("expected enqueue to succeed: %v", err)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	r := <-q.Dequeue(ctx)
	if r.ID != "m1" {
		t.Errorf("expected m1, got %v", r.ID)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := newTestQueue(2)
	ctx := context.Background()

	for _, id := range []string{"m1", "m2"} {
		if err := q.Enqueue(ctx, request(id)); err != nil {
			t.Fatalf("expected enqueue of %s to succeed: %v", id, err)
		}
	}
	if err := q.Enqueue(ctx, request("m3")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_FIFO(t *testing.T) {
	q := newTestQueue(10)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := q.Enqueue(ctx, request(fmt.Sprintf("m%d", i))); err != nil {
			t.Fatal(err)
		}
	}
	out := q.Dequeue(ctx)
	for i := 0; i < 5; i++ {
		if r := <-out; r.ID != fmt.Sprintf("m%d", i) {
			t.Errorf("position %d: got %s", i, r.ID)
		}
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := newTestQueue(1000)
	ctx := context.Background()
	const producers = 10
	const perProducer = 100

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				if err := q.Enqueue(ctx, request(fmt.Sprintf("m-%d-%d", p, j))); err != nil {
					t.Errorf("enqueue failed: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	if err := q.Close(); err != nil {
		t.Fatal(err)
	}
	seen := 0
	for range q.Dequeue(ctx) {
		seen++
	}
	if seen != producers*perProducer {
		t.Errorf("expected %d requests, got %d", producers*perProducer, seen)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := newTestQueue(4)
	ctx := context.Background()

	if err := q.Enqueue(ctx, request("m1")); err != nil {
		t.Fatal(err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if err := q.Enqueue(ctx, request("m2")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	r, ok := <-q.Dequeue(ctx)
	if !ok || r.ID != "m1" {
		t.Errorf("buffered request should drain after close, got %v %v", r.ID, ok)
	}
	if _, ok := <-q.Dequeue(ctx); ok {
		t.Error("expected channel closed after drain")
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := newTestQueue(4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, request("m1")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if l := q.Len(context.Background()); l != 0 {
		t.Errorf("expected empty queue, got %d", l)
	}
}

// Package dedupe tracks match request ids so a request is played at most once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// DefaultMaxSize bounds the number of remembered ids when no option is given.
const DefaultMaxSize = 50000

// Deduper records seen request ids.
type Deduper interface {
	// SeenAndRecord reports whether id was already seen and records it if not.
	SeenAndRecord(ctx context.Context, id string) bool

	// Seen reports whether id is recorded without recording it.
	Seen(ctx context.Context, id string) bool

	// Unrecord forgets id so a request that never reached the queue can be
	// submitted again.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// fifoDeduper keeps ids in arrival order and evicts the oldest once full.
// A non-positive maxSize disables eviction.
type fifoDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front is oldest
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a deduper with FIFO eviction.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &fifoDeduper{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *fifoDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.evictOldest()
	}
	d.seen[id] = d.order.PushBack(id)
	d.size.Add(1)
	return false
}

func (d *fifoDeduper) Seen(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[id]
	return ok
}

func (d *fifoDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[id]; ok {
		d.order.Remove(el)
		delete(d.seen, id)
		d.size.Add(-1)
	}
}

func (d *fifoDeduper) Size() int64 {
	return d.size.Load()
}

// must be called with d.mu held
func (d *fifoDeduper) evictOldest() {
	el := d.order.Front()
	if el == nil {
		return
	}
	d.order.Remove(el)
	delete(d.seen, el.Value.(string))
	d.size.Add(-1)
}

package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/standings"
	"github.com/okian/matchday/pkg/metrics"
)

const storeLabel = "memory"

// Snapshot is an immutable ranked view of one competition.
type Snapshot struct {
	Rows       []model.StandingsRow
	PositionOf map[string]int // club id -> index into Rows
	Version    int64
}

type competition struct {
	mu       sync.Mutex // serializes folds
	table    standings.Table
	version  int64
	dirty    bool
	snapshot atomic.Pointer[Snapshot]
}

// MemoryStore keeps everything in process. Folds are serialized per
// competition; readers use the last published snapshot without locking.
type MemoryStore struct {
	mu           sync.RWMutex
	clubs        map[string]model.Club
	results      map[string]model.MatchResult
	competitions map[string]*competition

	snapshotInterval time.Duration
	metrics          *metrics.Manager

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewMemoryStore creates an empty store. With a snapshot interval set it
// starts a background publisher that stops on ctx or Close.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		clubs:        make(map[string]model.Club),
		results:      make(map[string]model.MatchResult),
		competitions: make(map[string]*competition),
		metrics:      metrics.Default(),
		stopChan:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.snapshotInterval > 0 {
		s.startPeriodicSnapshots(ctx)
	}
	return s
}

func (s *MemoryStore) startPeriodicSnapshots(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.snapshotInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.publishDirty()
			}
		}
	}()
}

func (s *MemoryStore) publishDirty() {
	s.mu.RLock()
	comps := make([]*competition, 0, len(s.competitions))
	for _, c := range s.competitions {
		comps = append(comps, c)
	}
	s.mu.RUnlock()

	for _, c := range comps {
		c.mu.Lock()
		if c.dirty {
			s.publish(c)
		}
		c.mu.Unlock()
	}
}

// publish must be called with c.mu held.
func (s *MemoryStore) publish(c *competition) {
	start := time.Now()
	rows := c.table.Rank()
	pos := make(map[string]int, len(rows))
	for i, r := range rows {
		pos[r.ClubID] = i
	}
	c.snapshot.Store(&Snapshot{Rows: rows, PositionOf: pos, Version: c.version})
	c.dirty = false
	s.metrics.RecordSnapshot(time.Since(start))
}

// Close stops the background publisher, if any.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) SaveClub(_ context.Context, club model.Club) error {
	if club.ID == "" {
		return fmt.Errorf("club without id: %w", ErrInvalidClub)
	}
	start := time.Now()
	s.mu.Lock()
	s.clubs[club.ID] = club.Clone()
	n := len(s.clubs)
	s.mu.Unlock()

	s.metrics.UpdateClubsTotal(n)
	s.metrics.RecordRepositoryUpdateLatency(storeLabel, msSince(start))
	return nil
}

func (s *MemoryStore) Club(_ context.Context, id string) (model.Club, error) {
	s.mu.RLock()
	c, ok := s.clubs[id]
	s.mu.RUnlock()
	if !ok {
		return model.Club{}, fmt.Errorf("club %s: %w", id, ErrNotFound)
	}
	return c.Clone(), nil
}

func (s *MemoryStore) RecordResult(_ context.Context, result model.MatchResult) error {
	start := time.Now()
	defer func() { s.metrics.RecordRepositoryUpdateLatency(storeLabel, msSince(start)) }()

	if result.ID == "" {
		return fmt.Errorf("result without id: %w", ErrInvalidResult)
	}
	if result.Friendly() {
		return s.storeResult(result)
	}
	// reject malformed results before a competition entry is created
	if _, err := (standings.Table{}).Fold(result); err != nil {
		return err
	}

	c := s.competition(result.CompetitionID)
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := c.table.Fold(result)
	if err != nil {
		return err
	}
	if err := s.storeResult(result); err != nil {
		return err
	}
	c.table = next
	c.version++
	c.dirty = true
	if s.snapshotInterval == 0 {
		s.publish(c)
	}
	s.metrics.RecordStandingsFold()
	return nil
}

// storeResult records result unless its id is taken.
func (s *MemoryStore) storeResult(result model.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[result.ID]; ok {
		s.metrics.RecordResultDuplicate()
		return fmt.Errorf("match %s: %w", result.ID, ErrDuplicateResult)
	}
	result.Events = append([]model.MatchEvent(nil), result.Events...)
	s.results[result.ID] = result
	s.metrics.RecordResultPersisted()
	return nil
}

// competition returns the entry for id, creating it on first use.
func (s *MemoryStore) competition(id string) *competition {
	s.mu.RLock()
	c, ok := s.competitions[id]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.competitions[id]; ok {
		return c
	}
	c = &competition{}
	c.snapshot.Store(&Snapshot{PositionOf: map[string]int{}})
	s.competitions[id] = c
	s.metrics.UpdateCompetitionsTotal(len(s.competitions))
	return c
}

func (s *MemoryStore) Result(_ context.Context, id string) (model.MatchResult, error) {
	s.mu.RLock()
	r, ok := s.results[id]
	s.mu.RUnlock()
	if !ok {
		return model.MatchResult{}, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	r.Events = append([]model.MatchEvent(nil), r.Events...)
	return r, nil
}

// Snapshot returns the last published view of a competition.
func (s *MemoryStore) Snapshot(competitionID string) (*Snapshot, bool) {
	s.mu.RLock()
	c, ok := s.competitions[competitionID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return c.snapshot.Load(), true
}

func (s *MemoryStore) Standings(_ context.Context, competitionID string, limit int) ([]model.StandingsRow, error) {
	start := time.Now()
	defer func() { s.metrics.RecordRepositoryQueryLatency(storeLabel, msSince(start)) }()

	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	snap, ok := s.Snapshot(competitionID)
	if !ok {
		return nil, fmt.Errorf("competition %s: %w", competitionID, ErrNotFound)
	}
	return page(snap.Rows, limit)
}

func (s *MemoryStore) StandingOf(_ context.Context, competitionID, clubID string) (model.StandingsRow, error) {
	snap, ok := s.Snapshot(competitionID)
	if !ok {
		return model.StandingsRow{}, fmt.Errorf("competition %s: %w", competitionID, ErrNotFound)
	}
	i, ok := snap.PositionOf[clubID]
	if !ok {
		return model.StandingsRow{}, fmt.Errorf("club %s in %s: %w", clubID, competitionID, ErrNotFound)
	}
	return snap.Rows[i], nil
}

func (s *MemoryStore) Competitions(_ context.Context) ([]string, error) {
	s.mu.RLock()
	out := make([]string, 0, len(s.competitions))
	for id := range s.competitions {
		out = append(out, id)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{Clubs: len(s.clubs), Results: len(s.results), Competitions: len(s.competitions)}, nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}

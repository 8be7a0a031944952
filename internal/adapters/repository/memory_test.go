package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/standings"
	"github.com/okian/matchday/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestStore(t *testing.T, opts ...Option) *MemoryStore {
	t.Helper()
	m := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
	s := NewMemoryStore(context.Background(), append([]Option{WithMetrics(m)}, opts...)...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func result(id, comp, home, away string, hg, ag int) model.MatchResult {
	return model.MatchResult{
		ID: id, CompetitionID: comp, HomeClubID: home, AwayClubID: away,
		HomeGoals: hg, AwayGoals: ag,
		Events: []model.MatchEvent{{Minute: 10, Kind: model.Goal, Side: model.Home, Player: "P"}},
	}
}

func TestMemoryStore_Clubs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	club := model.Club{ID: "c1", Name: "Rovers", Reputation: 60, Players: []model.Player{{ID: "p1", Name: "Ace"}}}
	if err := s.SaveClub(ctx, club); err != nil {
		t.Fatalf("save: %v", err)
	}

	club.Players[0].Name = "mutated"
	got, err := s.Club(ctx, "c1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Players[0].Name != "Ace" {
		t.Errorf("stored club shares its roster with the caller: %q", got.Players[0].Name)
	}

	if _, err := s.Club(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.SaveClub(ctx, model.Club{}); !errors.Is(err, ErrInvalidClub) {
		t.Errorf("expected ErrInvalidClub, got %v", err)
	}
}

func TestMemoryStore_RecordAndRank(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, r := range []model.MatchResult{
		result("m1", "league", "A", "B", 1, 1),
		result("m2", "league", "B", "C", 2, 0),
		result("m3", "league", "C", "A", 0, 3),
	} {
		if err := s.RecordResult(ctx, r); err != nil {
			t.Fatalf("record %s: %v", r.ID, err)
		}
	}

	rows, err := s.Standings(ctx, "league", 0)
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	want := []struct {
		club   string
		points int
	}{{"A", 4}, {"B", 4}, {"C", 0}}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i, w := range want {
		if rows[i].ClubID != w.club || rows[i].Points != w.points || rows[i].Position != i+1 {
			t.Errorf("row %d = %+v, want club %s with %d points", i, rows[i], w.club, w.points)
		}
	}

	top, err := s.Standings(ctx, "league", 1)
	if err != nil || len(top) != 1 || top[0].ClubID != "A" {
		t.Errorf("limit 1 = %+v, %v", top, err)
	}
	if _, err := s.Standings(ctx, "league", -1); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
	if _, err := s.Standings(ctx, "cup", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown competition, got %v", err)
	}

	b, err := s.StandingOf(ctx, "league", "B")
	if err != nil || b.Position != 2 || b.GoalDifference != 2 {
		t.Errorf("StandingOf(B) = %+v, %v", b, err)
	}
	if _, err := s.StandingOf(ctx, "league", "Z"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown club, got %v", err)
	}

	got, err := s.Result(ctx, "m2")
	if err != nil || got.HomeGoals != 2 || len(got.Events) != 1 {
		t.Errorf("Result(m2) = %+v, %v", got, err)
	}
}

func TestMemoryStore_DuplicateResult(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.RecordResult(ctx, result("m1", "league", "A", "B", 2, 0)); err != nil {
		t.Fatal(err)
	}
	err := s.RecordResult(ctx, result("m1", "league", "A", "B", 0, 5))
	if !errors.Is(err, ErrDuplicateResult) {
		t.Fatalf("expected ErrDuplicateResult, got %v", err)
	}

	a, _ := s.StandingOf(ctx, "league", "A")
	if a.Played != 1 || a.Points != 3 {
		t.Errorf("duplicate changed standings: %+v", a)
	}
}

func TestMemoryStore_RejectsMalformed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	cases := []struct {
		name string
		r    model.MatchResult
		want error
	}{
		{"no id", result("", "league", "A", "B", 1, 0), ErrInvalidResult},
		{"same club", result("m1", "league", "A", "A", 1, 0), standings.ErrSameClub},
		{"missing club", result("m2", "league", "", "B", 1, 0), standings.ErrUnknownClub},
		{"negative score", result("m3", "league", "A", "B", -1, 0), standings.ErrInvalidScore},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := s.RecordResult(ctx, tc.r); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}

	comps, _ := s.Competitions(ctx)
	if len(comps) != 0 {
		t.Errorf("malformed results created competitions: %v", comps)
	}
	if c, _ := s.Count(ctx); c.Results != 0 {
		t.Errorf("malformed results were stored: %+v", c)
	}
}

func TestMemoryStore_FriendlyNotFolded(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i, comp := range []string{"", model.FriendlyCompetition} {
		if err := s.RecordResult(ctx, result(fmt.Sprintf("f%d", i), comp, "A", "B", 3, 0)); err != nil {
			t.Fatalf("friendly: %v", err)
		}
	}

	comps, _ := s.Competitions(ctx)
	if len(comps) != 0 {
		t.Errorf("friendly results created competitions: %v", comps)
	}
	if _, err := s.Result(ctx, "f1"); err != nil {
		t.Errorf("friendly result not stored: %v", err)
	}
	c, _ := s.Count(ctx)
	if c.Results != 2 || c.Competitions != 0 {
		t.Errorf("counts = %+v", c)
	}
}

func TestMemoryStore_ConcurrentFolds(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	const writers = 8
	const perWriter = 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				r := result(fmt.Sprintf("m-%d-%d", w, i), "league", "A", "B", i%3, 1)
				if err := s.RecordResult(ctx, r); err != nil {
					t.Errorf("record: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	rows, err := s.Standings(ctx, "league", 0)
	if err != nil {
		t.Fatal(err)
	}
	total := writers * perWriter
	for _, r := range rows {
		if r.Played != total {
			t.Errorf("%s played %d, want %d", r.ClubID, r.Played, total)
		}
		if r.Points != 3*r.Won+r.Drawn {
			t.Errorf("%s points identity broken: %+v", r.ClubID, r)
		}
	}
	if rows[0].GoalsFor != rows[1].GoalsAgainst {
		t.Errorf("goals do not balance: %+v", rows)
	}
}

func TestMemoryStore_PeriodicSnapshots(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, WithSnapshotInterval(10*time.Millisecond))

	if err := s.RecordResult(ctx, result("m1", "league", "A", "B", 1, 0)); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		rows, err := s.Standings(ctx, "league", 0)
		if err == nil && len(rows) == 2 {
			if rows[0].ClubID != "A" {
				t.Errorf("leader = %s, want A", rows[0].ClubID)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("snapshot never published: %v %v", rows, err)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

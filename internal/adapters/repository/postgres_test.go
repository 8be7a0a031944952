package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// postgresStore connects to MATCHDAY_TEST_POSTGRES_DSN or skips.
func postgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("MATCHDAY_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MATCHDAY_TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
	s, err := NewPostgresStore(ctx, dsn, WithPostgresMetrics(m))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	s := postgresStore(t)
	ctx := context.Background()
	comp := "league-" + uuid.NewString()

	club := model.Club{ID: uuid.NewString(), Name: "Rovers", Reputation: 70, Formation: "4-4-2",
		Tactic: model.Counter, Training: model.RestTraining, PreTalk: model.CalmTalk,
		Players: []model.Player{{ID: "p1", Name: "Ace", Position: model.Attacker, Starter: true}}}
	if err := s.SaveClub(ctx, club); err != nil {
		t.Fatalf("save club: %v", err)
	}
	got, err := s.Club(ctx, club.ID)
	if err != nil || got.Name != "Rovers" || len(got.Players) != 1 || !got.Players[0].Starter {
		t.Fatalf("club round trip = %+v, %v", got, err)
	}
	if got.Settings() != club.Settings() {
		t.Errorf("settings round trip = %+v, want %+v", got.Settings(), club.Settings())
	}

	r1 := result(uuid.NewString(), comp, "A", "B", 1, 1)
	r1.PlayedAt = time.Now().UTC().Truncate(time.Microsecond)
	r2 := result(uuid.NewString(), comp, "B", "C", 2, 0)
	r2.PlayedAt = r1.PlayedAt
	for _, r := range []model.MatchResult{r1, r2} {
		if err := s.RecordResult(ctx, r); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := s.RecordResult(ctx, r1); !errors.Is(err, ErrDuplicateResult) {
		t.Errorf("expected ErrDuplicateResult, got %v", err)
	}

	rows, err := s.Standings(ctx, comp, 0)
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if len(rows) != 3 || rows[0].ClubID != "B" || rows[0].Points != 4 {
		t.Errorf("standings = %+v", rows)
	}

	a, err := s.StandingOf(ctx, comp, "A")
	if err != nil || a.Played != 1 || a.Drawn != 1 {
		t.Errorf("StandingOf(A) = %+v, %v", a, err)
	}

	stored, err := s.Result(ctx, r2.ID)
	if err != nil || stored.HomeGoals != 2 || len(stored.Events) != 1 || !stored.PlayedAt.Equal(r2.PlayedAt) {
		t.Errorf("Result = %+v, %v", stored, err)
	}
	if _, err := s.Result(ctx, "missing-"+uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

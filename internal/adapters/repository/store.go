// Package repository persists clubs and match results and serves the
// standings folded from them.
package repository

import (
	"context"

	"github.com/okian/matchday/internal/domain/model"
)

// Counts summarizes what a store holds.
type Counts struct {
	Clubs        int `json:"clubs"`
	Results      int `json:"results"`
	Competitions int `json:"competitions"`
}

// Store provides read/write access to clubs, results and standings.
type Store interface {
	// SaveClub inserts or replaces a club.
	SaveClub(ctx context.Context, club model.Club) error

	// Club returns ErrNotFound if the club is unknown.
	Club(ctx context.Context, id string) (model.Club, error)

	// RecordResult stores result and folds it into its competition's
	// standings as one step. A match id that was already recorded returns
	// ErrDuplicateResult and leaves the standings untouched. Friendly
	// results are stored but never folded.
	RecordResult(ctx context.Context, result model.MatchResult) error

	// Result returns ErrNotFound if no result has the id.
	Result(ctx context.Context, id string) (model.MatchResult, error)

	// Standings returns the ranked table. A limit of 0 returns every row.
	Standings(ctx context.Context, competitionID string, limit int) ([]model.StandingsRow, error)

	// StandingOf returns one club's ranked row.
	StandingOf(ctx context.Context, competitionID, clubID string) (model.StandingsRow, error)

	// Competitions lists competitions with at least one folded result.
	Competitions(ctx context.Context) ([]string, error)

	Count(ctx context.Context) (Counts, error)

	Close() error
}

// page applies limit to ranked rows.
func page(rows []model.StandingsRow, limit int) ([]model.StandingsRow, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	if limit == 0 || limit > len(rows) {
		limit = len(rows)
	}
	out := make([]model.StandingsRow, limit)
	copy(out, rows[:limit])
	return out, nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

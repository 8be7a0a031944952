// Package seasonrun drives a running matchday server through a full season
// over HTTP and checks the resulting table.
package seasonrun

import (
	"time"

	"github.com/okian/matchday/internal/domain/model"
)

// Config holds configuration for a season run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Clubs        int           // Number of generated clubs
	Competition  string        // Competition id; generated when empty
	Workers      int           // Concurrent club registrations
	Timeout      time.Duration // HTTP request timeout
	WaitTimeout  time.Duration // How long to wait for the season to finish
	PollInterval time.Duration // Delay between standings polls
	OutputFile   string        // Where the final table is written; skipped when empty
	Verbose      bool          // Log every poll
}

// Season mirrors the scheduling response.
type Season struct {
	CompetitionID string               `json:"competition_id"`
	Rounds        int                  `json:"rounds"`
	Fixtures      []model.MatchRequest `json:"fixtures"`
	Queued        int                  `json:"queued"`
	Skipped       int                  `json:"skipped"`
}

// Table mirrors the standings response.
type Table struct {
	CompetitionID string               `json:"competition_id"`
	Rows          []model.StandingsRow `json:"rows"`
}

// Report is what a run produces.
type Report struct {
	CompetitionID string               `json:"competition_id"`
	ClubIDs       []string             `json:"club_ids"`
	Rounds        int                  `json:"rounds"`
	Fixtures      int                  `json:"fixtures"`
	Goals         int                  `json:"goals"`
	Rows          []model.StandingsRow `json:"rows"`
	Duration      time.Duration        `json:"duration"`
}

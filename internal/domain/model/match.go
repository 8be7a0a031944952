package model

import "time"

// FriendlyCompetition marks matches that never touch a standings table.
const FriendlyCompetition = "friendly"

// Side identifies the home or away team of a match.
type Side string

// Match sides.
const (
	Home Side = "home"
	Away Side = "away"
)

// EventKind classifies a match event.
type EventKind string

// Event kinds produced by the simulator.
const (
	Goal EventKind = "goal"
	Card EventKind = "card"
)

// MatchEvent is one in-match occurrence. Minute is 1-90 inclusive.
type MatchEvent struct {
	Minute      int       `json:"minute"`
	Kind        EventKind `json:"type"`
	Side        Side      `json:"team"`
	Player      string    `json:"player"`
	Description string    `json:"description"`
}

// MatchRequest asks for a fixture to be simulated.
type MatchRequest struct {
	ID            string `json:"id"`             // idempotency key
	CompetitionID string `json:"competition_id"` // empty means friendly
	Round         int    `json:"round"`
	HomeClubID    string `json:"home_club_id"`
	AwayClubID    string `json:"away_club_id"`
}

// Friendly reports whether the request belongs to no competition.
func (r MatchRequest) Friendly() bool {
	return r.CompetitionID == "" || r.CompetitionID == FriendlyCompetition
}

// MatchResult is a completed match. It is never mutated after creation.
type MatchResult struct {
	ID            string       `json:"id"`
	CompetitionID string       `json:"competition_id"`
	Round         int          `json:"round"`
	HomeClubID    string       `json:"home_club_id"`
	AwayClubID    string       `json:"away_club_id"`
	HomeGoals     int          `json:"home_goals"`
	AwayGoals     int          `json:"away_goals"`
	Events        []MatchEvent `json:"events"`
	PlayedAt      time.Time    `json:"played_at"`
}

// Friendly reports whether the result belongs to no competition.
func (r MatchResult) Friendly() bool {
	return r.CompetitionID == "" || r.CompetitionID == FriendlyCompetition
}

// GoalsFor returns the goals scored by side.
func (r MatchResult) GoalsFor(side Side) int {
	if side == Home {
		return r.HomeGoals
	}
	return r.AwayGoals
}

package model

// StandingsRow is one club's accumulated record in a competition.
// Position is derived by ranking and is not authoritative state.
type StandingsRow struct {
	Position       int    `json:"position"`
	ClubID         string `json:"club_id"`
	Played         int    `json:"played"`
	Won            int    `json:"won"`
	Drawn          int    `json:"drawn"`
	Lost           int    `json:"lost"`
	GoalsFor       int    `json:"goals_for"`
	GoalsAgainst   int    `json:"goals_against"`
	GoalDifference int    `json:"goal_difference"`
	Points         int    `json:"points"`
}

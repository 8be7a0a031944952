package seasonrun

import (
	"fmt"

	"github.com/okian/matchday/internal/domain/model"
)

// verifyTable checks a finished double round robin table for n clubs.
func verifyTable(rows []model.StandingsRow, clubIDs []string) error {
	n := len(clubIDs)
	if len(rows) != n {
		return fmt.Errorf("%w: %d rows for %d clubs", ErrInconsistentTable, len(rows), n)
	}

	known := make(map[string]bool, n)
	for _, id := range clubIDs {
		known[id] = false
	}

	var goalsFor, goalsAgainst, wins, losses int
	for i, row := range rows {
		seen, ok := known[row.ClubID]
		switch {
		case !ok:
			return fmt.Errorf("%w: unknown club %s", ErrInconsistentTable, row.ClubID)
		case seen:
			return fmt.Errorf("%w: club %s listed twice", ErrInconsistentTable, row.ClubID)
		}
		known[row.ClubID] = true

		if err := verifyRow(i, row, 2*(n-1)); err != nil {
			return err
		}
		if i > 0 && rankedAbove(row, rows[i-1]) {
			return fmt.Errorf("%w: %s at %d outranks %s at %d",
				ErrInconsistentTable, row.ClubID, row.Position, rows[i-1].ClubID, rows[i-1].Position)
		}

		goalsFor += row.GoalsFor
		goalsAgainst += row.GoalsAgainst
		wins += row.Won
		losses += row.Lost
	}

	if goalsFor != goalsAgainst {
		return fmt.Errorf("%w: %d goals for but %d against", ErrInconsistentTable, goalsFor, goalsAgainst)
	}
	if wins != losses {
		return fmt.Errorf("%w: %d wins but %d losses", ErrInconsistentTable, wins, losses)
	}
	return nil
}

func verifyRow(i int, row model.StandingsRow, played int) error {
	switch {
	case row.Position != i+1:
		return fmt.Errorf("%w: row %d has position %d", ErrInconsistentTable, i, row.Position)
	case row.Played != played:
		return fmt.Errorf("%w: %s played %d, want %d", ErrInconsistentTable, row.ClubID, row.Played, played)
	case row.Won+row.Drawn+row.Lost != row.Played:
		return fmt.Errorf("%w: %s results do not add up to %d", ErrInconsistentTable, row.ClubID, row.Played)
	case row.Points != 3*row.Won+row.Drawn:
		return fmt.Errorf("%w: %s has %d points", ErrInconsistentTable, row.ClubID, row.Points)
	case row.GoalDifference != row.GoalsFor-row.GoalsAgainst:
		return fmt.Errorf("%w: %s goal difference %d", ErrInconsistentTable, row.ClubID, row.GoalDifference)
	}
	return nil
}

// rankedAbove reports whether a beats b on points, goal difference and goals for.
func rankedAbove(a, b model.StandingsRow) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if a.GoalDifference != b.GoalDifference {
		return a.GoalDifference > b.GoalDifference
	}
	return a.GoalsFor > b.GoalsFor
}

// matchesPlayed counts folded matches from a table.
func matchesPlayed(rows []model.StandingsRow) int {
	total := 0
	for _, row := range rows {
		total += row.Played
	}
	return total / 2
}

// Package standings folds match results into a league table and ranks it.
//
// Ordering: points DESC, goal difference DESC, goals for DESC, then the order
// in which clubs first appeared in the competition. The last key keeps the
// ranking deterministic without inventing a tiebreak beyond the three above.
package standings

import (
	"fmt"
	"sort"

	"github.com/okian/matchday/internal/domain/model"
)

// Points awarded per outcome.
const (
	pointsWin  = 3
	pointsDraw = 1
)

// Table is an immutable standings table for one competition. The zero value
// is an empty table.
type Table struct {
	rows  map[string]model.StandingsRow
	order []string // club ids by first appearance
}

// NewTable builds a table from existing rows. Row order is taken as the
// first-appearance order; duplicate club ids keep the first occurrence.
func NewTable(rows ...model.StandingsRow) Table {
	t := Table{
		rows:  make(map[string]model.StandingsRow, len(rows)),
		order: make([]string, 0, len(rows)),
	}
	for _, r := range rows {
		if r.ClubID == "" {
			continue
		}
		if _, ok := t.rows[r.ClubID]; ok {
			continue
		}
		r.GoalDifference = r.GoalsFor - r.GoalsAgainst
		t.rows[r.ClubID] = r
		t.order = append(t.order, r.ClubID)
	}
	return t
}

// Len returns the number of clubs in the table.
func (t Table) Len() int { return len(t.order) }

// Row returns the stored row for clubID.
func (t Table) Row(clubID string) (model.StandingsRow, bool) {
	r, ok := t.rows[clubID]
	return r, ok
}

// Rows returns all rows in first-appearance order, unranked.
func (t Table) Rows() []model.StandingsRow {
	out := make([]model.StandingsRow, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

// Fold returns a new table with result applied to both clubs. On error the
// receiver is returned unchanged alongside the error.
func (t Table) Fold(result model.MatchResult) (Table, error) {
	if err := validate(result); err != nil {
		return t, err
	}

	next := t.clone(2)
	home := next.rowFor(result.HomeClubID)
	away := next.rowFor(result.AwayClubID)

	apply(&home, result.HomeGoals, result.AwayGoals)
	apply(&away, result.AwayGoals, result.HomeGoals)

	next.rows[home.ClubID] = home
	next.rows[away.ClubID] = away
	return next, nil
}

// Rank returns every row ordered for display with Position set. Stored rows
// are not modified.
func (t Table) Rank() []model.StandingsRow {
	out := t.Rows()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		return a.GoalsFor > b.GoalsFor
	})
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}

// Fold is a convenience for Table.Fold.
func Fold(t Table, result model.MatchResult) (Table, error) {
	return t.Fold(result)
}

// Rank is a convenience for Table.Rank.
func Rank(t Table) []model.StandingsRow {
	return t.Rank()
}

func validate(r model.MatchResult) error {
	switch {
	case r.HomeClubID == "" || r.AwayClubID == "":
		return fmt.Errorf("match %q: %w", r.ID, ErrUnknownClub)
	case r.HomeClubID == r.AwayClubID:
		return fmt.Errorf("match %q club %s: %w", r.ID, r.HomeClubID, ErrSameClub)
	case r.HomeGoals < 0 || r.AwayGoals < 0:
		return fmt.Errorf("match %q %d-%d: %w", r.ID, r.HomeGoals, r.AwayGoals, ErrInvalidScore)
	}
	return nil
}

// apply folds one club's side of a result into row.
func apply(row *model.StandingsRow, scored, conceded int) {
	row.Played++
	row.GoalsFor += scored
	row.GoalsAgainst += conceded
	row.GoalDifference = row.GoalsFor - row.GoalsAgainst

	switch {
	case scored > conceded:
		row.Won++
		row.Points += pointsWin
	case scored < conceded:
		row.Lost++
	default:
		row.Drawn++
		row.Points += pointsDraw
	}
}

// rowFor returns the row for clubID, registering a zero row on first sight.
func (t *Table) rowFor(clubID string) model.StandingsRow {
	if r, ok := t.rows[clubID]; ok {
		return r
	}
	r := model.StandingsRow{ClubID: clubID}
	t.rows[clubID] = r
	t.order = append(t.order, clubID)
	return r
}

func (t Table) clone(extra int) Table {
	cp := Table{
		rows:  make(map[string]model.StandingsRow, len(t.rows)+extra),
		order: make([]string, len(t.order), len(t.order)+extra),
	}
	copy(cp.order, t.order)
	for k, v := range t.rows {
		cp.rows[k] = v
	}
	return cp
}

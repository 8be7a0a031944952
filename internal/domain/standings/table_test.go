package standings_test

import (
	"errors"
	"testing"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/standings"
	. "github.com/smartystreets/goconvey/convey"
)

func result(home, away string, hg, ag int) model.MatchResult {
	return model.MatchResult{ID: home + "-" + away, CompetitionID: "league", HomeClubID: home, AwayClubID: away, HomeGoals: hg, AwayGoals: ag}
}

func mustFold(t standings.Table, results ...model.MatchResult) standings.Table {
	for _, r := range results {
		var err error
		t, err = t.Fold(r)
		So(err, ShouldBeNil)
	}
	return t
}

func TestFold(t *testing.T) {
	Convey("Given an empty table", t, func() {
		var table standings.Table

		Convey("When a 2-2 draw between new clubs is folded", func() {
			next := mustFold(table, result("C", "D", 2, 2))

			Convey("Then both rows record a draw", func() {
				want := model.StandingsRow{Played: 1, Drawn: 1, Points: 1, GoalsFor: 2, GoalsAgainst: 2}
				for _, id := range []string{"C", "D"} {
					row, ok := next.Row(id)
					So(ok, ShouldBeTrue)
					want.ClubID = id
					So(row, ShouldResemble, want)
				}
			})

			Convey("And the original table is untouched", func() {
				So(table.Len(), ShouldEqual, 0)
			})
		})

		Convey("When a 3-1 home win is folded", func() {
			next := mustFold(table, result("E", "F", 3, 1))

			Convey("Then the winner and loser rows are updated", func() {
				e, _ := next.Row("E")
				So(e, ShouldResemble, model.StandingsRow{ClubID: "E", Played: 1, Won: 1, Points: 3, GoalsFor: 3, GoalsAgainst: 1, GoalDifference: 2})
				f, _ := next.Row("F")
				So(f, ShouldResemble, model.StandingsRow{ClubID: "F", Played: 1, Lost: 1, Points: 0, GoalsFor: 1, GoalsAgainst: 3, GoalDifference: -2})
			})
		})

		Convey("When an away win is folded", func() {
			next := mustFold(table, result("G", "H", 0, 1))

			Convey("Then the away club takes the points", func() {
				g, _ := next.Row("G")
				h, _ := next.Row("H")
				So(g.Lost, ShouldEqual, 1)
				So(h.Won, ShouldEqual, 1)
				So(h.Points, ShouldEqual, 3)
			})
		})

		Convey("When any single result is folded", func() {
			for _, score := range [][2]int{{0, 0}, {1, 0}, {0, 4}, {3, 3}, {4, 1}} {
				next := mustFold(table, result("X", "Y", score[0], score[1]))
				So(next.Len(), ShouldEqual, 2)
				x, _ := next.Row("X")
				y, _ := next.Row("Y")
				So(x.Played, ShouldEqual, 1)
				So(y.Played, ShouldEqual, 1)
				So(x.Points, ShouldBeIn, 0, 1, 3)
				So(y.Points, ShouldBeIn, 0, 1, 3)
				So(x.Points+y.Points, ShouldBeIn, 2, 3)
			}
		})
	})

	Convey("Given a table with an accumulated season", t, func() {
		table := mustFold(standings.Table{},
			result("A", "B", 2, 0),
			result("B", "C", 1, 1),
			result("C", "A", 3, 2),
			result("A", "B", 0, 0),
		)

		Convey("Then every row satisfies the points and played identities", func() {
			for _, row := range table.Rows() {
				So(row.Points, ShouldEqual, 3*row.Won+row.Drawn)
				So(row.Played, ShouldEqual, row.Won+row.Drawn+row.Lost)
				So(row.GoalDifference, ShouldEqual, row.GoalsFor-row.GoalsAgainst)
			}
		})

		Convey("And rows keep first-appearance order", func() {
			rows := table.Rows()
			So(rows[0].ClubID, ShouldEqual, "A")
			So(rows[1].ClubID, ShouldEqual, "B")
			So(rows[2].ClubID, ShouldEqual, "C")
		})
	})
}

func TestFold_Malformed(t *testing.T) {
	Convey("Given a table with one result", t, func() {
		table := mustFold(standings.Table{}, result("A", "B", 1, 0))

		Convey("When the home club id is missing", func() {
			next, err := table.Fold(result("", "B", 1, 0))

			Convey("Then it is rejected and no row is created", func() {
				So(errors.Is(err, standings.ErrUnknownClub), ShouldBeTrue)
				So(next.Len(), ShouldEqual, 2)
				b, _ := next.Row("B")
				So(b.Played, ShouldEqual, 1)
			})
		})

		Convey("When a club plays itself", func() {
			_, err := table.Fold(result("A", "A", 1, 1))
			So(errors.Is(err, standings.ErrSameClub), ShouldBeTrue)
		})

		Convey("When a score is negative", func() {
			_, err := table.Fold(result("A", "C", -1, 0))

			Convey("Then neither row is touched", func() {
				So(errors.Is(err, standings.ErrInvalidScore), ShouldBeTrue)
				_, ok := table.Row("C")
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestRank(t *testing.T) {
	Convey("Given two clubs level on points", t, func() {
		table := standings.NewTable(
			model.StandingsRow{ClubID: "A", Points: 6, GoalsFor: 5, GoalsAgainst: 3},
			model.StandingsRow{ClubID: "B", Points: 6, GoalsFor: 4, GoalsAgainst: 1},
		)

		Convey("Then goal difference beats goals for", func() {
			ranked := table.Rank()
			So(ranked[0].ClubID, ShouldEqual, "B")
			So(ranked[0].Position, ShouldEqual, 1)
			So(ranked[0].GoalDifference, ShouldEqual, 3)
			So(ranked[1].ClubID, ShouldEqual, "A")
			So(ranked[1].Position, ShouldEqual, 2)
		})
	})

	Convey("Given clubs level on points and goal difference", t, func() {
		table := standings.NewTable(
			model.StandingsRow{ClubID: "A", Points: 4, GoalsFor: 2, GoalsAgainst: 1},
			model.StandingsRow{ClubID: "B", Points: 4, GoalsFor: 5, GoalsAgainst: 4},
		)

		Convey("Then goals for decides", func() {
			ranked := standings.Rank(table)
			So(ranked[0].ClubID, ShouldEqual, "B")
		})
	})

	Convey("Given clubs identical on every key", t, func() {
		table := standings.NewTable(
			model.StandingsRow{ClubID: "Z", Points: 1, GoalsFor: 1, GoalsAgainst: 1},
			model.StandingsRow{ClubID: "M", Points: 1, GoalsFor: 1, GoalsAgainst: 1},
			model.StandingsRow{ClubID: "A", Points: 1, GoalsFor: 1, GoalsAgainst: 1},
		)

		Convey("Then first-appearance order breaks the tie", func() {
			ranked := table.Rank()
			So(ranked[0].ClubID, ShouldEqual, "Z")
			So(ranked[1].ClubID, ShouldEqual, "M")
			So(ranked[2].ClubID, ShouldEqual, "A")
		})
	})

	Convey("Given a folded table", t, func() {
		table := mustFold(standings.Table{},
			result("A", "B", 1, 0),
			result("C", "D", 4, 0),
			result("B", "C", 2, 2),
		)

		Convey("Then ranking is idempotent and does not mutate stored rows", func() {
			first := table.Rank()
			second := table.Rank()
			So(second, ShouldResemble, first)
			So(first[0].ClubID, ShouldEqual, "C")
			for _, row := range table.Rows() {
				So(row.Position, ShouldEqual, 0)
			}
		})
	})

	Convey("Given an empty table", t, func() {
		Convey("Then ranking yields an empty list", func() {
			So(standings.Table{}.Rank(), ShouldBeEmpty)
		})
	})
}

func TestNewTable(t *testing.T) {
	Convey("Given rows with a duplicate and a blank club", t, func() {
		table := standings.NewTable(
			model.StandingsRow{ClubID: "A", Points: 3, GoalsFor: 2, GoalsAgainst: 0, GoalDifference: 99},
			model.StandingsRow{ClubID: ""},
			model.StandingsRow{ClubID: "A", Points: 9},
		)

		Convey("Then the first occurrence wins and goal difference is recomputed", func() {
			So(table.Len(), ShouldEqual, 1)
			a, _ := table.Row("A")
			So(a.Points, ShouldEqual, 3)
			So(a.GoalDifference, ShouldEqual, 2)
		})
	})
}

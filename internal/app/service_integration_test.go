package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/matchday/internal/adapters/repository"
	service "github.com/okian/matchday/internal/app"
	"github.com/okian/matchday/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func waitForResults(svc *service.Service, want int) int {
	deadline := time.Now().Add(10 * time.Second)
	for {
		n, _ := svc.GetStats()["results"].(int)
		if n >= want || time.Now().After(deadline) {
			return n
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestServiceIntegration_Season(t *testing.T) {
	Convey("Given a service with six clubs", t, func() {
		svc, ctx := started(t, service.WithWorkerCount(4))
		Reset(svc.Stop)

		ids := make([]string, 0, 6)
		for i := 0; i < 6; i++ {
			id := fmt.Sprintf("club-%d", i)
			ids = append(ids, id)
			So(svc.SaveClub(ctx, club(id, 50+i*8, 30+i*10)), ShouldBeNil)
		}

		Convey("When a season is scheduled", func() {
			season, err := svc.ScheduleSeason(ctx, "premier", ids)
			So(err, ShouldBeNil)
			So(season.Rounds, ShouldEqual, 10)
			So(len(season.Fixtures), ShouldEqual, 30)

			Convey("Then every fixture is played and folded", func() {
				So(waitForResults(svc, 30), ShouldEqual, 30)

				rows, err := svc.Standings(ctx, "premier", 0)
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 6)

				goalsFor, goalsAgainst, wins, losses := 0, 0, 0, 0
				for i, row := range rows {
					So(row.Position, ShouldEqual, i+1)
					So(row.Played, ShouldEqual, 10)
					So(row.Points, ShouldEqual, 3*row.Won+row.Drawn)
					So(row.Played, ShouldEqual, row.Won+row.Drawn+row.Lost)
					So(row.GoalDifference, ShouldEqual, row.GoalsFor-row.GoalsAgainst)
					if i > 0 {
						prev := rows[i-1]
						So(prev.Points, ShouldBeGreaterThanOrEqualTo, row.Points)
					}
					goalsFor += row.GoalsFor
					goalsAgainst += row.GoalsAgainst
					wins += row.Won
					losses += row.Lost
				}
				So(goalsFor, ShouldEqual, goalsAgainst)
				So(wins, ShouldEqual, losses)

				top, err := svc.Standings(ctx, "premier", 3)
				So(err, ShouldBeNil)
				So(top, ShouldResemble, rows[:3])
			})

			Convey("And scheduling it again is rejected as a duplicate", func() {
				_, err := svc.ScheduleSeason(ctx, "premier", ids)
				So(errors.Is(err, service.ErrDuplicateRequest), ShouldBeTrue)
			})
		})

		Convey("When the competition is friendly or the clubs are too few", func() {
			_, friendlyErr := svc.ScheduleSeason(ctx, model.FriendlyCompetition, ids)
			_, blankErr := svc.ScheduleSeason(ctx, "", ids)
			_, fewErr := svc.ScheduleSeason(ctx, "cup", ids[:1])
			_, unknownErr := svc.ScheduleSeason(ctx, "cup", []string{ids[0], "nobody"})

			Convey("Then nothing is scheduled", func() {
				So(errors.Is(friendlyErr, service.ErrInvalidCompetition), ShouldBeTrue)
				So(errors.Is(blankErr, service.ErrInvalidCompetition), ShouldBeTrue)
				So(errors.Is(fewErr, service.ErrInvalidCompetition), ShouldBeTrue)
				So(errors.Is(unknownErr, service.ErrUnknownClub), ShouldBeTrue)
				So(svc.GetStats()["queueLength"], ShouldEqual, 0)
			})
		})
	})
}

func TestServiceIntegration_SeasonQueueCapacity(t *testing.T) {
	Convey("Given a service whose queue cannot hold a season", t, func() {
		svc, ctx := started(t, service.WithWorkerCount(1), service.WithQueueSize(2))
		Reset(svc.Stop)

		ids := []string{"a", "b", "c", "d"}
		for i, id := range ids {
			So(svc.SaveClub(ctx, club(id, 60+i, 50)), ShouldBeNil)
		}

		Convey("When the season is scheduled", func() {
			_, err := svc.ScheduleSeason(ctx, "cup", ids)

			Convey("Then it is rejected whole and nothing is queued", func() {
				So(errors.Is(err, service.ErrQueueFull), ShouldBeTrue)
				stats := svc.GetStats()
				So(stats["dedupeEntries"], ShouldEqual, int64(0))
				So(stats["queueLength"], ShouldEqual, 0)
				time.Sleep(50 * time.Millisecond)
				So(svc.GetStats()["results"], ShouldEqual, 0)
			})
		})
	})
}

func TestServiceIntegration_SeasonResume(t *testing.T) {
	Convey("Given a store holding part of a season", t, func() {
		ids := []string{"a", "b", "c", "d"}

		first, ctx := started(t)
		for i, id := range ids {
			So(first.SaveClub(ctx, club(id, 55+i*5, 40)), ShouldBeNil)
		}
		full, err := first.ScheduleSeason(ctx, "cup", ids)
		So(err, ShouldBeNil)
		So(waitForResults(first, 12), ShouldEqual, 12)

		store := repository.NewMemoryStore(ctx)
		Reset(func() { _ = store.Close() })
		for _, id := range ids {
			c, err := first.Club(ctx, id)
			So(err, ShouldBeNil)
			So(store.SaveClub(ctx, c), ShouldBeNil)
		}
		for _, f := range full.Fixtures[:5] {
			res, err := first.Result(ctx, f.ID)
			So(err, ShouldBeNil)
			So(store.RecordResult(ctx, res), ShouldBeNil)
		}
		first.Stop()

		svc, _ := started(t, service.WithStore(store))
		Reset(svc.Stop)

		Convey("When the season is scheduled again", func() {
			season, err := svc.ScheduleSeason(ctx, "cup", ids)

			Convey("Then only the missing fixtures are queued and the season completes", func() {
				So(err, ShouldBeNil)
				So(len(season.Fixtures), ShouldEqual, 12)
				So(season.Skipped, ShouldEqual, 5)
				So(season.Queued, ShouldEqual, 7)
				So(waitForResults(svc, 12), ShouldEqual, 12)

				rows, err := svc.Standings(ctx, "cup", 0)
				So(err, ShouldBeNil)
				for _, row := range rows {
					So(row.Played, ShouldEqual, 6)
				}
				So(svc.GetStats()["failed"], ShouldEqual, int64(0))
			})

			Convey("And a complete season is a duplicate", func() {
				So(err, ShouldBeNil)
				So(waitForResults(svc, 12), ShouldEqual, 12)
				_, again := svc.ScheduleSeason(ctx, "cup", ids)
				So(errors.Is(again, service.ErrDuplicateRequest), ShouldBeTrue)
			})
		})
	})
}

func TestServiceIntegration_ExternalStore(t *testing.T) {
	Convey("Given a service backed by a caller-owned store", t, func() {
		store := repository.NewMemoryStore(context.Background())
		Reset(func() { _ = store.Close() })
		svc, ctx := started(t, service.WithStore(store))

		So(svc.SaveClub(ctx, club("north", 75, 60)), ShouldBeNil)
		So(svc.SaveClub(ctx, club("south", 65, 50)), ShouldBeNil)
		_, err := svc.Play(ctx, model.MatchRequest{ID: "derby", CompetitionID: "regional", HomeClubID: "north", AwayClubID: "south"})
		So(err, ShouldBeNil)

		Convey("When the service stops", func() {
			svc.Stop()

			Convey("Then the store keeps its data", func() {
				res, err := store.Result(context.Background(), "derby")
				So(err, ShouldBeNil)
				So(res.HomeClubID, ShouldEqual, "north")
				rows, err := store.Standings(context.Background(), "regional", 0)
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 2)
			})

			Convey("And restarting reuses it", func() {
				So(svc.Start(context.Background()), ShouldBeNil)
				defer svc.Stop()
				c, err := svc.Club(context.Background(), "south")
				So(err, ShouldBeNil)
				So(c.ID, ShouldEqual, "south")
			})
		})
	})
}

func TestServiceIntegration_Stats(t *testing.T) {
	Convey("Given a service that played a match", t, func() {
		svc, ctx := started(t)
		Reset(svc.Stop)
		So(svc.SaveClub(ctx, club("x", 60, 50)), ShouldBeNil)
		So(svc.SaveClub(ctx, club("y", 60, 50)), ShouldBeNil)
		_, err := svc.Play(ctx, model.MatchRequest{CompetitionID: "league", HomeClubID: "x", AwayClubID: "y"})
		So(err, ShouldBeNil)

		Convey("Then stats report store contents and pipeline state", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["workerCount"], ShouldEqual, 2)
			So(stats["clubs"], ShouldEqual, 2)
			So(stats["results"], ShouldEqual, 1)
			So(stats["competitions"], ShouldEqual, 1)
			So(stats["played"], ShouldEqual, int64(1))
			So(stats["queueLength"], ShouldEqual, 0)
		})
	})
}

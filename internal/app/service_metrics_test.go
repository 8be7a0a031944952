package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/matchday/internal/adapters/repository"
	service "github.com/okian/matchday/internal/app"
	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/metrics"
)

var errDiskFull = errors.New("disk full")

// brokenStore keeps clubs in memory but cannot record results.
type brokenStore struct {
	*repository.MemoryStore
}

func (brokenStore) RecordResult(context.Context, model.MatchResult) error {
	return errDiskFull
}

// componentErrors reads errors_by_component_total for component.
func componentErrors(registry *prometheus.Registry, component string) float64 {
	families, err := registry.Gather()
	So(err, ShouldBeNil)
	for _, f := range families {
		if f.GetName() != "matchday_engine_errors_by_component_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "component" && l.GetValue() == component {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestService_RepositoryErrorMetrics(t *testing.T) {
	Convey("Given a service whose store cannot record results", t, func() {
		registry := prometheus.NewRegistry()
		store := brokenStore{repository.NewMemoryStore(context.Background())}
		svc, ctx := started(t,
			service.WithStore(store),
			service.WithMetrics(metrics.NewManager(metrics.WithPrometheusRegistry(registry))),
		)
		Reset(svc.Stop)
		So(svc.SaveClub(ctx, club("north", 60, 50)), ShouldBeNil)
		So(svc.SaveClub(ctx, club("south", 60, 50)), ShouldBeNil)

		Convey("When a match is played", func() {
			_, err := svc.Play(ctx, model.MatchRequest{ID: "m-1", CompetitionID: "league", HomeClubID: "north", AwayClubID: "south"})

			Convey("Then the failure is returned and counted against the repository", func() {
				So(errors.Is(err, errDiskFull), ShouldBeTrue)
				So(componentErrors(registry, "repository"), ShouldEqual, 1)
			})
		})
	})
}

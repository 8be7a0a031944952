package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/matchday/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		Convey("When created with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it starts empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording match ids", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the id is new", func() {
				seen := d.SeenAndRecord(ctx, "match-1")

				Convey("Then it is recorded", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the id was already seen", func() {
				d.SeenAndRecord(ctx, "match-1")
				seen := d.SeenAndRecord(ctx, "match-1")

				Convey("Then it reports a duplicate", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})
		})

		Convey("When checking an id without recording it", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, "match-1")

			Convey("Then only recorded ids are seen and nothing is added", func() {
				So(d.Seen(ctx, "match-1"), ShouldBeTrue)
				So(d.Seen(ctx, "match-2"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
				So(d.SeenAndRecord(ctx, "match-2"), ShouldBeFalse)
			})
		})

		Convey("When unrecording ids", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the id exists", func() {
				d.SeenAndRecord(ctx, "match-1")
				d.Unrecord(ctx, "match-1")

				Convey("Then it can be submitted again", func() {
					So(d.Size(), ShouldEqual, 0)
					So(d.SeenAndRecord(ctx, "match-1"), ShouldBeFalse)
				})
			})

			Convey("And the id does not exist", func() {
				d.Unrecord(ctx, "ghost")

				Convey("Then nothing changes", func() {
					So(d.Size(), ShouldEqual, 0)
				})
			})
		})

		Convey("When the bound is reached", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			for _, id := range []string{"m1", "m2", "m3", "m4"} {
				So(d.SeenAndRecord(ctx, id), ShouldBeFalse)
			}

			Convey("Then the oldest id is evicted first", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "m4"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "m3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "m2"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "m1"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 3)
			})
		})

		Convey("When an unrecorded id leaves a gap", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))
			d.SeenAndRecord(ctx, "m1")
			d.SeenAndRecord(ctx, "m2")
			d.Unrecord(ctx, "m1")
			d.SeenAndRecord(ctx, "m3")

			Convey("Then nothing is evicted until the bound is hit again", func() {
				So(d.Size(), ShouldEqual, 2)
				So(d.SeenAndRecord(ctx, "m2"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "m3"), ShouldBeTrue)
			})
		})

		Convey("When unbounded", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
			const n = 1000
			for i := 0; i < n; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("m-%d", i))
			}

			Convey("Then every id is kept", func() {
				So(d.Size(), ShouldEqual, int64(n))
				So(d.SeenAndRecord(ctx, "m-0"), ShouldBeTrue)
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper shared by many goroutines", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const workers = 10
		const perWorker = 100

		Convey("When every goroutine submits the same ids", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < perWorker; j++ {
						if !d.SeenAndRecord(context.Background(), fmt.Sprintf("m-%d", j)) {
							mu.Lock()
							fresh++
							mu.Unlock()
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then each id is accepted exactly once", func() {
				So(fresh, ShouldEqual, perWorker)
				So(d.Size(), ShouldEqual, int64(perWorker))
			})
		})
	})
}

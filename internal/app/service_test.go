package service_test

import (
	"context"
	"testing"
	"time"

	service "github.com/arenalab/btrank/internal/app"
	match "github.com/arenalab/btrank/internal/domain/match"
	"github.com/arenalab/btrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func smallDataset() []match.Result {
	var results []match.Result
	add := func(winner, loser string, n int) {
		for i := 0; i < n; i++ {
			results = append(results, match.Result{Winner: winner, Loser: loser})
		}
	}
	add("a", "b", 8)
	add("b", "a", 2)
	add("b", "c", 7)
	add("c", "b", 3)
	return results
}

func fastParams() model.Params {
	return model.Params{Samples: 300, BurnIn: 50, Thin: 1, Seed: 9}
}

func waitForStatus(t *testing.T, svc *service.Service, id string, want model.Status) model.Analysis {
	t.Helper()
	ctx := context.Background()
	deadline := time.After(10 * time.Second)
	for {
		a, err := svc.Get(ctx, id)
		if err == nil && a.Status == want {
			return a
		}
		select {
		case <-deadline:
			t.Fatalf("analysis %s never reached %s (last: %+v, err: %v)", id, want, a.Status, err)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given an unstarted service", t, func() {
		svc := service.New()

		Convey("Then submissions are refused", func() {
			_, _, err := svc.Submit(ctx, smallDataset(), fastParams())
			So(err, ShouldEqual, service.ErrNotStarted)
		})

		Convey("And reads are refused instead of panicking", func() {
			_, err := svc.Get(ctx, "anything")
			So(err, ShouldEqual, service.ErrNotStarted)

			_, err = svc.Leaderboard(ctx, "anything", 3)
			So(err, ShouldEqual, service.ErrNotStarted)
		})

		Convey("And stopping is a no-op", func() {
			So(func() { svc.Stop() }, ShouldNotPanic)
		})
	})

	Convey("Given a started service", t, func() {
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(16),
			service.WithDedupeSize(100),
			service.WithMaxAnalyses(10),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When starting again", func() {
			Convey("Then it is idempotent", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})

		Convey("When submitting a dataset", func() {
			id, duplicate, err := svc.Submit(ctx, smallDataset(), fastParams())
			So(err, ShouldBeNil)
			So(duplicate, ShouldBeFalse)
			So(id, ShouldNotBeEmpty)

			Convey("Then the analysis runs to completion", func() {
				done := waitForStatus(t, svc, id, model.StatusDone)
				So(done.Report, ShouldNotBeNil)
				So(done.Report.Ratings["a"], ShouldBeGreaterThan, done.Report.Ratings["c"])
				So(done.MatchCount, ShouldEqual, 20)
			})

			Convey("And the leaderboard reflects the fit", func() {
				waitForStatus(t, svc, id, model.StatusDone)
				entries, lerr := svc.Leaderboard(ctx, id, 3)
				So(lerr, ShouldBeNil)
				So(entries, ShouldHaveLength, 3)
				So(entries[0].Player, ShouldEqual, "a")
				So(entries[0].Rank, ShouldEqual, 1)
			})

			Convey("And an identical submission is answered from the first", func() {
				again, dup, serr := svc.Submit(ctx, smallDataset(), fastParams())
				So(serr, ShouldBeNil)
				So(dup, ShouldBeTrue)
				So(again, ShouldEqual, id)
			})

			Convey("And different parameters make a new analysis", func() {
				p := fastParams()
				p.Samples = 301
				other, dup, serr := svc.Submit(ctx, smallDataset(), p)
				So(serr, ShouldBeNil)
				So(dup, ShouldBeFalse)
				So(other, ShouldNotEqual, id)
			})

			Convey("And a different prior is a new analysis, not a duplicate ack", func() {
				p := fastParams()
				p.PriorStd = 0.1
				other, dup, serr := svc.Submit(ctx, smallDataset(), p)
				So(serr, ShouldBeNil)
				So(dup, ShouldBeFalse)
				So(other, ShouldNotEqual, id)
			})
		})

		Convey("When asking for stats", func() {
			stats := svc.GetStats()

			Convey("Then the snapshot reflects the configuration", func() {
				So(stats.Started, ShouldBeTrue)
				So(stats.WorkerCount, ShouldEqual, 2)
				So(stats.QueueCapacity, ShouldEqual, 16)
				So(stats.DedupeCapacity, ShouldEqual, 100)
				So(stats.QueueLength, ShouldBeGreaterThanOrEqualTo, 0)
				So(stats.AnalysesStored, ShouldBeGreaterThanOrEqualTo, 0)
			})
		})

		Convey("When reading an unknown analysis", func() {
			_, err := svc.Get(ctx, "nope")
			So(err, ShouldNotBeNil)
		})
	})
}

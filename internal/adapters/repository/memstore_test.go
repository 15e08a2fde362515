package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	repository "github.com/arenalab/btrank/internal/adapters/repository"
	"github.com/arenalab/btrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func queuedAnalysis(id string) model.Analysis {
	return model.Analysis{
		ID:          id,
		Status:      model.StatusQueued,
		SubmittedAt: time.Now().UTC(),
		MatchCount:  3,
	}
}

func sampleReport() model.Report {
	return model.Report{
		Players:   []string{"a", "b", "c"},
		Ratings:   map[string]float64{"a": 0.8, "b": 0.0, "c": -0.8},
		Strengths: map[string]float64{"a": 2.2, "b": 1.0, "c": 0.45},
		Elo:       map[string]float64{"a": 139, "b": 0, "c": -139},
		Posterior: model.PosteriorSummary{
			CILower: map[string]float64{"a": 0.2, "b": -0.5, "c": -1.4},
			CIUpper: map[string]float64{"a": 1.4, "b": 0.5, "c": -0.2},
		},
		Converged: true,
	}
}

func TestMemStoreLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		store := repository.NewMemStore()

		Convey("When creating an analysis", func() {
			So(store.Create(ctx, queuedAnalysis("id-1")), ShouldBeNil)

			Convey("Then it is retrievable in the queued state", func() {
				a, err := store.Get(ctx, "id-1")
				So(err, ShouldBeNil)
				So(a.Status, ShouldEqual, model.StatusQueued)
				So(a.Report, ShouldBeNil)
				So(store.Count(ctx), ShouldEqual, 1)
			})

			Convey("And creating the same id again is rejected", func() {
				So(store.Create(ctx, queuedAnalysis("id-1")), ShouldEqual, repository.ErrDuplicateID)
			})
		})

		Convey("When walking the full lifecycle", func() {
			So(store.Create(ctx, queuedAnalysis("id-1")), ShouldBeNil)
			So(store.MarkRunning(ctx, "id-1"), ShouldBeNil)

			a, _ := store.Get(ctx, "id-1")
			So(a.Status, ShouldEqual, model.StatusRunning)

			So(store.Complete(ctx, "id-1", sampleReport()), ShouldBeNil)

			Convey("Then the report is attached and status is done", func() {
				done, err := store.Get(ctx, "id-1")
				So(err, ShouldBeNil)
				So(done.Status, ShouldEqual, model.StatusDone)
				So(done.Report, ShouldNotBeNil)
				So(done.Report.Converged, ShouldBeTrue)
			})
		})

		Convey("When failing an analysis", func() {
			So(store.Create(ctx, queuedAnalysis("id-1")), ShouldBeNil)
			So(store.Fail(ctx, "id-1", "queue full"), ShouldBeNil)

			Convey("Then status and reason are recorded", func() {
				a, err := store.Get(ctx, "id-1")
				So(err, ShouldBeNil)
				So(a.Status, ShouldEqual, model.StatusFailed)
				So(a.Err, ShouldEqual, "queue full")
			})
		})

		Convey("When touching unknown ids", func() {
			Convey("Then every operation reports not found", func() {
				So(store.MarkRunning(ctx, "ghost"), ShouldEqual, repository.ErrNotFound)
				So(store.Complete(ctx, "ghost", sampleReport()), ShouldEqual, repository.ErrNotFound)
				So(store.Fail(ctx, "ghost", "x"), ShouldEqual, repository.ErrNotFound)
				_, err := store.Get(ctx, "ghost")
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})
	})
}

func TestMemStoreLeaderboard(t *testing.T) {
	ctx := context.Background()

	Convey("Given a finished analysis", t, func() {
		store := repository.NewMemStore()
		So(store.Create(ctx, queuedAnalysis("id-1")), ShouldBeNil)
		So(store.Complete(ctx, "id-1", sampleReport()), ShouldBeNil)

		Convey("When fetching the top two", func() {
			entries, err := store.Leaderboard(ctx, "id-1", 2)

			Convey("Then entries come ranked by rating", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[0].Player, ShouldEqual, "a")
				So(entries[1].Rank, ShouldEqual, 2)
				So(entries[1].Player, ShouldEqual, "b")
				So(entries[0].CIUpper, ShouldBeGreaterThan, entries[0].CILower)
			})
		})

		Convey("When asking for more entries than players", func() {
			entries, err := store.Leaderboard(ctx, "id-1", 50)

			Convey("Then the whole board is returned", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 3)
			})
		})

		Convey("When the limit is invalid", func() {
			_, err := store.Leaderboard(ctx, "id-1", 0)
			So(err, ShouldEqual, repository.ErrInvalidLimit)
		})
	})

	Convey("Given an unfinished analysis", t, func() {
		store := repository.NewMemStore()
		So(store.Create(ctx, queuedAnalysis("id-1")), ShouldBeNil)

		Convey("Then the leaderboard is not ready", func() {
			_, err := store.Leaderboard(ctx, "id-1", 5)
			So(err, ShouldEqual, repository.ErrNotReady)
		})
	})

	Convey("Given tied ratings", t, func() {
		store := repository.NewMemStore()
		report := model.Report{
			Players: []string{"z", "y"},
			Ratings: map[string]float64{"z": 0.5, "y": 0.5},
		}
		So(store.Create(ctx, queuedAnalysis("id-1")), ShouldBeNil)
		So(store.Complete(ctx, "id-1", report), ShouldBeNil)

		Convey("Then ties break by player id", func() {
			entries, err := store.Leaderboard(ctx, "id-1", 2)
			So(err, ShouldBeNil)
			So(entries[0].Player, ShouldEqual, "y")
			So(entries[1].Player, ShouldEqual, "z")
		})
	})
}

func TestMemStoreEviction(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store capped at three analyses", t, func() {
		store := repository.NewMemStore(repository.WithMaxAnalyses(3))

		Convey("When creating five analyses", func() {
			for i := 0; i < 5; i++ {
				So(store.Create(ctx, queuedAnalysis(fmt.Sprintf("id-%d", i))), ShouldBeNil)
			}

			Convey("Then only the newest three remain", func() {
				So(store.Count(ctx), ShouldEqual, 3)
				_, err := store.Get(ctx, "id-0")
				So(err, ShouldEqual, repository.ErrNotFound)
				_, err = store.Get(ctx, "id-4")
				So(err, ShouldBeNil)
			})
		})
	})
}

package convergence_test

import (
	"math"
	"math/rand"
	"testing"

	convergence "github.com/arenalab/btrank/internal/domain/convergence"
	match "github.com/arenalab/btrank/internal/domain/match"
	rating "github.com/arenalab/btrank/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

// streaky samples matches among five players with fixed win biases so
// longer prefixes keep refining the same ordering.
func streaky(n int) []match.Result {
	rng := rand.New(rand.NewSource(99))
	players := []string{"p1", "p2", "p3", "p4", "p5"}
	results := make([]match.Result, 0, n)
	for len(results) < n {
		i, j := rng.Intn(len(players)), rng.Intn(len(players))
		if i == j {
			continue
		}
		// Lower index wins two thirds of the time.
		winner, loser := players[i], players[j]
		if i > j {
			winner, loser = loser, winner
		}
		if rng.Float64() > 2.0/3.0 {
			winner, loser = loser, winner
		}
		results = append(results, match.Result{Winner: winner, Loser: loser})
	}
	return results
}

func TestAnalyzerAnalyze(t *testing.T) {
	Convey("Given a 100-match sequence", t, func() {
		results := streaky(100)
		analyzer := convergence.NewAnalyzer(nil)

		Convey("When analyzing with step 20", func() {
			trace := analyzer.Analyze(results, 20)

			Convey("Then snapshots land on multiples of the step", func() {
				So(trace, ShouldHaveLength, 5)
				for k, pt := range trace {
					So(pt.NumMatches, ShouldEqual, (k+1)*20)
				}
			})

			Convey("And the first point has no baseline to compare against", func() {
				So(math.IsInf(trace[0].MaxRatingChange, 1), ShouldBeTrue)
			})

			Convey("And later points report finite movement", func() {
				for _, pt := range trace[1:] {
					So(math.IsInf(pt.MaxRatingChange, 1), ShouldBeFalse)
					So(pt.MaxRatingChange, ShouldBeGreaterThanOrEqualTo, 0)
				}
			})

			Convey("And each snapshot carries its fitted ratings", func() {
				final := trace[len(trace)-1]
				want := rating.NewFitter().Fit(match.Aggregate(results))
				for p, r := range want.Ratings {
					So(math.Abs(final.Ratings[p]-r), ShouldBeLessThan, 1e-9)
				}
			})
		})

		Convey("When the length is not a step multiple", func() {
			trace := analyzer.Analyze(results, 30)

			Convey("Then a final full-length point is appended", func() {
				So(trace, ShouldHaveLength, 4)
				So(trace[len(trace)-1].NumMatches, ShouldEqual, 100)
				prev := 0
				for _, pt := range trace {
					So(pt.NumMatches, ShouldBeGreaterThan, prev)
					prev = pt.NumMatches
				}
			})
		})

		Convey("When the step exceeds the sequence length", func() {
			trace := analyzer.Analyze(results, 500)

			Convey("Then the trace is the single full-length point", func() {
				So(trace, ShouldHaveLength, 1)
				So(trace[0].NumMatches, ShouldEqual, 100)
			})
		})

		Convey("When the step is below one", func() {
			trace := analyzer.Analyze(results[:3], 0)

			Convey("Then it is coerced to one", func() {
				So(trace, ShouldHaveLength, 3)
				So(trace[0].NumMatches, ShouldEqual, 1)
			})
		})
	})

	Convey("Given an empty sequence", t, func() {
		trace := convergence.NewAnalyzer(nil).Analyze(nil, 10)

		Convey("Then the trace is empty", func() {
			So(trace, ShouldBeEmpty)
		})
	})

	Convey("Given prefixes with disjoint player sets", t, func() {
		results := []match.Result{
			{Winner: "a", Loser: "b"},
			{Winner: "a", Loser: "b"},
			{Winner: "c", Loser: "d"},
			{Winner: "c", Loser: "d"},
		}
		trace := convergence.NewAnalyzer(nil).Analyze(results, 2)

		Convey("Then overlap exists and movement stays finite", func() {
			// The second snapshot still contains a and b.
			So(trace, ShouldHaveLength, 2)
			So(math.IsInf(trace[1].MaxRatingChange, 1), ShouldBeFalse)
		})
	})
}

func TestAnalyzerStabilizes(t *testing.T) {
	Convey("Given a long sequence from a fixed process", t, func() {
		results := streaky(2000)
		trace := convergence.NewAnalyzer(nil).Analyze(results, 400)

		Convey("Then late movement is small compared to early movement", func() {
			early := trace[1].MaxRatingChange
			late := trace[len(trace)-1].MaxRatingChange
			So(late, ShouldBeLessThan, early)
			So(late, ShouldBeLessThan, 0.2)
		})

		Convey("And the final point covers the whole sequence", func() {
			So(trace[len(trace)-1].NumMatches, ShouldEqual, 2000)
		})
	})
}

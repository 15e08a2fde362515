package rating_test

import (
	"math"
	"math/rand"
	"testing"

	match "github.com/arenalab/btrank/internal/domain/match"
	rating "github.com/arenalab/btrank/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

// roundRobin builds a deterministic dataset with a clear a > b > c ordering.
func roundRobin() []match.Result {
	var results []match.Result
	add := func(winner, loser string, n int) {
		for i := 0; i < n; i++ {
			results = append(results, match.Result{Winner: winner, Loser: loser})
		}
	}
	add("a", "b", 7)
	add("b", "a", 3)
	add("b", "c", 6)
	add("c", "b", 4)
	add("a", "c", 8)
	add("c", "a", 2)
	return results
}

func TestFitterFit(t *testing.T) {
	Convey("Given a round-robin dataset with a clear ordering", t, func() {
		results := roundRobin()
		fitter := rating.NewFitter()

		Convey("When fitting", func() {
			res := fitter.Fit(match.Aggregate(results))

			Convey("Then the fit converges", func() {
				So(res.Converged, ShouldBeTrue)
				So(res.Iterations, ShouldBeGreaterThan, 0)
			})

			Convey("And ratings recover the ordering", func() {
				So(res.Ratings["a"], ShouldBeGreaterThan, res.Ratings["b"])
				So(res.Ratings["b"], ShouldBeGreaterThan, res.Ratings["c"])
			})

			Convey("And ratings are anchored to zero mean", func() {
				var sum float64
				for _, r := range res.Ratings {
					sum += r
				}
				So(math.Abs(sum), ShouldBeLessThan, 1e-9)
			})

			Convey("And strengths are the exponentials of the ratings", func() {
				for p, r := range res.Ratings {
					So(math.Abs(res.Strengths[p]-math.Exp(r)), ShouldBeLessThan, 1e-9)
				}
			})
		})

		Convey("When fitting a shuffled copy of the same matches", func() {
			rng := rand.New(rand.NewSource(42))
			shuffled := make([]match.Result, len(results))
			copy(shuffled, results)
			rng.Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})

			Convey("Then the ratings agree to within numerical noise", func() {
				a := fitter.Fit(match.Aggregate(results))
				b := fitter.Fit(match.Aggregate(shuffled))
				for p := range a.Ratings {
					So(math.Abs(a.Ratings[p]-b.Ratings[p]), ShouldBeLessThan, 1e-6)
				}
			})
		})

		Convey("When capping iterations at increasing budgets", func() {
			tally := match.Aggregate(results)

			Convey("Then the log-likelihood never decreases", func() {
				prev := math.Inf(-1)
				for _, cap := range []int{1, 2, 5, 20, 100} {
					res := rating.NewFitter(rating.WithMaxIter(cap)).Fit(tally)
					ll := rating.LogLikelihood(tally, res.Ratings)
					So(ll, ShouldBeGreaterThanOrEqualTo, prev-1e-9)
					prev = ll
				}
			})
		})
	})

	Convey("Given a four-player dataset with an undefeated player", t, func() {
		results := []match.Result{
			{Winner: "A", Loser: "B"},
			{Winner: "A", Loser: "B"},
			{Winner: "A", Loser: "C"},
			{Winner: "B", Loser: "C"},
			{Winner: "C", Loser: "B"},
			{Winner: "D", Loser: "A"},
			{Winner: "D", Loser: "B"},
		}
		fitter := rating.NewFitter()
		res := fitter.Fit(match.Aggregate(results))

		Convey("Then all four ratings are finite and sum to zero", func() {
			So(res.Ratings, ShouldHaveLength, 4)
			var sum float64
			for _, r := range res.Ratings {
				So(math.IsInf(r, 0), ShouldBeFalse)
				So(math.IsNaN(r), ShouldBeFalse)
				sum += r
			}
			So(math.Abs(sum), ShouldBeLessThan, 1e-9)
		})

		Convey("And the undefeated player rates highest", func() {
			for _, p := range []string{"A", "B", "C"} {
				So(res.Ratings["D"], ShouldBeGreaterThan, res.Ratings[p])
			}
			So(res.Ratings["A"], ShouldBeGreaterThan, res.Ratings["B"])
		})

		Convey("And reversing the input order changes nothing", func() {
			reversed := make([]match.Result, len(results))
			for i, m := range results {
				reversed[len(results)-1-i] = m
			}
			rev := fitter.Fit(match.Aggregate(reversed))
			for p := range res.Ratings {
				So(math.Abs(res.Ratings[p]-rev.Ratings[p]), ShouldBeLessThan, 1e-6)
			}
		})
	})

	Convey("Given a single decided match", t, func() {
		res := rating.NewFitter().Fit(match.Aggregate([]match.Result{
			{Winner: "a", Loser: "b"},
		}))

		Convey("Then the winner rates above the loser", func() {
			So(res.Ratings["a"], ShouldBeGreaterThan, res.Ratings["b"])
		})

		Convey("And both ratings stay finite", func() {
			So(math.IsInf(res.Ratings["a"], 0), ShouldBeFalse)
			So(math.IsInf(res.Ratings["b"], 0), ShouldBeFalse)
		})
	})

	Convey("Given two disconnected comparison components", t, func() {
		res := rating.NewFitter().Fit(match.Aggregate([]match.Result{
			{Winner: "a", Loser: "b"},
			{Winner: "b", Loser: "a"},
			{Winner: "c", Loser: "d"},
			{Winner: "d", Loser: "c"},
		}))

		Convey("Then the fit still completes with a rating per player", func() {
			So(res.Ratings, ShouldHaveLength, 4)
			var sum float64
			for _, r := range res.Ratings {
				So(math.IsNaN(r), ShouldBeFalse)
				sum += r
			}
			So(math.Abs(sum), ShouldBeLessThan, 1e-9)
		})
	})

	Convey("Given an empty tally", t, func() {
		res := rating.NewFitter().Fit(match.Aggregate(nil))

		Convey("Then the result is empty and converged", func() {
			So(res.Ratings, ShouldBeEmpty)
			So(res.Strengths, ShouldBeEmpty)
			So(res.Converged, ShouldBeTrue)
		})
	})
}

func TestLogLikelihood(t *testing.T) {
	Convey("Given a tally and the flat rating vector", t, func() {
		tally := match.Aggregate(roundRobin())
		flat := map[string]float64{"a": 0, "b": 0, "c": 0}

		Convey("Then every match contributes log(1/2)", func() {
			ll := rating.LogLikelihood(tally, flat)
			So(math.Abs(ll-30*math.Log(0.5)), ShouldBeLessThan, 1e-9)
		})

		Convey("And the fitted ratings score strictly higher", func() {
			res := rating.NewFitter().Fit(tally)
			So(rating.LogLikelihood(tally, res.Ratings), ShouldBeGreaterThan, rating.LogLikelihood(tally, flat))
		})
	})
}

package simulate_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	match "github.com/arenalab/btrank/internal/domain/match"
	rating "github.com/arenalab/btrank/internal/domain/rating"
	loader "github.com/arenalab/btrank/internal/loader"
	simulate "github.com/arenalab/btrank/internal/simulate"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerate(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		Convey("When generating a dataset", func() {
			ds := simulate.Generate(500, simulate.WithPlayers(6), simulate.WithSeed(13))

			Convey("Then the requested shape comes back", func() {
				So(ds.Players, ShouldHaveLength, 6)
				So(ds.Matches, ShouldHaveLength, 500)
				So(ds.Strengths, ShouldHaveLength, 6)
			})

			Convey("And the hidden truth is zero mean", func() {
				var sum float64
				for _, s := range ds.Strengths {
					sum += s
				}
				So(math.Abs(sum), ShouldBeLessThan, 1e-9)
			})

			Convey("And no match is a self-pairing", func() {
				for _, m := range ds.Matches {
					So(m.Winner, ShouldNotEqual, m.Loser)
				}
			})

			Convey("And the same seed reproduces the dataset", func() {
				again := simulate.Generate(500, simulate.WithPlayers(6), simulate.WithSeed(13))
				So(again.Matches, ShouldResemble, ds.Matches)
				So(again.Strengths, ShouldResemble, ds.Strengths)
			})

			Convey("And a different seed diverges", func() {
				other := simulate.Generate(500, simulate.WithPlayers(6), simulate.WithSeed(14))
				So(other.Matches, ShouldNotResemble, ds.Matches)
			})
		})

		Convey("When fitting a large generated dataset", func() {
			ds := simulate.Generate(20000, simulate.WithPlayers(8), simulate.WithSeed(21))
			res := rating.NewFitter().Fit(match.Aggregate(ds.Matches))

			Convey("Then the fit recovers most of the true ordering", func() {
				acc := simulate.RankAccuracy(ds.Strengths, res.Ratings)
				So(acc, ShouldBeGreaterThan, 0.85)
			})
		})
	})
}

func TestWriteCSV(t *testing.T) {
	Convey("Given a generated dataset", t, func() {
		ds := simulate.Generate(50, simulate.WithPlayers(4), simulate.WithSeed(5))

		Convey("When writing it as CSV", func() {
			var buf bytes.Buffer
			So(simulate.WriteCSV(&buf, ds.Matches), ShouldBeNil)

			Convey("Then the default loader reads it back verbatim", func() {
				So(strings.HasPrefix(buf.String(), "winner,loser\n"), ShouldBeTrue)
				matches, err := loader.Load(&buf)
				So(err, ShouldBeNil)
				So(matches, ShouldResemble, ds.Matches)
			})
		})
	})
}

func TestRankAccuracy(t *testing.T) {
	Convey("Given truth and estimates", t, func() {
		truth := map[string]float64{"a": 2, "b": 1, "c": 0}

		Convey("When the estimate preserves the order", func() {
			So(simulate.RankAccuracy(truth, map[string]float64{"a": 0.9, "b": 0.1, "c": -1}), ShouldEqual, 1)
		})

		Convey("When the estimate reverses the order", func() {
			So(simulate.RankAccuracy(truth, map[string]float64{"a": -1, "b": 0, "c": 1}), ShouldEqual, 0)
		})

		Convey("When players are missing from the estimate", func() {
			acc := simulate.RankAccuracy(truth, map[string]float64{"a": 1})
			So(acc, ShouldEqual, 1)
		})
	})
}

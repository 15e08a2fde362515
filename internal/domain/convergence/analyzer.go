// Package convergence tracks rating stability as match data accumulates.
//
// The analyzer refits ratings on growing prefixes of the match sequence
// and reports the largest per-player rating movement between consecutive
// snapshots. Callers use the trace to judge how many matches are needed
// before ratings settle.
package convergence

import (
	"math"

	"github.com/arenalab/btrank/internal/domain/match"
	"github.com/arenalab/btrank/internal/domain/rating"
)

// Point is one snapshot of the stability trace.
type Point struct {
	// NumMatches is the prefix length the snapshot was fitted on.
	NumMatches int

	// MaxRatingChange is the largest absolute rating movement versus the
	// previous snapshot, over players present in both. It is +Inf for the
	// first snapshot and whenever the snapshots share no players.
	MaxRatingChange float64

	// Ratings is the fitted zero-mean log-strength snapshot.
	Ratings map[string]float64
}

// Analyzer produces stability traces by refitting growing prefixes.
type Analyzer struct {
	fitter *rating.Fitter
}

// NewAnalyzer creates an Analyzer around the given fitter. A nil fitter
// gets the default configuration.
func NewAnalyzer(fitter *rating.Fitter) *Analyzer {
	if fitter == nil {
		fitter = rating.NewFitter()
	}
	return &Analyzer{fitter: fitter}
}

// Analyze fits prefixes of length stepSize, 2*stepSize, ... and appends a
// final point at the full length when it is not an exact multiple.
// NumMatches values strictly increase and the last entry always covers
// the whole sequence. An empty input yields an empty trace.
func (a *Analyzer) Analyze(results []match.Result, stepSize int) []Point {
	if len(results) == 0 {
		return nil
	}
	if stepSize < 1 {
		stepSize = 1
	}

	var trace []Point
	var prev map[string]float64
	for n := stepSize; n <= len(results); n += stepSize {
		prev = a.appendPoint(&trace, results[:n], n, prev)
	}
	if len(results)%stepSize != 0 {
		a.appendPoint(&trace, results, len(results), prev)
	}
	return trace
}

func (a *Analyzer) appendPoint(trace *[]Point, prefix []match.Result, n int, prev map[string]float64) map[string]float64 {
	res := a.fitter.Fit(match.Aggregate(prefix))
	*trace = append(*trace, Point{
		NumMatches:      n,
		MaxRatingChange: maxChange(res.Ratings, prev),
		Ratings:         res.Ratings,
	})
	return res.Ratings
}

// maxChange returns the largest absolute rating difference over players
// present in both snapshots, or +Inf when there is no previous snapshot
// or no overlap.
func maxChange(cur, prev map[string]float64) float64 {
	if prev == nil {
		return math.Inf(1)
	}
	change := math.Inf(1)
	found := false
	for id, r := range cur {
		p, ok := prev[id]
		if !ok {
			continue
		}
		d := math.Abs(r - p)
		if !found || d > change {
			change = d
			found = true
		}
	}
	if !found {
		return math.Inf(1)
	}
	return change
}

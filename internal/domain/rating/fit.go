// Package rating fits Bradley-Terry strengths from pairwise tallies.
//
// The fitter uses Hunter's MM (majorization-minimization) updates: a
// multiplicative update on positive strengths that never decreases the
// Bradley-Terry log-likelihood. Because it consumes only aggregated
// counts, the fit is invariant to the order and batching of the raw
// match sequence.
package rating

import (
	"math"

	"github.com/arenalab/btrank/internal/domain/match"
)

// Default fitter configuration constants.
const (
	defaultMaxIter   = 10000
	defaultTolerance = 1e-12

	// strengthFloor keeps strengths strictly positive so logs stay finite.
	strengthFloor = 1e-300
)

// Option applies a configuration option to the Fitter.
type Option func(*Fitter)

// WithMaxIter caps the number of MM iterations.
func WithMaxIter(n int) Option {
	return func(f *Fitter) {
		if n > 0 {
			f.maxIter = n
		}
	}
}

// WithTolerance sets the convergence threshold on the maximum relative
// strength change per iteration.
func WithTolerance(tol float64) Option {
	return func(f *Fitter) {
		if tol > 0 {
			f.tol = tol
		}
	}
}

// Fitter computes maximum-likelihood Bradley-Terry ratings.
type Fitter struct {
	maxIter int
	tol     float64
}

// NewFitter creates a Fitter with configuration options.
func NewFitter(opts ...Option) *Fitter {
	f := &Fitter{
		maxIter: defaultMaxIter,
		tol:     defaultTolerance,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Result holds the fitted point estimates.
type Result struct {
	// Ratings are log-strengths normalized to zero mean. They are
	// identifiable only up to this additive anchoring; across disconnected
	// comparison components the relative offset is arbitrary and the
	// global normalization silently mixes components.
	Ratings map[string]float64

	// Strengths are the positive Bradley-Terry strengths p_i.
	Strengths map[string]float64

	// Iterations is the number of MM iterations performed.
	Iterations int

	// Converged reports whether the stop rule fired before the
	// iteration cap.
	Converged bool
}

// Fit runs MM updates on the tally until convergence or the iteration cap.
// An empty tally yields an empty, converged result. A player with no
// paired games keeps its prior strength rather than dividing by zero.
func (f *Fitter) Fit(t *match.Tally) Result {
	players := t.Players()
	if len(players) == 0 {
		return Result{Ratings: map[string]float64{}, Strengths: map[string]float64{}, Converged: true}
	}

	totalWins := make(map[string]float64, len(players))
	for _, i := range players {
		totalWins[i] = float64(t.TotalWins(i))
	}

	p := make(map[string]float64, len(players))
	for _, i := range players {
		p[i] = 1.0
	}

	var iterations int
	var converged bool
	for iter := 1; iter <= f.maxIter; iter++ {
		iterations = iter

		// New strengths are built in a fresh map so the update reads a
		// consistent snapshot of the previous iterate.
		pNew := make(map[string]float64, len(players))
		for _, i := range players {
			var denom float64
			t.Opponents(i, func(j string, games int) {
				denom += float64(games) / (p[i] + p[j])
			})
			if denom > 0 {
				pNew[i] = totalWins[i] / denom
			} else {
				pNew[i] = p[i]
			}
		}

		// Renormalize by the geometric mean so mean(log p) == 0 every
		// iteration; this pins the scale-invariant degree of freedom.
		var logSum float64
		for _, i := range players {
			pNew[i] = math.Max(pNew[i], strengthFloor)
			logSum += math.Log(pNew[i])
		}
		factor := math.Exp(-logSum / float64(len(players)))

		var maxRelChange float64
		for _, i := range players {
			pNew[i] *= factor
			rel := math.Abs(pNew[i]-p[i]) / math.Max(p[i], strengthFloor)
			if rel > maxRelChange {
				maxRelChange = rel
			}
		}
		p = pNew

		if maxRelChange < f.tol {
			converged = true
			break
		}
	}

	logp := make(map[string]float64, len(players))
	var meanLog float64
	for _, i := range players {
		logp[i] = math.Log(p[i])
		meanLog += logp[i]
	}
	meanLog /= float64(len(players))

	ratings := make(map[string]float64, len(players))
	for _, i := range players {
		ratings[i] = logp[i] - meanLog
	}

	return Result{
		Ratings:    ratings,
		Strengths:  p,
		Iterations: iterations,
		Converged:  converged,
	}
}

// LogLikelihood evaluates the Bradley-Terry log-likelihood of the given
// log-strength ratings against the tally, using log-sum-exp per pair for
// numerical stability. Ratings missing from the map default to zero.
func LogLikelihood(t *match.Tally, ratings map[string]float64) float64 {
	var ll float64
	t.Pairs(func(i, j string, winsI, winsJ, _ int) {
		ri, rj := ratings[i], ratings[j]
		logSum := logSumExp(ri, rj)
		ll += float64(winsI) * (ri - logSum)
		ll += float64(winsJ) * (rj - logSum)
	})
	return ll
}

func logSumExp(a, b float64) float64 {
	m := math.Max(a, b)
	return m + math.Log(math.Exp(a-m)+math.Exp(b-m))
}

// Package bayes estimates posterior Bradley-Terry ratings with
// Metropolis-Hastings MCMC, producing credible intervals per player.
//
// The sampler runs component-wise sweeps: within a sweep each player's
// rating is proposed and accepted or rejected one at a time, in a fixed
// sorted order, with accepted moves applied immediately so later players
// observe already-updated values. This sequential dependency is part of
// the algorithm and must not be parallelized within a sweep.
package bayes

import (
	"math"
	"math/rand"
	"sort"

	"github.com/arenalab/btrank/internal/domain/match"
)

// Default sampler configuration constants.
const (
	defaultSamples     = 10000
	defaultBurnIn      = 2000
	defaultThin        = 5
	defaultProposalStd = 0.5
	defaultPriorStd    = 2.0
	defaultSeed        = 1
)

// Option applies a configuration option to the Sampler.
type Option func(*Sampler)

// WithSamples sets the number of post-burn-in sweeps.
func WithSamples(n int) Option {
	return func(s *Sampler) {
		if n > 0 {
			s.samples = n
		}
	}
}

// WithBurnIn sets the number of initial sweeps to discard.
func WithBurnIn(n int) Option {
	return func(s *Sampler) {
		if n >= 0 {
			s.burnIn = n
		}
	}
}

// WithThin keeps every nth post-burn-in sweep as a sample.
func WithThin(n int) Option {
	return func(s *Sampler) {
		if n > 0 {
			s.thin = n
		}
	}
}

// WithProposalStd sets the Gaussian proposal standard deviation.
func WithProposalStd(std float64) Option {
	return func(s *Sampler) {
		if std > 0 {
			s.proposalStd = std
		}
	}
}

// WithPriorStd sets the standard deviation of the zero-mean Gaussian
// prior on each player's log-strength.
func WithPriorStd(std float64) Option {
	return func(s *Sampler) {
		if std > 0 {
			s.priorStd = std
		}
	}
}

// WithRand injects the pseudorandom source, enabling deterministic runs.
func WithRand(rng *rand.Rand) Option {
	return func(s *Sampler) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithSeed is a convenience for WithRand(rand.New(rand.NewSource(seed))).
func WithSeed(seed int64) Option {
	return func(s *Sampler) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // statistical sampling, not cryptography
	}
}

// Sampler draws posterior ratings via Metropolis-Hastings.
type Sampler struct {
	samples     int
	burnIn      int
	thin        int
	proposalStd float64
	priorStd    float64
	rng         *rand.Rand
}

// NewSampler creates a Sampler with configuration options. The default
// random source is seeded deterministically; inject one with WithRand or
// WithSeed for independent runs.
func NewSampler(opts ...Option) *Sampler {
	s := &Sampler{
		samples:     defaultSamples,
		burnIn:      defaultBurnIn,
		thin:        defaultThin,
		proposalStd: defaultProposalStd,
		priorStd:    defaultPriorStd,
		rng:         rand.New(rand.NewSource(defaultSeed)), //nolint:gosec // deterministic default for reproducible runs
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// pair is one unordered matchup in index space, precomputed so the
// log-posterior evaluates over slices instead of nested maps.
type pair struct {
	a, b         int
	winsA, winsB float64
}

// Posterior summarizes the retained sample sequence per player.
type Posterior struct {
	Mean    map[string]float64
	Median  map[string]float64
	Std     map[string]float64
	CILower map[string]float64 // 2.5th percentile
	CIUpper map[string]float64 // 97.5th percentile
	Samples map[string][]float64

	// AcceptanceRate is the fraction of accepted proposals across the
	// whole run. Mixing adequacy is not auto-detected; callers inspect
	// this and the sample traces themselves.
	AcceptanceRate float64
}

// Sample runs the chain over the tally and returns posterior summaries.
// An empty tally yields an empty Posterior.
func (s *Sampler) Sample(t *match.Tally) Posterior {
	players := t.Players()
	if len(players) == 0 {
		return emptyPosterior()
	}

	idx := make(map[string]int, len(players))
	for i, id := range players {
		idx[id] = i
	}
	var pairs []pair
	t.Pairs(func(i, j string, winsI, winsJ, _ int) {
		pairs = append(pairs, pair{a: idx[i], b: idx[j], winsA: float64(winsI), winsB: float64(winsJ)})
	})

	n := len(players)
	current := make([]float64, n)
	currentLP := s.logPosterior(current, pairs)

	kept := make([][]float64, n)
	var accepted, proposed int

	sweeps := s.burnIn + s.samples
	for sweep := 0; sweep < sweeps; sweep++ {
		for i := 0; i < n; i++ {
			// Evaluate the proposal on a value copy so the current state
			// is never aliased by the candidate.
			candidate := make([]float64, n)
			copy(candidate, current)
			candidate[i] += s.rng.NormFloat64() * s.proposalStd

			candidateLP := s.logPosterior(candidate, pairs)
			proposed++
			if math.Log(s.rng.Float64()) < candidateLP-currentLP {
				current = candidate
				currentLP = candidateLP
				accepted++
			}
		}

		// Re-center to zero mean (identifiability constraint). The prior
		// is not shift-invariant, so the log-posterior must be recomputed
		// at the shifted point.
		var mean float64
		for _, r := range current {
			mean += r
		}
		mean /= float64(n)
		for i := range current {
			current[i] -= mean
		}
		currentLP = s.logPosterior(current, pairs)

		if sweep >= s.burnIn && (sweep-s.burnIn)%s.thin == 0 {
			for i := 0; i < n; i++ {
				kept[i] = append(kept[i], current[i])
			}
		}
	}

	post := Posterior{
		Mean:    make(map[string]float64, n),
		Median:  make(map[string]float64, n),
		Std:     make(map[string]float64, n),
		CILower: make(map[string]float64, n),
		CIUpper: make(map[string]float64, n),
		Samples: make(map[string][]float64, n),
	}
	if proposed > 0 {
		post.AcceptanceRate = float64(accepted) / float64(proposed)
	}
	for i, id := range players {
		trace := kept[i]
		post.Samples[id] = trace
		post.Mean[id] = mean(trace)
		post.Median[id] = percentile(trace, 50)
		post.Std[id] = stddev(trace)
		post.CILower[id] = percentile(trace, 2.5)
		post.CIUpper[id] = percentile(trace, 97.5)
	}
	return post
}

// logPosterior is the Bradley-Terry log-likelihood (log-sum-exp per pair)
// plus the Gaussian log-prior, up to an additive constant.
func (s *Sampler) logPosterior(r []float64, pairs []pair) float64 {
	var lp float64
	for _, p := range pairs {
		ra, rb := r[p.a], r[p.b]
		m := math.Max(ra, rb)
		logSum := m + math.Log(math.Exp(ra-m)+math.Exp(rb-m))
		lp += p.winsA * (ra - logSum)
		lp += p.winsB * (rb - logSum)
	}
	for _, ri := range r {
		lp -= 0.5 * (ri / s.priorStd) * (ri / s.priorStd)
	}
	return lp
}

func emptyPosterior() Posterior {
	return Posterior{
		Mean:    map[string]float64{},
		Median:  map[string]float64{},
		Std:     map[string]float64{},
		CILower: map[string]float64{},
		CIUpper: map[string]float64{},
		Samples: map[string][]float64{},
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// percentile returns the pth percentile of xs using linear interpolation
// between closest ranks.
func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

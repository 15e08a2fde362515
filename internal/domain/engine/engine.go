// Package engine composes the rating pipeline: aggregation, MLE fit,
// Bayesian sampling and convergence analysis for one match dataset.
package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/arenalab/btrank/internal/domain/bayes"
	"github.com/arenalab/btrank/internal/domain/convergence"
	"github.com/arenalab/btrank/internal/domain/match"
	"github.com/arenalab/btrank/internal/domain/model"
	"github.com/arenalab/btrank/internal/domain/rating"
	"github.com/arenalab/btrank/pkg/metrics"
)

// convergenceTargetPoints is the trace length aimed for when the caller
// does not choose a step size.
const convergenceTargetPoints = 20

// Analyzer runs the full rating pipeline for a job.
type Analyzer interface {
	// Analyze computes the report for the given matches and parameters,
	// honoring ctx between pipeline stages. A running stage is never
	// interrupted; bounding the iteration and sample parameters is the
	// only way to bound a stage.
	Analyze(ctx context.Context, matches []match.Result, params model.Params) (model.Report, error)
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithDefaults sets the parameter values substituted for zero fields of
// a job's params.
func WithDefaults(p model.Params) Option {
	return func(e *Engine) {
		e.defaults = p
	}
}

// WithSampleTraces controls whether raw posterior sample traces are kept
// in the report. Summaries are always produced.
func WithSampleTraces(keep bool) Option {
	return func(e *Engine) {
		e.keepTraces = keep
	}
}

// Engine implements Analyzer with the in-process rating core.
type Engine struct {
	defaults   model.Params
	keepTraces bool
}

// NewEngine creates an Engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		defaults:   DefaultParams(),
		keepTraces: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultParams returns the stock engine parameters.
func DefaultParams() model.Params {
	return model.Params{
		MaxIter:     10000,
		Tolerance:   1e-12,
		Samples:     10000,
		BurnIn:      2000,
		Thin:        5,
		ProposalStd: 0.5,
		PriorStd:    2.0,
	}
}

// Resolve fills zero fields of p from the engine defaults and derives a
// step size from the dataset when none was chosen. The returned params
// fully describe the run, so recording them makes it reproducible.
func (e *Engine) Resolve(p model.Params, matchCount int) model.Params {
	d := e.defaults
	if p.MaxIter <= 0 {
		p.MaxIter = d.MaxIter
	}
	if p.Tolerance <= 0 {
		p.Tolerance = d.Tolerance
	}
	if p.Samples <= 0 {
		p.Samples = d.Samples
	}
	if p.BurnIn <= 0 {
		p.BurnIn = d.BurnIn
	}
	if p.Thin <= 0 {
		p.Thin = d.Thin
	}
	if p.ProposalStd <= 0 {
		p.ProposalStd = d.ProposalStd
	}
	if p.PriorStd <= 0 {
		p.PriorStd = d.PriorStd
	}
	if p.StepSize <= 0 {
		p.StepSize = matchCount / convergenceTargetPoints
		if p.StepSize < 1 {
			p.StepSize = 1
		}
	}
	if p.Seed == 0 {
		p.Seed = time.Now().UnixNano()
	}
	return p
}

// Analyze runs the pipeline. Empty input produces an empty report, not
// an error; the core is fail-soft for any well-formed finite input.
func (e *Engine) Analyze(ctx context.Context, matches []match.Result, params model.Params) (model.Report, error) {
	started := time.Now()
	params = e.Resolve(params, len(matches))

	tally := match.Aggregate(matches)

	fitStart := time.Now()
	fitter := rating.NewFitter(
		rating.WithMaxIter(params.MaxIter),
		rating.WithTolerance(params.Tolerance),
	)
	fit := fitter.Fit(tally)
	metrics.RecordFitDuration(float64(time.Since(fitStart).Milliseconds()))
	metrics.RecordFitIterations(fit.Iterations)

	if err := ctx.Err(); err != nil {
		return model.Report{}, fmt.Errorf("analysis cancelled after fit: %w", err)
	}

	sampleStart := time.Now()
	sampler := bayes.NewSampler(
		bayes.WithSamples(params.Samples),
		bayes.WithBurnIn(params.BurnIn),
		bayes.WithThin(params.Thin),
		bayes.WithProposalStd(params.ProposalStd),
		bayes.WithPriorStd(params.PriorStd),
		bayes.WithSeed(params.Seed),
	)
	post := sampler.Sample(tally)
	metrics.RecordSampleDuration(float64(time.Since(sampleStart).Milliseconds()))
	metrics.UpdateAcceptanceRate(post.AcceptanceRate)

	if err := ctx.Err(); err != nil {
		return model.Report{}, fmt.Errorf("analysis cancelled after sampling: %w", err)
	}

	traceStart := time.Now()
	trace := convergence.NewAnalyzer(fitter).Analyze(matches, params.StepSize)
	metrics.RecordConvergenceDuration(float64(time.Since(traceStart).Milliseconds()))

	report := model.Report{
		Players:          tally.Players(),
		Ratings:          fit.Ratings,
		Strengths:        fit.Strengths,
		Elo:              rating.ToElo(fit.Ratings),
		WinProbabilities: rating.WinMatrix(fit.Ratings),
		Posterior: model.PosteriorSummary{
			Mean:           post.Mean,
			Median:         post.Median,
			Std:            post.Std,
			CILower:        post.CILower,
			CIUpper:        post.CIUpper,
			AcceptanceRate: post.AcceptanceRate,
		},
		Convergence: convertTrace(trace),
		Iterations:  fit.Iterations,
		Converged:   fit.Converged,
		ElapsedMS:   time.Since(started).Milliseconds(),
	}
	if e.keepTraces {
		report.Posterior.Samples = post.Samples
	}
	return report, nil
}

// convertTrace maps the analyzer output to the transport shape. +Inf
// changes become nil since infinity has no JSON encoding.
func convertTrace(trace []convergence.Point) []model.ConvergencePoint {
	out := make([]model.ConvergencePoint, len(trace))
	for i, p := range trace {
		cp := model.ConvergencePoint{
			NumMatches: p.NumMatches,
			Ratings:    p.Ratings,
		}
		if !math.IsInf(p.MaxRatingChange, 1) {
			v := p.MaxRatingChange
			cp.MaxRatingChange = &v
		}
		out[i] = cp
	}
	return out
}

// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/arenalab/btrank/internal/domain/match"
)

// Status tracks an analysis through its lifecycle.
type Status string

// Analysis statuses.
const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Params carries the engine knobs for one analysis run. Zero values are
// replaced with configured defaults before the job is enqueued.
type Params struct {
	MaxIter     int     `json:"max_iter"`
	Tolerance   float64 `json:"tolerance"`
	Samples     int     `json:"samples"`
	BurnIn      int     `json:"burn_in"`
	Thin        int     `json:"thin"`
	ProposalStd float64 `json:"proposal_std"`
	PriorStd    float64 `json:"prior_std"`
	StepSize    int     `json:"step_size"`
	Seed        int64   `json:"seed"`
}

// Job is the unit of work flowing through the queue: a match sequence
// plus the resolved parameters for its run.
type Job struct {
	ID      string
	Matches []match.Result
	Params  Params
}

// Analysis is the stored view of a submitted dataset and, once the
// pipeline finishes, its report.
type Analysis struct {
	ID          string    `json:"id"`
	Status      Status    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	MatchCount  int       `json:"match_count"`
	Params      Params    `json:"params"`
	Report      *Report   `json:"report,omitempty"`
	Err         string    `json:"error,omitempty"`
}

// PosteriorSummary is the per-player Bayesian bundle.
type PosteriorSummary struct {
	Mean           map[string]float64   `json:"mean"`
	Median         map[string]float64   `json:"median"`
	Std            map[string]float64   `json:"std"`
	CILower        map[string]float64   `json:"ci_lower"`
	CIUpper        map[string]float64   `json:"ci_upper"`
	Samples        map[string][]float64 `json:"samples,omitempty"`
	AcceptanceRate float64              `json:"acceptance_rate"`
}

// ConvergencePoint is one entry of the stability trace. MaxRatingChange
// is omitted from JSON when undefined (no previous snapshot or no player
// overlap), since +Inf has no JSON encoding.
type ConvergencePoint struct {
	NumMatches      int                `json:"num_matches"`
	MaxRatingChange *float64           `json:"max_rating_change,omitempty"`
	Ratings         map[string]float64 `json:"ratings"`
}

// Report bundles everything the pipeline computed for one dataset.
type Report struct {
	Players          []string                      `json:"players"`
	Ratings          map[string]float64            `json:"ratings"`
	Strengths        map[string]float64            `json:"strengths"`
	Elo              map[string]float64            `json:"elo"`
	WinProbabilities map[string]map[string]float64 `json:"win_probabilities"`
	Posterior        PosteriorSummary              `json:"posterior"`
	Convergence      []ConvergencePoint            `json:"convergence"`
	Iterations       int                           `json:"iterations"`
	Converged        bool                          `json:"converged"`
	ElapsedMS        int64                         `json:"elapsed_ms"`
}

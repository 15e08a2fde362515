// Package repository defines the analysis store interface and errors.
package repository

import (
	"context"

	"github.com/arenalab/btrank/internal/domain/model"
)

// Entry represents one leaderboard row of a finished analysis, ranked by
// maximum-likelihood rating.
type Entry struct {
	Rank     int     `json:"rank"`
	Player   string  `json:"player"`
	Rating   float64 `json:"rating"`
	Strength float64 `json:"strength"`
	Elo      float64 `json:"elo"`
	CILower  float64 `json:"ci_lower"`
	CIUpper  float64 `json:"ci_upper"`
}

// Store provides read/write access to analysis state. Implementations
// must be safe for concurrent use by the HTTP layer and the worker pool.
type Store interface {
	// Create registers a newly submitted analysis in the queued state.
	// Returns ErrDuplicateID if the id is already present.
	Create(ctx context.Context, a model.Analysis) error

	// MarkRunning transitions an analysis to the running state.
	MarkRunning(ctx context.Context, id string) error

	// Complete stores the finished report and transitions to done.
	Complete(ctx context.Context, id string, report model.Report) error

	// Fail records a failure reason and transitions to failed.
	Fail(ctx context.Context, id string, reason string) error

	// Get returns the analysis by id, or ErrNotFound.
	Get(ctx context.Context, id string) (model.Analysis, error)

	// Leaderboard returns the top-n entries of a finished analysis
	// ordered by rating desc. ErrNotReady if the analysis has no report.
	Leaderboard(ctx context.Context, id string, n int) ([]Entry, error)

	// Count returns the number of analyses tracked by the store.
	Count(ctx context.Context) int
}

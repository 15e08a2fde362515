// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer sources.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"

	"github.com/arenalab/btrank/internal/domain/model"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the dataset fingerprint cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxAnalyses bounds how many finished analyses the store retains.
	MaxAnalyses int `koanf:"max_analyses"`

	// MaxLeaderboardLimit caps GET /analyses/{id}/leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// MaxUploadBytes caps the accepted CSV upload size.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// KeepSampleTraces controls whether raw posterior samples are kept
	// in stored reports. Heavy on memory for large sample counts.
	KeepSampleTraces bool `koanf:"keep_sample_traces"`

	// Engine parameter defaults applied to submissions that leave the
	// corresponding field unset.
	MaxIter     int     `koanf:"max_iter"`
	Tolerance   float64 `koanf:"tolerance"`
	MCMCSamples int     `koanf:"mcmc_samples"`
	MCMCBurnIn  int     `koanf:"mcmc_burn_in"`
	MCMCThin    int     `koanf:"mcmc_thin"`
	ProposalStd float64 `koanf:"proposal_std"`
	PriorStd    float64 `koanf:"prior_std"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		QueueSize:           1024,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          50_000,
		MaxAnalyses:         1000,
		MaxLeaderboardLimit: 100,
		MaxUploadBytes:      16 << 20,
		KeepSampleTraces:    true,
		MaxIter:             10_000,
		Tolerance:           1e-12,
		MCMCSamples:         10_000,
		MCMCBurnIn:          2000,
		MCMCThin:            5,
		ProposalStd:         0.5,
		PriorStd:            2.0,
	}
}

// EngineDefaults bundles the engine knobs into the parameter shape the
// service substitutes into submissions.
func (c *Config) EngineDefaults() model.Params {
	return model.Params{
		MaxIter:     c.MaxIter,
		Tolerance:   c.Tolerance,
		Samples:     c.MCMCSamples,
		BurnIn:      c.MCMCBurnIn,
		Thin:        c.MCMCThin,
		ProposalStd: c.ProposalStd,
		PriorStd:    c.PriorStd,
	}
}

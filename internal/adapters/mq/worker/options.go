// Package worker defines worker contracts for asynchronous analysis runs.
package worker

import (
	"github.com/arenalab/btrank/pkg/logger"
)

// Option applies a configuration option to the AnalysisWorker.
type Option func(*AnalysisWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *AnalysisWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *AnalysisWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

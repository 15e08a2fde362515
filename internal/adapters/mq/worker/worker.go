// Package worker defines worker contracts for asynchronous analysis runs.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/arenalab/btrank/internal/domain/engine"
	"github.com/arenalab/btrank/internal/domain/model"
	"github.com/arenalab/btrank/pkg/logger"
	"github.com/arenalab/btrank/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = model.Job

// Recorder persists job state transitions and finished reports.
type Recorder interface {
	MarkRunning(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, report model.Report) error
	Fail(ctx context.Context, id string, reason string) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes analysis jobs and records the results.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// AnalysisWorker implements Worker for rating analysis jobs.
type AnalysisWorker struct {
	queue    Queue
	analyzer engine.Analyzer
	recorder Recorder
	name     string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewAnalysisWorker creates a new worker with configuration options.
func NewAnalysisWorker(queue Queue, analyzer engine.Analyzer, recorder Recorder, opts ...Option) *AnalysisWorker {
	w := &AnalysisWorker{
		queue:    queue,
		analyzer: analyzer,
		recorder: recorder,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *AnalysisWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobChan:
			if !ok {
				// Channel closed, worker should stop.
				return
			}
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *AnalysisWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob runs the pipeline for one job and records the outcome.
func (w *AnalysisWorker) processJob(ctx context.Context, job Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.recorder.MarkRunning(ctx, job.ID); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("mark running %s: %w", job.ID, err)
	}

	w.logger.Debug(ctx, "analysis started",
		logger.String("analysisID", job.ID),
		logger.Int("matches", len(job.Matches)),
	)

	report, err := w.analyzer.Analyze(ctx, job.Matches, job.Params)
	if err != nil {
		metrics.RecordAnalysisFailed()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "analysis_error")
		metrics.RecordErrorByType("analysis_error", "high")
		w.logger.Error(ctx, "analysis failed",
			logger.String("analysisID", job.ID),
			logger.Error(err),
		)
		if failErr := w.recorder.Fail(ctx, job.ID, err.Error()); failErr != nil {
			return fmt.Errorf("record failure for %s: %w", job.ID, failErr)
		}
		return fmt.Errorf("analyze %s: %w", job.ID, err)
	}

	if err := w.recorder.Complete(ctx, job.ID, report); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		metrics.RecordErrorByType("store_error", "high")
		w.logger.Error(ctx, "storing report failed",
			logger.String("analysisID", job.ID),
			logger.Error(err),
		)
		return fmt.Errorf("store report for %s: %w", job.ID, err)
	}

	metrics.RecordAnalysisCompleted()
	w.logger.Info(ctx, "analysis finished",
		logger.String("analysisID", job.ID),
		logger.Int("players", len(report.Players)),
		logger.Int("iterations", report.Iterations),
		logger.Bool("converged", report.Converged),
		logger.Int64("elapsedMs", report.ElapsedMS),
	)

	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers  []*AnalysisWorker
	queue    Queue
	analyzer engine.Analyzer
	recorder Recorder

	// Shutdown control
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, analyzer engine.Analyzer, recorder Recorder) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*AnalysisWorker, workerCount),
		queue:    queue,
		analyzer: analyzer,
		recorder: recorder,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewAnalysisWorker(
			queue,
			analyzer,
			recorder,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	metrics.UpdateWorkerIdleCount(0)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, worker := range p.workers {
		select {
		case <-worker.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool, closing the
// queue first so no new jobs arrive.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}

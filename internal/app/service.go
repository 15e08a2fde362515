// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/arenalab/btrank/internal/adapters/mq/queue"
	workerpool "github.com/arenalab/btrank/internal/adapters/mq/worker"
	"github.com/arenalab/btrank/internal/adapters/repository"
	"github.com/arenalab/btrank/internal/domain/dedupe"
	"github.com/arenalab/btrank/internal/domain/engine"
	"github.com/arenalab/btrank/internal/domain/match"
	"github.com/arenalab/btrank/internal/domain/model"
	"github.com/arenalab/btrank/pkg/logger"
	"github.com/arenalab/btrank/pkg/metrics"
)

// Service wires the analysis pipeline: store, deduper, job queue and
// worker pool around the rating engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	jobQueue   jobqueue.Queue
	engine     *engine.Engine
	workerPool *workerpool.Pool

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	maxAnalyses    int
	engineDefaults model.Params
	keepTraces     bool

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the fingerprint cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxAnalyses bounds how many analyses the store retains.
func WithMaxAnalyses(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAnalyses = n
		}
	}
}

// WithEngineDefaults sets the parameter defaults substituted into
// submissions that leave fields unset.
func WithEngineDefaults(p model.Params) Option {
	return func(s *Service) {
		s.engineDefaults = p
	}
}

// WithSampleTraces controls whether raw posterior traces are kept in
// stored reports.
func WithSampleTraces(keep bool) Option {
	return func(s *Service) {
		s.keepTraces = keep
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU(),
		queueSize:      1024,
		dedupeSize:     50000,
		maxAnalyses:    1000,
		engineDefaults: engine.DefaultParams(),
		keepTraces:     true,
		logger:         nil, // set on Start when absent
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting rating service...")

	s.store = repository.NewMemStore(
		repository.WithMaxAnalyses(s.maxAnalyses),
	)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
		jobqueue.WithBufferSize(s.queueSize),
	)
	s.engine = engine.NewEngine(
		engine.WithDefaults(s.engineDefaults),
		engine.WithSampleTraces(s.keepTraces),
	)

	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s.engine, s.store)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping rating service...")

	if q, ok := s.jobQueue.(*jobqueue.InMemoryQueue); ok {
		_ = q.Close()
	}
	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	s.started = false
	s.logger.Info(context.Background(), "rating service stopped")
}

// Submit registers a dataset for analysis. Identical datasets (same
// matches, same parameters) are answered from the existing analysis.
func (s *Service) Submit(ctx context.Context, matches []match.Result, params model.Params) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return "", false, ErrNotStarted
	}

	resolved := s.engine.Resolve(params, len(matches))
	fingerprint := dedupe.Fingerprint(matches, resolved)
	id := uuid.NewString()

	existingID, seen := s.deduper.SeenOrRecord(ctx, fingerprint, id)
	if seen {
		metrics.RecordAnalysisDuplicate()
		s.logger.Debug(ctx, "duplicate dataset, reusing analysis",
			logger.String("analysisID", existingID),
		)
		return existingID, true, nil
	}

	a := model.Analysis{
		ID:          id,
		Status:      model.StatusQueued,
		SubmittedAt: time.Now().UTC(),
		MatchCount:  len(matches),
		Params:      resolved,
	}
	if err := s.store.Create(ctx, a); err != nil {
		s.deduper.Unrecord(ctx, fingerprint)
		return "", false, err
	}

	job := model.Job{ID: id, Matches: matches, Params: resolved}
	if ok := s.jobQueue.Enqueue(ctx, job); !ok {
		// Roll back so the dataset can be resubmitted once the queue
		// has room.
		s.deduper.Unrecord(ctx, fingerprint)
		_ = s.store.Fail(ctx, id, "queue full")
		return "", false, ErrBackpressure
	}

	metrics.RecordAnalysisSubmitted()
	metrics.RecordMatchesPerAnalysis(len(matches))
	metrics.UpdateQueueSize(s.jobQueue.Len(ctx))

	s.logger.Info(ctx, "analysis submitted",
		logger.String("analysisID", id),
		logger.Int("matches", len(matches)),
	)
	return id, false, nil
}

// Get returns the analysis by id.
func (s *Service) Get(ctx context.Context, id string) (model.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return model.Analysis{}, ErrNotStarted
	}
	return s.store.Get(ctx, id)
}

// Leaderboard returns the top-n ranked entries of a finished analysis.
func (s *Service) Leaderboard(ctx context.Context, id string, n int) ([]repository.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store.Leaderboard(ctx, id, n)
}

// Stats is a point-in-time snapshot of the pipeline for monitoring.
type Stats struct {
	Started        bool  `json:"started"`
	WorkerCount    int   `json:"worker_count"`
	QueueCapacity  int   `json:"queue_capacity"`
	QueueLength    int   `json:"queue_length"`
	DedupeCapacity int   `json:"dedupe_capacity"`
	Fingerprints   int64 `json:"fingerprints"`
	AnalysesStored int   `json:"analyses_stored"`
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Started:        s.started,
		WorkerCount:    s.workerCount,
		QueueCapacity:  s.queueSize,
		DedupeCapacity: s.dedupeSize,
	}

	if s.started {
		ctx := context.Background()
		stats.QueueLength = s.jobQueue.Len(ctx)
		stats.AnalysesStored = s.store.Count(ctx)
		stats.Fingerprints = s.deduper.Size()

		metrics.UpdateQueueSize(stats.QueueLength)
		metrics.UpdateAnalysesStored(stats.AnalysesStored)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/arenalab/btrank/internal/domain/model"
	"github.com/arenalab/btrank/pkg/metrics"
)

// Default store configuration constants.
const (
	defaultMaxAnalyses = 1000
)

// record couples a stored analysis with its precomputed leaderboard.
type record struct {
	analysis    model.Analysis
	leaderboard []Entry
}

// MemStore is an in-memory Store. Leaderboards are sorted snapshots
// built once when a report is stored, so reads never re-sort.
type MemStore struct {
	mu          sync.RWMutex
	records     map[string]*record
	order       []string // insertion order, for eviction
	maxAnalyses int
}

// NewMemStore creates a new in-memory store with configuration options.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		records:     make(map[string]*record),
		maxAnalyses: defaultMaxAnalyses,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a newly submitted analysis.
func (s *MemStore) Create(ctx context.Context, a model.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[a.ID]; exists {
		return ErrDuplicateID
	}

	// Evict the oldest analyses when at capacity. Results are per-run
	// artifacts, not durable state, so dropping old ones is acceptable.
	for s.maxAnalyses > 0 && len(s.records) >= s.maxAnalyses && len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.records, oldest)
	}

	s.records[a.ID] = &record{analysis: a}
	s.order = append(s.order, a.ID)
	metrics.UpdateAnalysesStored(len(s.records))
	return nil
}

// MarkRunning transitions an analysis to the running state.
func (s *MemStore) MarkRunning(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.analysis.Status = model.StatusRunning
	return nil
}

// Complete stores the finished report, builds the leaderboard snapshot
// and transitions to done.
func (s *MemStore) Complete(ctx context.Context, id string, report model.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.analysis.Status = model.StatusDone
	rec.analysis.Report = &report
	rec.leaderboard = buildLeaderboard(&report)
	return nil
}

// Fail records a failure reason.
func (s *MemStore) Fail(ctx context.Context, id string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.analysis.Status = model.StatusFailed
	rec.analysis.Err = reason
	return nil
}

// Get returns the analysis by id.
func (s *MemStore) Get(ctx context.Context, id string) (model.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return model.Analysis{}, ErrNotFound
	}
	return rec.analysis, nil
}

// Leaderboard returns the top-n ranked entries of a finished analysis.
func (s *MemStore) Leaderboard(ctx context.Context, id string, n int) ([]Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	if rec.analysis.Report == nil {
		return nil, ErrNotReady
	}
	if n > len(rec.leaderboard) {
		n = len(rec.leaderboard)
	}
	out := make([]Entry, n)
	copy(out, rec.leaderboard[:n])
	return out, nil
}

// Count returns the number of analyses tracked by the store.
func (s *MemStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// buildLeaderboard ranks players by MLE rating desc, breaking ties by id
// so the ordering is deterministic.
func buildLeaderboard(report *model.Report) []Entry {
	entries := make([]Entry, 0, len(report.Players))
	for _, id := range report.Players {
		entries = append(entries, Entry{
			Player:   id,
			Rating:   report.Ratings[id],
			Strength: report.Strengths[id],
			Elo:      report.Elo[id],
			CILower:  report.Posterior.CILower[id],
			CIUpper:  report.Posterior.CIUpper[id],
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Rating != entries[j].Rating {
			return entries[i].Rating > entries[j].Rating
		}
		return entries[i].Player < entries[j].Player
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

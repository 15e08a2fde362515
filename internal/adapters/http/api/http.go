// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arenalab/btrank/internal/adapters/repository"
	"github.com/arenalab/btrank/internal/domain/match"
	"github.com/arenalab/btrank/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit registers a dataset for asynchronous analysis. The returned
	// bool reports whether an identical submission already existed.
	Submit(ctx context.Context, matches []match.Result, params model.Params) (string, bool, error)

	// Read operations expose analysis state.
	Get(ctx context.Context, id string) (model.Analysis, error)
	Leaderboard(ctx context.Context, id string, n int) ([]Entry, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = repository.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	analysesHandler *AnalysesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		analysesHandler: NewAnalysesHandler(deps, o),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/analyses", MetricsMiddleware(s.analysesHandler.HandlePostAnalysis, "analyses"))
	mux.HandleFunc("/analyses/", MetricsMiddleware(s.analysesHandler.HandleGetAnalysis, "analysis"))
}

type ackResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

// isNotReady reports whether a read hit an analysis that has not
// finished yet.
func isNotReady(err error) bool {
	return errors.Is(err, repository.ErrNotReady)
}

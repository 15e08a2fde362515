// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	service "github.com/arenalab/btrank/internal/app"
	"github.com/arenalab/btrank/internal/domain/model"
	"github.com/arenalab/btrank/internal/loader"
	"github.com/arenalab/btrank/pkg/metrics"
)

// Default leaderboard page size when the caller omits ?limit.
const defaultLeaderboardLimit = 10

// AnalysesHandler handles analysis submission and retrieval requests.
type AnalysesHandler struct {
	deps Dependencies
	opts *options
}

// NewAnalysesHandler creates a new analyses handler.
func NewAnalysesHandler(deps Dependencies, opts *options) *AnalysesHandler {
	return &AnalysesHandler{deps: deps, opts: opts}
}

// HandlePostAnalysis handles POST /analyses requests. The body is a
// multipart form with a "file" part holding the CSV dataset; optional
// form fields select the winner/loser columns and override engine
// parameters. Resubmitting an identical dataset returns the existing
// analysis instead of recomputing.
func (h *AnalysesHandler) HandlePostAnalysis(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_analysis"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.maxUploadBytes)
	if err := r.ParseMultipartForm(h.opts.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	defer func() { _ = file.Close() }()

	start := time.Now()
	matches, err := loader.Load(file,
		loader.WithWinnerColumn(r.FormValue("winner_col")),
		loader.WithLoserColumn(r.FormValue("loser_col")),
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	metrics.RecordParseDuration(float64(time.Since(start).Milliseconds()))

	if len(matches) == 0 {
		writeError(w, http.StatusBadRequest, "empty_dataset", NewKind(op, ErrBadRequest))
		return
	}

	params, err := paramsFromForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	id, duplicate, err := h.deps.Submit(r.Context(), matches, params)
	switch {
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{ID: id, Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{ID: id, Status: "accepted", Duplicate: false})
}

// HandleGetAnalysis dispatches GET /analyses/{id} and
// GET /analyses/{id}/leaderboard requests.
func (h *AnalysesHandler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_analysis"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/analyses/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch sub {
	case "":
		h.getAnalysis(w, r, id)
	case "leaderboard":
		h.getLeaderboard(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *AnalysesHandler) getAnalysis(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.get_analysis"
	a, err := h.deps.Get(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AnalysesHandler) getLeaderboard(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.get_leaderboard"
	n := defaultLeaderboardLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		n = v
	}
	if n > h.opts.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}

	entries, err := h.deps.Leaderboard(r.Context(), id, n)
	if err != nil {
		switch {
		case isNotFound(err):
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
		case isNotReady(err):
			writeError(w, http.StatusConflict, "not_ready", Wrap(op, err))
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// paramsFromForm reads the optional engine-parameter overrides off the
// multipart form. Absent fields stay zero and pick up the configured
// defaults downstream.
func paramsFromForm(r *http.Request) (model.Params, error) {
	var p model.Params
	var err error
	if p.MaxIter, err = formInt(r, "max_iter"); err != nil {
		return p, err
	}
	if p.Tolerance, err = formFloat(r, "tolerance"); err != nil {
		return p, err
	}
	if p.Samples, err = formInt(r, "samples"); err != nil {
		return p, err
	}
	if p.BurnIn, err = formInt(r, "burn_in"); err != nil {
		return p, err
	}
	if p.Thin, err = formInt(r, "thin"); err != nil {
		return p, err
	}
	if p.ProposalStd, err = formFloat(r, "proposal_std"); err != nil {
		return p, err
	}
	if p.PriorStd, err = formFloat(r, "prior_std"); err != nil {
		return p, err
	}
	if p.StepSize, err = formInt(r, "step_size"); err != nil {
		return p, err
	}
	if p.Seed, err = formInt64(r, "seed"); err != nil {
		return p, err
	}
	return p, nil
}

func formInt(r *http.Request, key string) (int, error) {
	v := r.FormValue(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func formInt64(r *http.Request, key string) (int64, error) {
	v := r.FormValue(key)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func formFloat(r *http.Request, key string) (float64, error) {
	v := r.FormValue(key)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/target-explorer/internal/store"
	"github.com/pdiddy/target-explorer/pkg/types"
)

type listRunsResponse struct {
	Runs []store.RunSummary `json:"runs"`
}

type articlesResponse struct {
	RunID    string          `json:"run_id"`
	Articles []types.Article `json:"articles"`
}

type targetsResponse struct {
	RunID   string               `json:"run_id"`
	Targets []types.TargetRecord `json:"targets"`
}

type targetArticlesResponse struct {
	RunID    string              `json:"run_id"`
	Key      string              `json:"key"`
	Name     string              `json:"name"`
	Articles []types.ArticleLink `json:"articles"`
}

type searchResponse struct {
	Query string             `json:"query"`
	Hits  []store.ArticleHit `json:"hits"`
}

// listRuns handles GET /runs.
func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if runs == nil {
		runs = []store.RunSummary{}
	}
	writeJSON(w, http.StatusOK, listRunsResponse{Runs: runs})
}

// getRun handles GET /runs/{runID}.
func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	rs, err := s.runs.Summary(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// listArticles handles GET /runs/{runID}/articles.
func (s *Server) listArticles(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if _, err := s.runs.Summary(r.Context(), runID); err != nil {
		s.writeStoreError(w, err)
		return
	}
	articles, err := s.runs.Articles(r.Context(), runID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if articles == nil {
		articles = []types.Article{}
	}
	writeJSON(w, http.StatusOK, articlesResponse{RunID: runID, Articles: articles})
}

// listTargets handles GET /runs/{runID}/targets. Targets are in rank order.
func (s *Server) listTargets(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if _, err := s.runs.Summary(r.Context(), runID); err != nil {
		s.writeStoreError(w, err)
		return
	}
	recs, err := s.runs.Targets(r.Context(), runID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if recs == nil {
		recs = []types.TargetRecord{}
	}
	writeJSON(w, http.StatusOK, targetsResponse{RunID: runID, Targets: recs})
}

// getTarget handles GET /runs/{runID}/targets/{key}.
func (s *Server) getTarget(w http.ResponseWriter, r *http.Request) {
	rec, err := s.runs.Target(r.Context(), chi.URLParam(r, "runID"), chi.URLParam(r, "key"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// getTargetArticles handles GET /runs/{runID}/targets/{key}/articles.
func (s *Server) getTargetArticles(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	rec, err := s.runs.Target(r.Context(), runID, chi.URLParam(r, "key"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, targetArticlesResponse{
		RunID:    runID,
		Key:      rec.Key,
		Name:     rec.Name,
		Articles: rec.ArticleLinks,
	})
}

// searchArticles handles GET /search?q=...&run=...&limit=....
func (s *Server) searchArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	hits, err := s.runs.SearchArticles(r.Context(), store.SearchOptions{
		Query:      q,
		RunID:      r.URL.Query().Get("run"),
		MaxResults: limit,
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if hits == nil {
		hits = []store.ArticleHit{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: q, Hits: hits})
}

// parseLimit reads the optional limit query parameter. Zero means the store
// default.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}

// writeStoreError maps store errors to HTTP status codes.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrRunNotFound):
		writeError(w, http.StatusNotFound, "run not found")
	case errors.Is(err, store.ErrTargetNotFound):
		writeError(w, http.StatusNotFound, "target not found")
	default:
		s.logger.Error().Err(err).Msg("store query failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/target-explorer/internal/europepmc"
	"github.com/pdiddy/target-explorer/internal/observability"
	"github.com/pdiddy/target-explorer/internal/store"
	"github.com/pdiddy/target-explorer/internal/targets"
	"github.com/pdiddy/target-explorer/pkg/types"
)

// --- test helpers ---

func sampleRun() *targets.Run {
	glp1r := &types.TargetRecord{
		Key: "p43220", Name: "GLP1R", Accession: "P43220",
		ReferenceURL: "https://www.uniprot.org/uniprotkb/P43220/entry",
		Frequency:    2,
		Articles:     []string{"MED:1", "MED:2"},
		ArticleLinks: []types.ArticleLink{
			{Token: "MED:1", URL: "https://europepmc.org/abstract/MED/1"},
			{Token: "MED:2", URL: "https://europepmc.org/abstract/MED/2"},
		},
	}
	started := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	return &targets.Run{
		Request:    europepmc.SearchRequest{Query: "obesity", FromYear: 2023, ToYear: 2025, MaxResults: 10},
		TopK:       3,
		TagPolicy:  targets.AllTags,
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
		Articles: []types.Article{
			{ID: "1", Source: "MED", PMID: "1", Title: "GLP1R agonists", Abstract: "Semaglutide in obesity.", URL: "https://europepmc.org/abstract/MED/1"},
			{ID: "2", Source: "MED", PMID: "2", Title: "Incretin biology", Abstract: "Receptor signalling.", URL: "https://europepmc.org/abstract/MED/2"},
		},
		Result: &targets.Result{
			Ranked:  []types.RankedTarget{{Key: "p43220", Frequency: 2}},
			Records: map[string]*types.TargetRecord{"p43220": glp1r},
			Stats:   targets.Stats{Articles: 2, Tokens: 2, AnnotatedArticles: 2, Annotations: 2, DistinctKeys: 1},
		},
	}
}

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	st, err := store.NewStore(types.StoreConfig{DataDir: t.TempDir(), MaxResults: 20})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	id, err := st.SaveRun(context.Background(), sampleRun())
	require.NoError(t, err)

	return NewServer(DefaultConfig(), st, observability.NewMetrics(), zerolog.Nop()), id
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

// --- tests ---

func TestHealthz(t *testing.T) {
	s, _ := testServer(t)
	rr := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rr)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := testServer(t)
	s.metrics.PagesFetched.Inc()
	rr := get(t, s, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "target_explorer_search_pages_fetched_total 1")
}

func TestMetricsEndpoint_NotMountedWithoutMetrics(t *testing.T) {
	s := NewServer(DefaultConfig(), errStore{}, nil, zerolog.Nop())
	assert.Equal(t, http.StatusNotFound, get(t, s, "/metrics").Code)
}

func TestListRuns(t *testing.T) {
	s, id := testServer(t)
	rr := get(t, s, "/api/v1/runs")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	resp := decode[listRunsResponse](t, rr)
	require.Len(t, resp.Runs, 1)
	assert.Equal(t, id, resp.Runs[0].ID)
	assert.Equal(t, "obesity", resp.Runs[0].Request.Query)
	assert.Equal(t, 1, resp.Runs[0].Targets)
}

func TestListRuns_BadLimit(t *testing.T) {
	s, _ := testServer(t)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/v1/runs?limit=-1").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/v1/runs?limit=abc").Code)
}

func TestGetRun(t *testing.T) {
	s, id := testServer(t)

	rr := get(t, s, "/api/v1/runs/"+id)
	require.Equal(t, http.StatusOK, rr.Code)
	rs := decode[store.RunSummary](t, rr)
	assert.Equal(t, id, rs.ID)
	assert.Equal(t, 3, rs.TopK)
	assert.Equal(t, 2, rs.Stats.Articles)

	rr = get(t, s, "/api/v1/runs/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "run not found", decode[map[string]string](t, rr)["error"])
}

func TestListArticlesAndTargets(t *testing.T) {
	s, id := testServer(t)

	arts := decode[articlesResponse](t, get(t, s, "/api/v1/runs/"+id+"/articles"))
	assert.Equal(t, id, arts.RunID)
	require.Len(t, arts.Articles, 2)
	assert.Equal(t, "1", arts.Articles[0].PMID)

	tg := decode[targetsResponse](t, get(t, s, "/api/v1/runs/"+id+"/targets"))
	require.Len(t, tg.Targets, 1)
	assert.Equal(t, "GLP1R", tg.Targets[0].Name)
	assert.Equal(t, 2, tg.Targets[0].Frequency)

	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/v1/runs/nope/articles").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/v1/runs/nope/targets").Code)
}

func TestGetTarget(t *testing.T) {
	s, id := testServer(t)

	rr := get(t, s, "/api/v1/runs/"+id+"/targets/P43220")
	require.Equal(t, http.StatusOK, rr.Code)
	rec := decode[types.TargetRecord](t, rr)
	assert.Equal(t, "p43220", rec.Key)
	assert.Equal(t, []string{"MED:1", "MED:2"}, rec.Articles)

	rr = get(t, s, "/api/v1/runs/"+id+"/targets/unknown")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "target not found", decode[map[string]string](t, rr)["error"])
}

func TestGetTargetArticles(t *testing.T) {
	s, id := testServer(t)

	rr := get(t, s, "/api/v1/runs/"+id+"/targets/p43220/articles")
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[targetArticlesResponse](t, rr)
	assert.Equal(t, "GLP1R", resp.Name)
	require.Len(t, resp.Articles, 2)
	assert.Equal(t, "https://europepmc.org/abstract/MED/2", resp.Articles[1].URL)
}

func TestSearchArticles(t *testing.T) {
	s, id := testServer(t)

	rr := get(t, s, "/api/v1/search?q=semaglutide")
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[searchResponse](t, rr)
	require.Len(t, resp.Hits, 1)
	assert.Equal(t, id, resp.Hits[0].RunID)
	assert.Equal(t, "MED:1", resp.Hits[0].Token)

	resp = decode[searchResponse](t, get(t, s, "/api/v1/search?q=semaglutide&run=other"))
	assert.Empty(t, resp.Hits)

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/v1/search").Code)
}

type errStore struct{ *store.Store }

func (errStore) ListRuns(context.Context, int) ([]store.RunSummary, error) {
	return nil, errors.New("disk on fire")
}

func TestStoreErrorIsInternal(t *testing.T) {
	s := NewServer(DefaultConfig(), errStore{}, nil, zerolog.Nop())
	rr := get(t, s, "/api/v1/runs")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.False(t, strings.Contains(rr.Body.String(), "disk on fire"))
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	s := NewServer(cfg, errStore{}, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

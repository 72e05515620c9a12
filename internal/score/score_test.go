// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/target-explorer/internal/observability"
	"github.com/pdiddy/target-explorer/pkg/types"
)

// --- mock backend ---

type mockBackend struct {
	replies []string // returned in order; the last one repeats
	errs    []error  // per-call errors, nil entries succeed
	prompts []string
}

func (m *mockBackend) Complete(_ context.Context, prompt string) (string, error) {
	i := len(m.prompts)
	m.prompts = append(m.prompts, prompt)
	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	if len(m.replies) == 0 {
		return "", nil
	}
	return m.replies[min(i, len(m.replies)-1)], nil
}

func TestMain(m *testing.M) {
	backoffBase = time.Millisecond
	os.Exit(m.Run())
}

const articleReply = `Sure, here is the JSON:
{"target": "GLP1R", "article_id": "MED:1", "overall_targets": ["GLP1R", "GCGR"],
 "disease_linkage": {"answer": "Yes", "evidence": ["MED:1 GWAS hit", "MED:1 knockout"], "confidence": "High"},
 "validation_strength": {"answer": "Partial", "evidence": [], "confidence": "Medium"},
 "summary_score": "High priority target"}
Hope this helps.`

func articles() []types.Article {
	return []types.Article{
		{PMID: "1", Title: "GLP1R in obesity", Abstract: "Agonists reduce weight."},
		{PMID: "2", Title: "No abstract"},
		{PMID: "3", Title: "Second", Abstract: "More data."},
		{Title: "Unidentified", Abstract: "Still scored."},
	}
}

// --- ParseAssessment ---

func TestParseAssessment(t *testing.T) {
	as := ParseAssessment(articleReply)
	require.False(t, as.Failed())
	assert.Equal(t, "GLP1R", as.Target)
	assert.Equal(t, []string{"GLP1R", "GCGR"}, as.OverallTargets)
	require.NotNil(t, as.DiseaseLinkage)
	assert.Equal(t, "Yes", as.DiseaseLinkage.Answer)
	assert.Len(t, as.DiseaseLinkage.Evidence, 2)
	assert.Nil(t, as.DruggabilitySafety)
	assert.Equal(t, "High priority target", as.SummaryScore)
}

func TestParseAssessment_Failures(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no braces", "I cannot answer that."},
		{"broken json", `{"target": "X", "disease_linkage": {`},
		{"reversed braces", "} nothing {"},
		{"wrong shape", `{"disease_linkage": "yes"}`},
		{"empty", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			as := ParseAssessment(tt.text)
			assert.True(t, as.Failed())
			assert.Equal(t, ParseFailure, as.Error)
			assert.Equal(t, strings.TrimSpace(tt.text), as.Raw)
		})
	}
}

func TestParseAssessment_IgnoresReservedFields(t *testing.T) {
	as := ParseAssessment(`{"target": "X", "error": "model said so", "raw": "zzz"}`)
	assert.False(t, as.Failed())
	assert.Empty(t, as.Raw)
}

func TestExtractJSON(t *testing.T) {
	got, err := ExtractJSON(`prefix {"a": {"b": 1}} suffix`)
	require.NoError(t, err)
	assert.Equal(t, `{"a": {"b": 1}}`, got)

	_, err = ExtractJSON("no json")
	assert.ErrorIs(t, err, ErrNoJSON)
}

// --- AnalyzeArticles ---

func TestAnalyzeArticles(t *testing.T) {
	backend := &mockBackend{replies: []string{articleReply, "not json", `{"summary_score": "Low"}`}}
	m := observability.NewMetrics()
	s := NewScorer(backend, WithMetrics(m))

	got, skipped, err := s.AnalyzeArticles(context.Background(), "GLP1R", articles())
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, got, 3)

	assert.Equal(t, "MED:1", got[0].ArticleID)
	assert.Equal(t, "GLP1R in obesity", got[0].Title)

	assert.True(t, got[1].Failed())
	assert.Equal(t, "MED:3", got[1].ArticleID)
	assert.Equal(t, "not json", got[1].Raw)

	assert.Equal(t, "3", got[2].ArticleID, "index used when no identifier")

	require.Len(t, backend.prompts, 3)
	assert.Contains(t, backend.prompts[0], "Target of interest: GLP1R")
	assert.Contains(t, backend.prompts[0], "Article ID: MED:1")
	assert.Contains(t, backend.prompts[0], "## Druggability Safety")
	assert.Contains(t, backend.prompts[0], Questions[types.CategoryNoveltyPrioritization][0])

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LLMCalls.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMCalls.WithLabelValues("unparsed")))
}

func TestAnalyzeArticles_MaxArticles(t *testing.T) {
	backend := &mockBackend{replies: []string{articleReply}}
	s := NewScorer(backend, WithMaxArticles(2))

	got, skipped, err := s.AnalyzeArticles(context.Background(), "GLP1R", articles())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, skipped)
}

func TestAnalyzeArticles_BackendErrorTagsArticle(t *testing.T) {
	backend := &mockBackend{
		replies: []string{articleReply},
		errs:    []error{errors.New("overloaded")},
	}
	m := observability.NewMetrics()
	s := NewScorer(backend, WithMetrics(m))

	got, _, err := s.AnalyzeArticles(context.Background(), "GLP1R", articles()[:1])
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Failed())
	assert.Contains(t, got[0].Error, "overloaded")
	assert.Len(t, backend.prompts, 1, "no retries by default")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMCalls.WithLabelValues("error")))
}

func TestAnalyzeArticles_Retries(t *testing.T) {
	backend := &mockBackend{
		replies: []string{articleReply},
		errs:    []error{errors.New("a"), errors.New("b")},
	}
	s := NewScorer(backend, WithMaxRetries(2))

	got, _, err := s.AnalyzeArticles(context.Background(), "GLP1R", articles()[:1])
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Failed())
	assert.Len(t, backend.prompts, 3)
}

func TestAnalyzeArticles_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	backend := &mockBackend{errs: []error{context.Canceled}}
	s := NewScorer(backend)

	_, _, err := s.AnalyzeArticles(ctx, "GLP1R", articles())
	assert.ErrorIs(t, err, context.Canceled)
}

// --- Score ---

func TestScore(t *testing.T) {
	corpusReply := `{"disease_linkage": {"answer": "Yes", "evidence": ["[MED:1] hit"], "confidence": "High"}, "summary_score": "High"}`
	backend := &mockBackend{replies: []string{articleReply, articleReply, articleReply, corpusReply}}
	s := NewScorer(backend)

	rep, err := s.Score(context.Background(), "GLP1R", articles())
	require.NoError(t, err)
	assert.Len(t, rep.Articles, 3)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, "GLP1R", rep.Corpus.Target)
	assert.Equal(t, "High", rep.Corpus.SummaryScore)

	corpusPrompt := backend.prompts[len(backend.prompts)-1]
	assert.Contains(t, corpusPrompt, "Per-article summaries:")
	assert.Contains(t, corpusPrompt, `"article_id": "MED:1"`)
}

func TestAggregateCorpus_Unparsed(t *testing.T) {
	s := NewScorer(&mockBackend{replies: []string{"sorry"}})
	as, err := s.AggregateCorpus(context.Background(), "GLP1R", nil)
	require.NoError(t, err)
	assert.True(t, as.Failed())
	assert.Empty(t, as.Target)
}

// --- callWithRetry ---

func TestCallWithRetry(t *testing.T) {
	tests := []struct {
		name       string
		failures   int
		maxRetries int
		wantErr    bool
		wantCalls  int
	}{
		{"success first try", 0, 0, false, 1},
		{"no retries", 1, 0, true, 1},
		{"recovers", 2, 3, false, 3},
		{"exhausted", 5, 2, true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := make([]error, tt.failures)
			for i := range errs {
				errs[i] = fmt.Errorf("transient %d", i)
			}
			backend := &mockBackend{replies: []string{"ok"}, errs: errs}
			text, err := callWithRetry(context.Background(), backend, "p", tt.maxRetries)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "ok", text)
			}
			assert.Len(t, backend.prompts, tt.wantCalls)
		})
	}
}

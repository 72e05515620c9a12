// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package targets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/target-explorer/internal/articleid"
	"github.com/pdiddy/target-explorer/internal/europepmc"
	"github.com/pdiddy/target-explorer/pkg/types"
)

// ArticleFetcher returns the articles matching a search.
type ArticleFetcher interface {
	FetchArticles(ctx context.Context, req europepmc.SearchRequest) ([]types.Article, error)
}

// Run is one complete discovery: the search, its articles and the ranking.
type Run struct {
	Request    europepmc.SearchRequest `json:"request" yaml:"request"`
	TopK       int                     `json:"top_k" yaml:"top_k"`
	TagPolicy  types.TagPolicy         `json:"tag_policy" yaml:"tag_policy"`
	StartedAt  time.Time               `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time               `json:"finished_at" yaml:"finished_at"`
	Articles   []types.Article         `json:"articles" yaml:"articles"`
	Result     *Result                 `json:"result" yaml:"result"`
}

// Targets returns the run's target records in rank order.
func (r *Run) Targets() []types.TargetRecord {
	if r.Result == nil {
		return nil
	}
	return r.Result.Ordered()
}

// Find returns the ranked record whose key, name or accession matches s,
// ignoring case. Keys are checked before names.
func (r *Run) Find(s string) (types.TargetRecord, bool) {
	s = strings.TrimSpace(s)
	if r.Result == nil || s == "" {
		return types.TargetRecord{}, false
	}
	if rec, ok := r.Result.Records[strings.ToLower(s)]; ok {
		return *rec, true
	}
	for _, rec := range r.Targets() {
		if strings.EqualFold(rec.Name, s) || strings.EqualFold(rec.Accession, s) {
			return rec, true
		}
	}
	return types.TargetRecord{}, false
}

// SupportingArticles returns the run's articles that mention rec, in the
// order the search returned them.
func (r *Run) SupportingArticles(rec types.TargetRecord) []types.Article {
	want := make(map[string]bool, len(rec.Articles))
	for _, tok := range rec.Articles {
		want[tok] = true
	}
	var out []types.Article
	for _, a := range r.Articles {
		tok := articleid.Token(a)
		if want[tok] {
			out = append(out, a)
			delete(want, tok)
		}
	}
	return out
}

// Discover searches for articles and ranks the targets they mention.
func Discover(ctx context.Context, fetcher ArticleFetcher, agg *Aggregator, req europepmc.SearchRequest, topK int) (*Run, error) {
	run := &Run{Request: req, TopK: topK, TagPolicy: agg.Policy(), StartedAt: time.Now().UTC()}

	articles, err := fetcher.FetchArticles(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetching articles: %w", err)
	}
	run.Articles = articles
	agg.logger.Info().Int("articles", len(articles)).Str("query", req.Query).Msg("articles fetched")

	res, err := agg.Aggregate(ctx, articles, topK)
	if err != nil {
		return nil, err
	}
	run.Result = res
	run.FinishedAt = time.Now().UTC()
	agg.logger.Info().
		Int("targets", len(res.Ranked)).
		Int("distinct_keys", res.Stats.DistinctKeys).
		Int("merges", len(res.Merges)).
		Msg("targets ranked")
	return run, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/target-explorer/internal/europepmc"
	"github.com/pdiddy/target-explorer/internal/targets"
	"github.com/pdiddy/target-explorer/pkg/types"
)

// RunSummary is one row of the run history.
type RunSummary struct {
	ID         string                  `json:"id" yaml:"id"`
	Request    europepmc.SearchRequest `json:"request" yaml:"request"`
	TopK       int                     `json:"top_k" yaml:"top_k"`
	TagPolicy  types.TagPolicy         `json:"tag_policy" yaml:"tag_policy"`
	StartedAt  time.Time               `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time               `json:"finished_at" yaml:"finished_at"`
	Stats      targets.Stats           `json:"stats" yaml:"stats"`
	Targets    int                     `json:"targets" yaml:"targets"`
}

const runColumns = `r.id, r.query, r.from_year, r.to_year, r.max_results, r.top_k, r.tag_policy,
	r.started_at, r.finished_at, r.n_articles, r.n_tokens, r.missing_tokens,
	r.annotated_articles, r.annotations, r.distinct_keys, r.merges,
	(SELECT count(*) FROM targets t WHERE t.run_id = r.id)`

func scanRun(sc interface{ Scan(...any) error }) (RunSummary, []types.MergeEvent, error) {
	var (
		rs                RunSummary
		policy            string
		started, finished sql.NullString
		mergesJSON        sql.NullString
	)
	err := sc.Scan(
		&rs.ID, &rs.Request.Query, &rs.Request.FromYear, &rs.Request.ToYear, &rs.Request.MaxResults,
		&rs.TopK, &policy, &started, &finished,
		&rs.Stats.Articles, &rs.Stats.Tokens, &rs.Stats.MissingTokens,
		&rs.Stats.AnnotatedArticles, &rs.Stats.Annotations, &rs.Stats.DistinctKeys,
		&mergesJSON, &rs.Targets,
	)
	if err != nil {
		return rs, nil, err
	}
	rs.TagPolicy = types.TagPolicy(policy)
	rs.StartedAt = parseTime(started)
	rs.FinishedAt = parseTime(finished)

	var merges []types.MergeEvent
	if mergesJSON.Valid && mergesJSON.String != "" && mergesJSON.String != "null" {
		if err := json.Unmarshal([]byte(mergesJSON.String), &merges); err != nil {
			return rs, nil, fmt.Errorf("decoding merges: %w", err)
		}
	}
	return rs, merges, nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit uses
// the store default.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs r ORDER BY r.started_at DESC, r.rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		rs, _, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

// Summary returns the history row of one run.
func (s *Store) Summary(ctx context.Context, runID string) (*RunSummary, error) {
	rs, _, err := s.summary(ctx, runID)
	if err != nil {
		return nil, err
	}
	return &rs, nil
}

func (s *Store) summary(ctx context.Context, runID string) (RunSummary, []types.MergeEvent, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, runID)
	rs, merges, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return rs, nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return rs, nil, fmt.Errorf("querying run: %w", err)
	}
	return rs, merges, nil
}

// GetRun rebuilds a stored run, including its articles and ranked targets.
func (s *Store) GetRun(ctx context.Context, runID string) (*targets.Run, error) {
	rs, merges, err := s.summary(ctx, runID)
	if err != nil {
		return nil, err
	}
	articles, err := s.Articles(ctx, runID)
	if err != nil {
		return nil, err
	}
	recs, err := s.Targets(ctx, runID)
	if err != nil {
		return nil, err
	}

	res := &targets.Result{
		Records: make(map[string]*types.TargetRecord, len(recs)),
		Merges:  merges,
		Stats:   rs.Stats,
	}
	for i := range recs {
		rec := recs[i]
		res.Ranked = append(res.Ranked, types.RankedTarget{Key: rec.Key, Frequency: rec.Frequency})
		res.Records[rec.Key] = &rec
	}
	return &targets.Run{
		Request:    rs.Request,
		TopK:       rs.TopK,
		TagPolicy:  rs.TagPolicy,
		StartedAt:  rs.StartedAt,
		FinishedAt: rs.FinishedAt,
		Articles:   articles,
		Result:     res,
	}, nil
}

// Articles returns the articles of a run in their original search order.
func (s *Store) Articles(ctx context.Context, runID string) ([]types.Article, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, pmid, pmcid, doi, title, abstract, pub_year, url
		 FROM articles WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	var out []types.Article
	for rows.Next() {
		var a types.Article
		if err := rows.Scan(&a.ID, &a.Source, &a.PMID, &a.PMCID, &a.DOI,
			&a.Title, &a.Abstract, &a.PubYear, &a.URL); err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Targets returns the target records of a run in rank order.
func (s *Store) Targets(ctx context.Context, runID string) ([]types.TargetRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, name, accession, reference_url, frequency
		 FROM targets WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying targets: %w", err)
	}
	var recs []types.TargetRecord
	for rows.Next() {
		var rec types.TargetRecord
		if err := rows.Scan(&rec.Key, &rec.Name, &rec.Accession, &rec.ReferenceURL, &rec.Frequency); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning target: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range recs {
		if err := s.loadLinks(ctx, runID, &recs[i]); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

// Target returns one target of a run. The key is matched case-insensitively.
func (s *Store) Target(ctx context.Context, runID, key string) (*types.TargetRecord, error) {
	if _, _, err := s.summary(ctx, runID); err != nil {
		return nil, err
	}
	var rec types.TargetRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT key, name, accession, reference_url, frequency
		 FROM targets WHERE run_id = ? AND key = ?`,
		runID, strings.ToLower(strings.TrimSpace(key)),
	).Scan(&rec.Key, &rec.Name, &rec.Accession, &rec.ReferenceURL, &rec.Frequency)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s in run %s: %w", key, runID, ErrTargetNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying target: %w", err)
	}
	if err := s.loadLinks(ctx, runID, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) loadLinks(ctx context.Context, runID string, rec *types.TargetRecord) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT token, url FROM target_articles WHERE run_id = ? AND key = ? ORDER BY position`,
		runID, rec.Key)
	if err != nil {
		return fmt.Errorf("querying article links: %w", err)
	}
	defer rows.Close()

	rec.Articles = []string{}
	rec.ArticleLinks = []types.ArticleLink{}
	for rows.Next() {
		var (
			link types.ArticleLink
			url  sql.NullString
		)
		if err := rows.Scan(&link.Token, &url); err != nil {
			return fmt.Errorf("scanning article link: %w", err)
		}
		link.URL = url.String
		rec.Articles = append(rec.Articles, link.Token)
		rec.ArticleLinks = append(rec.ArticleLinks, link)
	}
	return rows.Err()
}

// SearchOptions holds parameters for full-text article search.
type SearchOptions struct {
	// Query is the FTS5 match expression over title and abstract.
	Query string

	// RunID restricts the search to one run.
	RunID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// ArticleHit is an article matched by SearchArticles.
type ArticleHit struct {
	RunID         string `json:"run_id" yaml:"run_id"`
	Token         string `json:"token" yaml:"token"`
	types.Article `yaml:",inline"`
}

// SearchArticles runs a full-text query over stored article titles and
// abstracts, best matches first.
func (s *Store) SearchArticles(ctx context.Context, opts SearchOptions) ([]ArticleHit, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, errors.New("search query is required")
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT a.run_id, a.token, a.id, a.source, a.pmid, a.pmcid, a.doi,
			a.title, a.abstract, a.pub_year, a.url
		FROM articles_fts
		JOIN articles a ON a.rowid = articles_fts.rowid
		WHERE articles_fts MATCH ?`)
	args = append(args, opts.Query)
	if opts.RunID != "" {
		qb.WriteString(` AND a.run_id = ?`)
		args = append(args, opts.RunID)
	}
	qb.WriteString(` ORDER BY articles_fts.rank LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("searching articles: %w", err)
	}
	defer rows.Close()

	var hits []ArticleHit
	for rows.Next() {
		var h ArticleHit
		if err := rows.Scan(&h.RunID, &h.Token, &h.ID, &h.Source, &h.PMID, &h.PMCID, &h.DOI,
			&h.Title, &h.Abstract, &h.PubYear, &h.URL); err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

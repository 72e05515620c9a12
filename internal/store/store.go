// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store keeps a history of discovery runs in SQLite: the search that
// was issued, the articles it returned, and the ranked targets with their
// supporting articles. Article titles and abstracts are indexed with FTS5.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/target-explorer/internal/articleid"
	"github.com/pdiddy/target-explorer/internal/targets"
	"github.com/pdiddy/target-explorer/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "target-explorer.db"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// ErrTargetNotFound is returned when a run has no target with the requested key.
var ErrTargetNotFound = errors.New("target not found")

// Store manages the run history database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the database at dataDir/index/target-explorer.db
// and creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.DataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			from_year INTEGER,
			to_year INTEGER,
			max_results INTEGER,
			top_k INTEGER,
			tag_policy TEXT,
			started_at TEXT,
			finished_at TEXT,
			n_articles INTEGER,
			n_tokens INTEGER,
			missing_tokens INTEGER,
			annotated_articles INTEGER,
			annotations INTEGER,
			distinct_keys INTEGER,
			merges TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS articles (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			token TEXT,
			id TEXT,
			source TEXT,
			pmid TEXT,
			pmcid TEXT,
			doi TEXT,
			title TEXT,
			abstract TEXT,
			pub_year INTEGER,
			url TEXT,
			UNIQUE(run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_run ON articles(run_id)`,
		`CREATE TABLE IF NOT EXISTS targets (
			run_id TEXT NOT NULL REFERENCES runs(id),
			key TEXT NOT NULL,
			rank INTEGER NOT NULL,
			name TEXT,
			accession TEXT,
			reference_url TEXT,
			frequency INTEGER,
			PRIMARY KEY (run_id, key)
		)`,
		`CREATE TABLE IF NOT EXISTS target_articles (
			run_id TEXT NOT NULL,
			key TEXT NOT NULL,
			position INTEGER NOT NULL,
			token TEXT NOT NULL,
			url TEXT,
			PRIMARY KEY (run_id, key, token),
			FOREIGN KEY (run_id, key) REFERENCES targets(run_id, key)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='articles_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE articles_fts USING fts5(title, abstract, content=articles, content_rowid=rowid)`,
			`CREATE TRIGGER articles_ai AFTER INSERT ON articles BEGIN
				INSERT INTO articles_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
			END`,
			`CREATE TRIGGER articles_ad AFTER DELETE ON articles BEGIN
				INSERT INTO articles_fts(articles_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
			END`,
			`CREATE TRIGGER articles_au AFTER UPDATE ON articles BEGIN
				INSERT INTO articles_fts(articles_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
				INSERT INTO articles_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// SaveRun stores a completed run in one transaction and returns its new id.
func (s *Store) SaveRun(ctx context.Context, run *targets.Run) (string, error) {
	if run == nil || run.Result == nil {
		return "", errors.New("run has no result")
	}
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	mergesJSON, err := json.Marshal(run.Result.Merges)
	if err != nil {
		return "", fmt.Errorf("encoding merges: %w", err)
	}
	st := run.Result.Stats
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, query, from_year, to_year, max_results, top_k, tag_policy,
			started_at, finished_at, n_articles, n_tokens, missing_tokens,
			annotated_articles, annotations, distinct_keys, merges)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, run.Request.Query, run.Request.FromYear, run.Request.ToYear, run.Request.MaxResults,
		run.TopK, string(run.TagPolicy),
		formatTime(run.StartedAt), formatTime(run.FinishedAt),
		st.Articles, st.Tokens, st.MissingTokens, st.AnnotatedArticles, st.Annotations, st.DistinctKeys,
		string(mergesJSON),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	artStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO articles (run_id, position, token, id, source, pmid, pmcid, doi, title, abstract, pub_year, url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing article insert: %w", err)
	}
	defer artStmt.Close()

	for i, a := range run.Articles {
		_, err := artStmt.ExecContext(ctx,
			id, i, articleid.Token(a), a.ID, a.Source, a.PMID, a.PMCID, a.DOI,
			a.Title, a.Abstract, a.PubYear, a.URL,
		)
		if err != nil {
			return "", fmt.Errorf("inserting article %d: %w", i, err)
		}
	}

	tgtStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO targets (run_id, key, rank, name, accession, reference_url, frequency)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing target insert: %w", err)
	}
	defer tgtStmt.Close()

	linkStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO target_articles (run_id, key, position, token, url) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing link insert: %w", err)
	}
	defer linkStmt.Close()

	for rank, rec := range run.Result.Ordered() {
		_, err := tgtStmt.ExecContext(ctx,
			id, rec.Key, rank+1, rec.Name, rec.Accession, rec.ReferenceURL, rec.Frequency)
		if err != nil {
			return "", fmt.Errorf("inserting target %s: %w", rec.Key, err)
		}
		for pos, link := range rec.ArticleLinks {
			if _, err := linkStmt.ExecContext(ctx, id, rec.Key, pos, link.Token, link.URL); err != nil {
				return "", fmt.Errorf("inserting article link %s/%s: %w", rec.Key, link.Token, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// DeleteRun removes a run and everything stored under it.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM target_articles WHERE run_id = ?`,
		`DELETE FROM targets WHERE run_id = ?`,
		`DELETE FROM articles WHERE run_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, runID); err != nil {
			return fmt.Errorf("deleting run data: %w", err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	return tx.Commit()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

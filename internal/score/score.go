// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score asks a language model to assess a target against the
// articles that mention it. Each article is assessed on its own; the
// per-article results are then combined into one corpus-level assessment.
// Unparseable model output is kept as an error-tagged assessment so one bad
// reply never aborts the batch.
package score

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/target-explorer/internal/articleid"
	"github.com/pdiddy/target-explorer/internal/observability"
	"github.com/pdiddy/target-explorer/pkg/types"
)

// DefaultMaxArticles caps the number of articles assessed per target.
const DefaultMaxArticles = 10

// ParseFailure is the Error value of an assessment whose text held no
// parseable JSON object.
const ParseFailure = "Failed to parse JSON"

// ErrNoJSON is returned by ExtractJSON when text holds no JSON object.
var ErrNoJSON = errors.New("no JSON object in model output")

// AIBackend abstracts the language model so tests can supply a mock.
type AIBackend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Report holds every assessment made for one target.
type Report struct {
	Target   string             `json:"target" yaml:"target"`
	Articles []types.Assessment `json:"articles" yaml:"articles"`
	Corpus   types.Assessment   `json:"corpus" yaml:"corpus"`
	Skipped  int                `json:"skipped" yaml:"skipped"`
}

// Scorer runs assessments against a backend.
type Scorer struct {
	backend     AIBackend
	maxArticles int
	maxRetries  int
	logger      zerolog.Logger
	metrics     *observability.Metrics
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithMaxArticles limits how many articles are assessed.
func WithMaxArticles(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.maxArticles = n
		}
	}
}

// WithMaxRetries sets how often a failed backend call is retried. The
// default is zero.
func WithMaxRetries(n int) Option {
	return func(s *Scorer) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithLogger sets the scorer's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scorer) { s.logger = observability.Component(l, "score") }
}

// WithMetrics sets the metrics the scorer increments.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Scorer) { s.metrics = m }
}

// NewScorer creates a scorer using backend.
func NewScorer(backend AIBackend, opts ...Option) *Scorer {
	s := &Scorer{backend: backend, maxArticles: DefaultMaxArticles, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetrics()
	}
	return s
}

// Score assesses target against articles and combines the results.
func (s *Scorer) Score(ctx context.Context, target string, articles []types.Article) (*Report, error) {
	per, skipped, err := s.AnalyzeArticles(ctx, target, articles)
	if err != nil {
		return nil, err
	}
	corpus, err := s.AggregateCorpus(ctx, target, per)
	if err != nil {
		return nil, err
	}
	return &Report{Target: target, Articles: per, Corpus: corpus, Skipped: skipped}, nil
}

// AnalyzeArticles assesses up to the configured maximum of articles, in
// order. Articles without both a title and an abstract are skipped and
// counted. A failed backend call yields an error-tagged assessment for that
// article; only context cancellation stops the batch.
func (s *Scorer) AnalyzeArticles(ctx context.Context, target string, articles []types.Article) ([]types.Assessment, int, error) {
	if len(articles) > s.maxArticles {
		articles = articles[:s.maxArticles]
	}

	var (
		out     []types.Assessment
		skipped int
	)
	for i, a := range articles {
		title := strings.TrimSpace(a.Title)
		abstract := strings.TrimSpace(a.Abstract)
		if title == "" || abstract == "" {
			skipped++
			continue
		}
		id := articleid.Token(a)
		if id == "" {
			id = strconv.Itoa(i)
		}

		prompt, err := renderArticlePrompt(target, id, title, abstract)
		if err != nil {
			return nil, skipped, fmt.Errorf("rendering article prompt: %w", err)
		}
		as, err := s.assess(ctx, prompt)
		if err != nil {
			return nil, skipped, err
		}
		if as.ArticleID == "" {
			as.ArticleID = id
		}
		as.Title = title
		out = append(out, as)
		s.logger.Debug().Str("article", id).Bool("failed", as.Failed()).Msg("article assessed")
	}
	return out, skipped, nil
}

// AggregateCorpus combines per-article assessments into one.
func (s *Scorer) AggregateCorpus(ctx context.Context, target string, perArticle []types.Assessment) (types.Assessment, error) {
	prompt, err := renderCorpusPrompt(target, perArticle)
	if err != nil {
		return types.Assessment{}, fmt.Errorf("rendering corpus prompt: %w", err)
	}
	as, err := s.assess(ctx, prompt)
	if err != nil {
		return types.Assessment{}, err
	}
	if as.Target == "" && !as.Failed() {
		as.Target = target
	}
	return as, nil
}

// assess sends prompt and parses the reply. The error is non-nil only when
// ctx is done.
func (s *Scorer) assess(ctx context.Context, prompt string) (types.Assessment, error) {
	text, err := callWithRetry(ctx, s.backend, prompt, s.maxRetries)
	if err != nil {
		if ctx.Err() != nil {
			return types.Assessment{}, ctx.Err()
		}
		s.metrics.LLMCalls.WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Msg("model call failed")
		return types.Assessment{Error: err.Error()}, nil
	}
	as := ParseAssessment(text)
	if as.Failed() {
		s.metrics.LLMCalls.WithLabelValues("unparsed").Inc()
		s.logger.Warn().Int("chars", len(text)).Msg("model reply held no parseable JSON")
	} else {
		s.metrics.LLMCalls.WithLabelValues("ok").Inc()
	}
	return as, nil
}

// ExtractJSON returns the span from the first "{" to the last "}" of text.
func ExtractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", ErrNoJSON
	}
	return text[start : end+1], nil
}

// ParseAssessment decodes a model reply. Prose around the JSON object is
// ignored. When no object can be decoded the result carries ParseFailure and
// the trimmed raw text.
func ParseAssessment(text string) types.Assessment {
	text = strings.TrimSpace(text)
	candidate, err := ExtractJSON(text)
	if err != nil {
		candidate = text
	}
	var as types.Assessment
	if err := json.Unmarshal([]byte(candidate), &as); err != nil {
		return types.Assessment{Error: ParseFailure, Raw: text}
	}
	// Error and Raw are reserved for parse failures.
	as.Error, as.Raw = "", ""
	return as
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the backend, retrying failed calls with exponential
// backoff up to maxRetries times.
func callWithRetry(ctx context.Context, backend AIBackend, prompt string, maxRetries int) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := backend.Complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}
	if maxRetries == 0 {
		return "", lastErr
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

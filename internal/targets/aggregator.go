// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package targets ranks the genes and proteins mentioned across an article
// corpus. Annotations are fetched once; a first pass counts mentions per
// target key, and a second pass builds provenance records for the top-K keys.
package targets

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/target-explorer/internal/articleid"
	"github.com/pdiddy/target-explorer/internal/observability"
	"github.com/pdiddy/target-explorer/pkg/types"
)

// Tag policies.
const (
	AllTags      = types.TagPolicyAll
	FirstTagOnly = types.TagPolicyFirst
)

// ParseTagPolicy validates a policy name. The empty string selects AllTags.
func ParseTagPolicy(s string) (types.TagPolicy, error) {
	switch types.TagPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", AllTags:
		return AllTags, nil
	case FirstTagOnly:
		return FirstTagOnly, nil
	}
	return "", fmt.Errorf("unknown tag policy %q (want %s or %s)", s, AllTags, FirstTagOnly)
}

// AnnotationSource fetches gene/protein annotations for article tokens.
type AnnotationSource interface {
	FetchAnnotations(ctx context.Context, tokens []string) (*types.AnnotationSet, error)
}

// Aggregator turns an article corpus into a ranked target list.
type Aggregator struct {
	source AnnotationSource
	policy types.TagPolicy
	tags   func(types.Annotation) []types.Tag
	logger zerolog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTagPolicy selects which tags of each annotation are considered.
func WithTagPolicy(p types.TagPolicy) Option {
	return func(a *Aggregator) { a.policy = p }
}

// WithLogger sets the aggregator's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Aggregator) { a.logger = observability.Component(l, "targets") }
}

// NewAggregator creates an aggregator reading annotations from source. The
// tag policy is fixed here for the aggregator's lifetime.
func NewAggregator(source AnnotationSource, opts ...Option) (*Aggregator, error) {
	if source == nil {
		return nil, errors.New("annotation source is required")
	}
	a := &Aggregator{source: source, policy: AllTags, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	switch a.policy {
	case AllTags:
		a.tags = func(ann types.Annotation) []types.Tag { return ann.Tags }
	case FirstTagOnly:
		a.tags = func(ann types.Annotation) []types.Tag {
			if len(ann.Tags) == 0 {
				return nil
			}
			return ann.Tags[:1]
		}
	default:
		return nil, fmt.Errorf("unknown tag policy %q", a.policy)
	}
	return a, nil
}

// Policy returns the tag policy the aggregator was built with.
func (a *Aggregator) Policy() types.TagPolicy { return a.policy }

// Stats summarizes one aggregation.
type Stats struct {
	Articles          int `json:"articles" yaml:"articles"`
	Tokens            int `json:"tokens" yaml:"tokens"`
	MissingTokens     int `json:"missing_tokens" yaml:"missing_tokens"`
	AnnotatedArticles int `json:"annotated_articles" yaml:"annotated_articles"`
	Annotations       int `json:"annotations" yaml:"annotations"`
	DistinctKeys      int `json:"distinct_keys" yaml:"distinct_keys"`
}

// Result is the outcome of one aggregation.
type Result struct {
	// Ranked holds at most K keys by descending frequency; ties keep the
	// order in which keys were first encountered.
	Ranked []types.RankedTarget `json:"ranked" yaml:"ranked"`

	// Records holds exactly the ranked keys.
	Records map[string]*types.TargetRecord `json:"records" yaml:"records"`

	// Merges lists keys that folded accession-derived and name-only tags.
	Merges []types.MergeEvent `json:"merges,omitempty" yaml:"merges,omitempty"`

	Stats Stats `json:"stats" yaml:"stats"`
}

// Ordered returns the records in rank order.
func (r *Result) Ordered() []types.TargetRecord {
	out := make([]types.TargetRecord, 0, len(r.Ranked))
	for _, rt := range r.Ranked {
		if rec, ok := r.Records[rt.Key]; ok {
			out = append(out, *rec)
		}
	}
	return out
}

// Aggregate fetches annotations for the usable articles and ranks the topK
// most frequently mentioned targets.
func (a *Aggregator) Aggregate(ctx context.Context, articles []types.Article, topK int) (*Result, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("top-k must be positive, got %d", topK)
	}
	tokens, missing := articleid.Tokens(articles)
	if missing > 0 {
		a.logger.Info().Int("articles", missing).Msg("articles without a usable identifier skipped")
	}

	set, err := a.source.FetchAnnotations(ctx, tokens)
	if err != nil {
		return nil, fmt.Errorf("fetching annotations: %w", err)
	}
	if set == nil {
		set = types.NewAnnotationSet()
	}

	res := a.rank(set, articleid.URLIndex(articles), topK)
	res.Stats.Articles = len(articles)
	res.Stats.Tokens = len(tokens)
	res.Stats.MissingTokens = missing
	return res, nil
}

// rank runs both passes over set.
func (a *Aggregator) rank(set *types.AnnotationSet, urls map[string]string, topK int) *Result {
	res := &Result{Records: make(map[string]*types.TargetRecord)}

	// Pass 1: frequency per key in first-encounter order.
	counts := make(map[string]int)
	var order []string
	withAcc := make(map[string]int)
	nameOnly := make(map[string]int)
	for _, entry := range set.Entries {
		if len(entry.Annotations) > 0 {
			res.Stats.AnnotatedArticles++
		}
		res.Stats.Annotations += len(entry.Annotations)
		for _, ann := range entry.Annotations {
			for _, tag := range a.tags(ann) {
				k, ok := normalize(tag)
				if !ok {
					continue
				}
				if _, seen := counts[k.key]; !seen {
					order = append(order, k.key)
				}
				counts[k.key]++
				if k.accession != "" {
					withAcc[k.key]++
				} else {
					nameOnly[k.key]++
				}
			}
		}
	}
	res.Stats.DistinctKeys = len(order)

	for _, key := range order {
		if withAcc[key] > 0 && nameOnly[key] > 0 {
			ev := types.MergeEvent{Key: key, AccessionTags: withAcc[key], NameOnlyTags: nameOnly[key]}
			res.Merges = append(res.Merges, ev)
			a.logger.Debug().
				Str("key", key).
				Int("accession_tags", ev.AccessionTags).
				Int("name_only_tags", ev.NameOnlyTags).
				Msg("accession and name tags merged under one key")
		}
	}

	// Selection. SortStableFunc keeps first-encounter order among ties.
	ranked := make([]types.RankedTarget, len(order))
	for i, key := range order {
		ranked[i] = types.RankedTarget{Key: key, Frequency: counts[key]}
	}
	slices.SortStableFunc(ranked, func(x, y types.RankedTarget) int { return y.Frequency - x.Frequency })
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	res.Ranked = ranked

	selected := make(map[string]bool, len(ranked))
	for _, rt := range ranked {
		selected[rt.Key] = true
	}

	// Pass 2: provenance for the selected keys.
	members := make(map[string]map[string]bool)
	for _, entry := range set.Entries {
		for _, ann := range entry.Annotations {
			for _, tag := range a.tags(ann) {
				k, ok := normalize(tag)
				if !ok || !selected[k.key] {
					continue
				}
				rec, exists := res.Records[k.key]
				if !exists {
					rec = &types.TargetRecord{
						Key:          k.key,
						Name:         k.name,
						Accession:    k.accession,
						ReferenceURL: k.uri,
					}
					res.Records[k.key] = rec
					members[k.key] = make(map[string]bool)
				}
				if !members[k.key][entry.Token] {
					members[k.key][entry.Token] = true
					rec.Articles = append(rec.Articles, entry.Token)
				}
				rec.Frequency++
			}
		}
	}

	for _, rec := range res.Records {
		slices.Sort(rec.Articles)
		rec.ArticleLinks = make([]types.ArticleLink, len(rec.Articles))
		for i, tok := range rec.Articles {
			rec.ArticleLinks[i] = types.ArticleLink{Token: tok, URL: urls[tok]}
		}
	}
	return res
}

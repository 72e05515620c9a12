// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package europepmc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/target-explorer/pkg/types"
)

// DefaultMaxResults caps a search when the request leaves MaxResults unset.
const DefaultMaxResults = 1000

// SearchRequest describes one literature search.
type SearchRequest struct {
	Query      string `yaml:"query" json:"query"`
	FromYear   int    `yaml:"from_year" json:"from_year"`
	ToYear     int    `yaml:"to_year" json:"to_year"`
	MaxResults int    `yaml:"max_results" json:"max_results"`
}

// Validate reports whether the request can be sent.
func (r SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query is required")
	}
	if r.FromYear <= 0 || r.ToYear <= 0 {
		return fmt.Errorf("publication years must be positive, got %d..%d", r.FromYear, r.ToYear)
	}
	if r.FromYear > r.ToYear {
		return fmt.Errorf("from year %d is after to year %d", r.FromYear, r.ToYear)
	}
	if r.MaxResults < 0 {
		return fmt.Errorf("max results must not be negative, got %d", r.MaxResults)
	}
	return nil
}

// QueryString returns the query sent to the service: the user's query
// restricted to the inclusive publication-year range.
func (r SearchRequest) QueryString() string {
	return fmt.Sprintf("%s AND PUB_YEAR:[%d TO %d]", strings.TrimSpace(r.Query), r.FromYear, r.ToYear)
}

// FetchArticles pages through the search service, starting at page 0, until
// MaxResults records are collected, a page comes back empty, or a page fails.
// A failed page (transport error, non-2xx status, undecodable body) is logged
// and ends pagination; the records gathered so far are returned with a nil
// error. Only context cancellation produces an error, alongside the partial
// records.
func (c *Client) FetchArticles(ctx context.Context, req SearchRequest) ([]types.Article, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}
	limit := req.MaxResults
	if limit == 0 {
		limit = DefaultMaxResults
	}
	pageSize := min(c.pageSize, limit)
	query := req.QueryString()

	var articles []types.Article
	for page := 0; len(articles) < limit; page++ {
		results, ok, err := c.fetchPage(ctx, query, page, pageSize)
		if err != nil {
			return articles, err
		}
		if !ok || len(results) == 0 {
			break
		}
		c.metrics.PagesFetched.Inc()

		for _, r := range results {
			if len(articles) >= limit {
				break
			}
			articles = append(articles, toArticle(r))
		}
	}

	c.metrics.ArticlesFetched.Add(float64(len(articles)))
	unusable := 0
	for _, a := range articles {
		if !a.Usable() {
			unusable++
		}
	}
	if unusable > 0 {
		c.logger.Info().Int("records", unusable).Msg("records without identifiers will not be annotated")
	}
	c.logger.Debug().
		Str("query", query).
		Int("articles", len(articles)).
		Msg("search complete")
	return articles, nil
}

// fetchPage retrieves one page. ok is false when the page failed and
// pagination should stop; err is non-nil only on context cancellation.
func (c *Client) fetchPage(ctx context.Context, query string, page, pageSize int) ([]searchResult, bool, error) {
	params := url.Values{
		"query":      {query},
		"format":     {"json"},
		"pageSize":   {strconv.Itoa(pageSize)},
		"page":       {strconv.Itoa(page)},
		"resultType": {"core"},
	}
	if c.email != "" {
		params.Set("email", c.email)
	}

	resp, reqURL, err := c.get(ctx, searchURL, params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		c.metrics.PagesFailed.Inc()
		c.logger.Warn().Err(err).Int("page", page).Str("url", reqURL).Msg("search page failed")
		return nil, false, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		c.metrics.PagesFailed.Inc()
		c.logger.Warn().Int("page", page).Int("status", resp.StatusCode).Str("url", reqURL).Msg("search page failed")
		return nil, false, nil
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		c.metrics.PagesFailed.Inc()
		c.logger.Warn().Err(err).Int("page", page).Int("status", resp.StatusCode).Msg("decoding search page")
		return nil, false, nil
	}
	return sr.ResultList.Result, true, nil
}

func toArticle(r searchResult) types.Article {
	abstract := r.AbstractText
	if abstract == "" {
		abstract = r.Abstract
	}
	a := types.Article{
		ID:       strings.TrimSpace(r.ID),
		Source:   strings.TrimSpace(r.Source),
		PMID:     strings.TrimSpace(r.PMID),
		PMCID:    strings.TrimSpace(r.PMCID),
		DOI:      strings.TrimSpace(r.DOI),
		Title:    r.Title,
		Abstract: abstract,
		PubYear:  int(r.PubYear),
	}
	a.URL = CanonicalURL(a, firstFullTextURL(r.FullTextURLList))
	return a
}


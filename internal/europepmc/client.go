// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package europepmc talks to the two Europe PMC services the pipeline needs:
// the article search API and the annotations API. Both share one rate limiter
// and issue requests strictly one after another.
//
// Failures never abort the caller. A failed search page ends pagination and
// the rows fetched so far are returned; a failed annotation batch is skipped.
// Neither is retried.
package europepmc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/target-explorer/internal/httputil"
	"github.com/pdiddy/target-explorer/internal/observability"
	"github.com/pdiddy/target-explorer/pkg/types"
)

// Endpoints are vars so tests can substitute an httptest server.
var (
	searchURL      = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"
	annotationsURL = "https://www.ebi.ac.uk/europepmc/annotations_api/annotationsByArticleIds"
)

const (
	// MaxPageSize is the largest page the search service returns.
	MaxPageSize = 1000

	// MaxBatchSize is the largest number of article ids the annotations
	// service accepts per request.
	MaxBatchSize = 8

	// DefaultProvider is the annotation provider queried by default.
	DefaultProvider = "Europe PMC"

	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "target-explorer/0.1"
	defaultRPS       = 5
)

// Client queries Europe PMC.
type Client struct {
	doer      *httputil.Doer
	userAgent string
	email     string
	pageSize  int
	batchSize int
	provider  string
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for failure reports.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = observability.Component(l, "europepmc") }
}

// WithMetrics sets the metrics the client increments.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithPageSize sets the search page size, capped at MaxPageSize.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = min(n, MaxPageSize)
		}
	}
}

// WithBatchSize sets the annotation batch size. It can lower the batch size
// but never raise it above MaxBatchSize.
func WithBatchSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.batchSize = min(n, MaxBatchSize)
		}
	}
}

// WithProvider selects the annotation provider.
func WithProvider(p string) Option {
	return func(c *Client) {
		if p != "" {
			c.provider = p
		}
	}
}

// WithEmail sets the contact address sent with search requests.
func WithEmail(email string) Option {
	return func(c *Client) { c.email = email }
}

// NewClient creates a client from the shared HTTP settings.
func NewClient(cfg types.HTTPConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rps := cfg.RequestsPerSecond
	if rps == 0 {
		rps = defaultRPS
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	c := &Client{
		userAgent: ua,
		pageSize:  MaxPageSize,
		batchSize: MaxBatchSize,
		provider:  DefaultProvider,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = observability.NewMetrics()
	}
	c.doer = httputil.NewDoer(&http.Client{Timeout: timeout}, rps, cfg.RateLimitRetries, c.logger)
	return c
}

// get issues one GET and returns the response together with the resolved
// request URL, which callers log on failure.
func (c *Client) get(ctx context.Context, base string, params url.Values) (*http.Response, string, error) {
	reqURL := base + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, reqURL, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return nil, reqURL, err
	}
	return resp, reqURL, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the rate-limited HTTP executor used by the
// Europe PMC client.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

// Doer executes requests one at a time. Each attempt first waits on Limiter.
// Requests are attempted once; only HTTP 429 is retried, and only when
// MaxRetries is positive.
type Doer struct {
	Client     *http.Client
	Limiter    *rate.Limiter
	MaxRetries int
	Logger     zerolog.Logger
}

// NewDoer returns a Doer allowing rps requests per second. A non-positive rps
// disables rate limiting.
func NewDoer(client *http.Client, rps float64, maxRetries int, logger zerolog.Logger) *Doer {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Doer{
		Client:     client,
		Limiter:    rate.NewLimiter(limit, 1),
		MaxRetries: maxRetries,
		Logger:     logger,
	}
}

// Do sends req. The delay before retry n is RetryBaseDelay * 2^n unless the
// server sent a Retry-After header. If the context is cancelled while
// waiting, Do returns ctx.Err(). After exhausting retries the last 429
// response is returned so the caller can inspect it.
func (d *Doer) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if d.Limiter != nil {
			if err := d.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := d.Client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= d.MaxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := retryAfter(resp.Header.Get("Retry-After"))
		if backoff <= 0 {
			backoff = time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		}
		d.Logger.Warn().
			Str("url", req.URL.Redacted()).
			Dur("backoff", backoff).
			Int("attempt", attempt+1).
			Int("max_retries", d.MaxRetries).
			Msg("rate limited")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func retryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return time.Until(t)
	}
	return 0
}

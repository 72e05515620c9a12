// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package europepmc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/target-explorer/internal/observability"
	"github.com/pdiddy/target-explorer/pkg/types"
)

func newTestClient(t *testing.T, opts ...Option) (*Client, *observability.Metrics) {
	t.Helper()
	m := observability.NewMetrics()
	opts = append([]Option{WithMetrics(m)}, opts...)
	return NewClient(types.HTTPConfig{RequestsPerSecond: -1}, opts...), m
}

// pageBody renders a search response holding n results numbered from first.
func pageBody(first, n int) string {
	var items []string
	for i := 0; i < n; i++ {
		id := first + i
		items = append(items, fmt.Sprintf(
			`{"id":"%d","source":"MED","pmid":"%d","title":"Title %d","abstractText":"Abstract %d","pubYear":"2024"}`,
			id, id, id, id))
	}
	return `{"hitCount":100,"resultList":{"result":[` + strings.Join(items, ",") + `]}}`
}

func withSearchServer(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	old := searchURL
	searchURL = ts.URL
	t.Cleanup(func() { searchURL = old })
}

var testRequest = SearchRequest{Query: "GLP1R", FromYear: 2023, ToYear: 2025, MaxResults: 100}

func TestFetchArticles_PaginatesUntilEmptyPage(t *testing.T) {
	var calls atomic.Int32
	withSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		switch page {
		case 0:
			fmt.Fprint(w, pageBody(1, 2))
		case 1:
			fmt.Fprint(w, pageBody(3, 2))
		default:
			fmt.Fprint(w, pageBody(0, 0))
		}
	})

	c, m := newTestClient(t, WithPageSize(2))
	got, err := c.FetchArticles(context.Background(), testRequest)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "1", got[0].PMID)
	assert.Equal(t, "4", got[3].PMID)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PagesFetched))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ArticlesFetched))
}

func TestFetchArticles_QueryParameters(t *testing.T) {
	var got atomic.Value
	withSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.URL.Query())
		fmt.Fprint(w, pageBody(0, 0))
	})

	c, _ := newTestClient(t, WithEmail("me@example.org"))
	_, err := c.FetchArticles(context.Background(), testRequest)
	require.NoError(t, err)

	q := got.Load().(url.Values)
	assert.Equal(t, []string{"GLP1R AND PUB_YEAR:[2023 TO 2025]"}, q["query"])
	assert.Equal(t, []string{"json"}, q["format"])
	assert.Equal(t, []string{"core"}, q["resultType"])
	assert.Equal(t, []string{"0"}, q["page"])
	assert.Equal(t, []string{"100"}, q["pageSize"])
	assert.Equal(t, []string{"me@example.org"}, q["email"])
}

func TestFetchArticles_TrimsToMaxResults(t *testing.T) {
	var calls atomic.Int32
	withSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		fmt.Fprint(w, pageBody(page*2+1, 2))
	})

	req := testRequest
	req.MaxResults = 3
	c, _ := newTestClient(t, WithPageSize(2))
	got, err := c.FetchArticles(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "3", got[2].PMID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchArticles_ServerErrorReturnsPartialRows(t *testing.T) {
	withSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page >= 2 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, pageBody(page*2+1, 2))
	})

	c, m := newTestClient(t, WithPageSize(2))
	got, err := c.FetchArticles(context.Background(), testRequest)
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PagesFailed))
}

func TestFetchArticles_FirstPageFailsReturnsEmpty(t *testing.T) {
	withSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	c, _ := newTestClient(t)
	got, err := c.FetchArticles(context.Background(), testRequest)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchArticles_MalformedJSONStops(t *testing.T) {
	withSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page == 0 {
			fmt.Fprint(w, pageBody(1, 1))
			return
		}
		fmt.Fprint(w, `{"resultList": [not json`)
	})

	c, _ := newTestClient(t, WithPageSize(1))
	got, err := c.FetchArticles(context.Background(), testRequest)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFetchArticles_ContextCancelled(t *testing.T) {
	withSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pageBody(1, 1))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, _ := newTestClient(t)
	_, err := c.FetchArticles(ctx, testRequest)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchArticles_InvalidRequest(t *testing.T) {
	c, _ := newTestClient(t)
	tests := []struct {
		name string
		req  SearchRequest
	}{
		{"empty query", SearchRequest{Query: "  ", FromYear: 2023, ToYear: 2025}},
		{"reversed years", SearchRequest{Query: "x", FromYear: 2026, ToYear: 2025}},
		{"missing years", SearchRequest{Query: "x"}},
		{"negative max", SearchRequest{Query: "x", FromYear: 2023, ToYear: 2025, MaxResults: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.FetchArticles(context.Background(), tt.req)
			assert.Error(t, err)
		})
	}
}

func TestFetchArticles_FieldMapping(t *testing.T) {
	withSearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "0" {
			fmt.Fprint(w, pageBody(0, 0))
			return
		}
		fmt.Fprint(w, `{"resultList":{"result":[
			{"id":"PMC99","source":"PMC","pmcid":"PMC99","title":"T","abstract":"fallback abstract","pubYear":2023,
			 "fullTextUrlList":{"fullTextUrl":[{"url":"https://example.org/full"},{"url":"https://example.org/other"}]}},
			{"id":"7","source":"MED","pmid":"7","doi":"10.1/x","abstractText":"primary","abstract":"ignored","pubYear":""}
		]}}`)
	})

	c, _ := newTestClient(t)
	got, err := c.FetchArticles(context.Background(), testRequest)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "fallback abstract", got[0].Abstract)
	assert.Equal(t, 2023, got[0].PubYear)
	assert.Equal(t, "https://example.org/full", got[0].URL)

	assert.Equal(t, "primary", got[1].Abstract)
	assert.Equal(t, 0, got[1].PubYear)
	assert.Equal(t, "https://europepmc.org/abstract/MED/7", got[1].URL)
}

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		name     string
		article  types.Article
		fullText string
		want     string
	}{
		{"full text wins", types.Article{PMCID: "PMC1", PMID: "2", DOI: "d"}, "https://ft", "https://ft"},
		{"pmc page", types.Article{PMCID: "PMC123", PMID: "2", DOI: "d"}, "", "https://europepmc.org/article/PMC/123"},
		{"pmc without prefix", types.Article{PMCID: "123"}, "", "https://europepmc.org/article/PMC/123"},
		{"med abstract", types.Article{PMID: "42", DOI: "d"}, "", "https://europepmc.org/abstract/MED/42"},
		{"doi", types.Article{DOI: "10.1000/abc"}, "", "https://doi.org/10.1000/abc"},
		{"nothing", types.Article{}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalURL(tt.article, tt.fullText))
		})
	}
}

func TestFirstFullTextURL_OnlyFirstEntryCounts(t *testing.T) {
	assert.Equal(t, "", firstFullTextURL(nil))
	assert.Equal(t, "", firstFullTextURL(&fullTextURLList{}))
	list := &fullTextURLList{FullTextURL: []fullTextURL{{URL: ""}, {URL: "https://second"}}}
	assert.Equal(t, "", firstFullTextURL(list))
}

func TestWithPageSize_Capped(t *testing.T) {
	c, _ := newTestClient(t, WithPageSize(5000))
	assert.Equal(t, MaxPageSize, c.pageSize)
}

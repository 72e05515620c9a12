// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package europepmc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withAnnotationsServer(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	old := annotationsURL
	annotationsURL = ts.URL
	t.Cleanup(func() { annotationsURL = old })
}

// entryJSON renders one annotation entry for token SOURCE:id carrying a
// single Gene_Proteins annotation tagged name.
func entryJSON(token, name string) string {
	source, id, _ := strings.Cut(token, ":")
	return fmt.Sprintf(`{"source":%q,"extId":%q,"annotations":[
		{"exact":%q,"section":"abstract","provider":"Europe PMC","type":"Gene_Proteins",
		 "tags":[{"name":%q,"uri":"https://www.uniprot.org/uniprot/P%s"}]}]}`,
		source, id, name, name, id)
}

func echoEntries(w http.ResponseWriter, r *http.Request) {
	var parts []string
	for _, tok := range strings.Split(r.URL.Query().Get("articleIds"), ",") {
		parts = append(parts, entryJSON(tok, "gene-"+tok))
	}
	fmt.Fprint(w, "["+strings.Join(parts, ",")+"]")
}

func tokens(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("MED:%d", i+1)
	}
	return out
}

func TestFetchAnnotations_BatchesOfEight(t *testing.T) {
	var mu sync.Mutex
	var sizes []int
	withAnnotationsServer(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		sizes = append(sizes, len(strings.Split(r.URL.Query().Get("articleIds"), ",")))
		mu.Unlock()
		echoEntries(w, r)
	})

	c, m := newTestClient(t)
	set, err := c.FetchAnnotations(context.Background(), tokens(20))
	require.NoError(t, err)
	assert.Equal(t, []int{8, 8, 4}, sizes)
	assert.Equal(t, 20, set.Len())
	assert.Equal(t, "MED:1", set.Entries[0].Token)
	assert.Equal(t, "MED:20", set.Entries[19].Token)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.BatchesFetched))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.AnnotationsKept))
}

func TestFetchAnnotations_QueryParameters(t *testing.T) {
	var q map[string][]string
	withAnnotationsServer(t, func(w http.ResponseWriter, r *http.Request) {
		q = r.URL.Query()
		fmt.Fprint(w, "[]")
	})

	c, _ := newTestClient(t)
	_, err := c.FetchAnnotations(context.Background(), []string{"MED:1", "PMC:2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"MED:1,PMC:2"}, q["articleIds"])
	assert.Equal(t, []string{"Gene_Proteins"}, q["type"])
	assert.Equal(t, []string{"Abstract"}, q["section"])
	assert.Equal(t, []string{"Europe PMC"}, q["provider"])
	assert.Equal(t, []string{"JSON"}, q["format"])
}

func TestFetchAnnotations_FailedBatchSkipped(t *testing.T) {
	withAnnotationsServer(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Query().Get("articleIds"), "MED:9,") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		echoEntries(w, r)
	})

	c, m := newTestClient(t)
	set, err := c.FetchAnnotations(context.Background(), tokens(40))
	require.NoError(t, err)
	assert.Equal(t, 32, set.Len())
	_, ok := set.Get("MED:9")
	assert.False(t, ok)
	_, ok = set.Get("MED:17")
	assert.True(t, ok)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchesFailed))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.BatchesFetched))
}

func TestFetchAnnotations_MalformedBodySkipped(t *testing.T) {
	withAnnotationsServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>")
	})

	c, m := newTestClient(t)
	set, err := c.FetchAnnotations(context.Background(), tokens(3))
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchesFailed))
}

func TestFetchAnnotations_WrappedResponse(t *testing.T) {
	withAnnotationsServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"annotationsByArticle":[`+entryJSON("MED:1", "GLP1R")+`]}`)
	})

	c, _ := newTestClient(t)
	set, err := c.FetchAnnotations(context.Background(), []string{"MED:1"})
	require.NoError(t, err)
	anns, ok := set.Get("MED:1")
	require.True(t, ok)
	require.Len(t, anns, 1)
	assert.Equal(t, "GLP1R", anns[0].Tags[0].Name)
}

func TestFetchAnnotations_TypeFilterAndMissingIDs(t *testing.T) {
	withAnnotationsServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"source":"MED","extId":"1","annotations":[
				{"exact":"GLP1R","type":"GENE_PROTEINS","tags":[{"name":"GLP1R","uri":"u"}]},
				{"exact":"diabetes","type":"Diseases","tags":[{"name":"diabetes"}]},
				{"exact":"insulin","type":"gene_proteins_extra","tags":[]}
			]},
			{"source":"","extId":"","annotations":[{"exact":"x","type":"Gene_Proteins"}]},
			{"source":"PMC","extId":"PMC5","annotations":[]}
		]`)
	})

	c, m := newTestClient(t)
	set, err := c.FetchAnnotations(context.Background(), []string{"MED:1", "PMC:5"})
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())

	anns, ok := set.Get("MED:1")
	require.True(t, ok)
	require.Len(t, anns, 2)
	assert.Equal(t, "GLP1R", anns[0].Exact)
	assert.Equal(t, "insulin", anns[1].Exact)

	anns, ok = set.Get("PMC:5")
	require.True(t, ok)
	assert.Empty(t, anns)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AnnotationsKept))
}

func TestFetchAnnotations_NoTokens(t *testing.T) {
	withAnnotationsServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	})

	c, _ := newTestClient(t)
	set, err := c.FetchAnnotations(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestFetchAnnotations_ContextCancelled(t *testing.T) {
	withAnnotationsServer(t, echoEntries)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, _ := newTestClient(t)
	_, err := c.FetchAnnotations(ctx, tokens(3))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithBatchSize_NeverExceedsLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{20, MaxBatchSize},
		{4, 4},
		{0, MaxBatchSize},
		{-1, MaxBatchSize},
	}
	for _, tt := range tests {
		c, _ := newTestClient(t, WithBatchSize(tt.in))
		assert.Equal(t, tt.want, c.batchSize, "WithBatchSize(%d)", tt.in)
	}
}

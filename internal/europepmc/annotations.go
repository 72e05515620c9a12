// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package europepmc

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/pdiddy/target-explorer/internal/articleid"
	"github.com/pdiddy/target-explorer/pkg/types"
)

const (
	annotationType    = "Gene_Proteins"
	annotationSection = "Abstract"

	// geneTypePrefix matches annotation types case-insensitively.
	geneTypePrefix = "gene_proteins"

	maxAnnotationBody = 32 << 20
)

// FetchAnnotations requests gene/protein annotations for tokens in
// consecutive batches of at most MaxBatchSize ids. A failed batch is logged
// with its start offset and request URL and then skipped; the remaining
// batches are still attempted. The returned set maps each article token the
// service answered for to its gene/protein annotations, in service order.
// Only context cancellation produces an error, alongside the partial set.
func (c *Client) FetchAnnotations(ctx context.Context, tokens []string) (*types.AnnotationSet, error) {
	set := types.NewAnnotationSet()
	for start := 0; start < len(tokens); start += c.batchSize {
		end := min(start+c.batchSize, len(tokens))
		if err := c.fetchBatch(ctx, set, start, tokens[start:end]); err != nil {
			return set, err
		}
	}
	c.logger.Debug().
		Int("tokens", len(tokens)).
		Int("articles", set.Len()).
		Int("annotations", set.Count()).
		Msg("annotations complete")
	return set, nil
}

func (c *Client) fetchBatch(ctx context.Context, set *types.AnnotationSet, start int, batch []string) error {
	params := url.Values{
		"articleIds": {strings.Join(batch, ",")},
		"type":       {annotationType},
		"section":    {annotationSection},
		"provider":   {c.provider},
		"format":     {"JSON"},
	}

	resp, reqURL, err := c.get(ctx, annotationsURL, params)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.batchFailed(start, reqURL, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		c.batchFailed(start, reqURL, fmt.Errorf("HTTP %d", resp.StatusCode))
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAnnotationBody))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.batchFailed(start, reqURL, fmt.Errorf("reading body: %w", err))
		return nil
	}
	entries, err := decodeAnnotationEntries(data)
	if err != nil {
		c.batchFailed(start, reqURL, fmt.Errorf("decoding body: %w", err))
		return nil
	}

	c.metrics.BatchesFetched.Inc()
	for _, e := range entries {
		token := articleid.FromEntry(e.Source, e.ExtID)
		if token == "" {
			c.logger.Debug().Int("batch_start", start).Msg("dropping annotation entry without id")
			continue
		}
		kept := geneAnnotations(e.Annotations)
		c.metrics.AnnotationsKept.Add(float64(len(kept)))
		set.Put(token, kept)
	}
	return nil
}

func (c *Client) batchFailed(start int, reqURL string, err error) {
	c.metrics.BatchesFailed.Inc()
	c.logger.Warn().Err(err).Int("batch_start", start).Str("url", reqURL).Msg("annotation batch failed")
}

// geneAnnotations keeps the annotations whose type starts with
// "gene_proteins", ignoring case, and converts them to domain values.
func geneAnnotations(in []annotationWire) []types.Annotation {
	out := make([]types.Annotation, 0, len(in))
	for _, a := range in {
		if !strings.HasPrefix(strings.ToLower(a.Type), geneTypePrefix) {
			continue
		}
		ann := types.Annotation{
			Exact:    a.Exact,
			Section:  a.Section,
			Provider: a.Provider,
			Type:     a.Type,
		}
		for _, t := range a.Tags {
			ann.Tags = append(ann.Tags, types.Tag{Name: t.Name, URI: t.URI})
		}
		out = append(out, ann)
	}
	return out
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "target_explorer"

// Metrics holds the counters of one CLI invocation. Counters live on a
// private registry rather than the global default so tests and repeated runs
// in one process do not collide.
type Metrics struct {
	Registry *prometheus.Registry

	// PagesFetched counts search result pages received successfully.
	PagesFetched prometheus.Counter

	// PagesFailed counts search pages that ended pagination early.
	PagesFailed prometheus.Counter

	// ArticlesFetched counts article records returned to the caller.
	ArticlesFetched prometheus.Counter

	// BatchesFetched counts annotation batches received successfully.
	BatchesFetched prometheus.Counter

	// BatchesFailed counts annotation batches that were skipped.
	BatchesFailed prometheus.Counter

	// AnnotationsKept counts gene/protein annotations kept after type filtering.
	AnnotationsKept prometheus.Counter

	// LLMCalls counts scoring calls by outcome ("ok", "error", "unparsed").
	LLMCalls *prometheus.CounterVec
}

// NewMetrics creates and registers all counters on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "search", Name: "pages_fetched_total",
			Help: "Search result pages fetched successfully.",
		}),
		PagesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "search", Name: "pages_failed_total",
			Help: "Search pages that failed and stopped pagination.",
		}),
		ArticlesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "search", Name: "articles_fetched_total",
			Help: "Article records returned by the search stage.",
		}),
		BatchesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "annotations", Name: "batches_fetched_total",
			Help: "Annotation batches fetched successfully.",
		}),
		BatchesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "annotations", Name: "batches_failed_total",
			Help: "Annotation batches skipped after a failure.",
		}),
		AnnotationsKept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "annotations", Name: "kept_total",
			Help: "Gene/protein annotations kept after type filtering.",
		}),
		LLMCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scoring", Name: "llm_calls_total",
			Help: "LLM scoring calls by outcome.",
		}, []string{"outcome"}),
	}

	m.Registry.MustRegister(
		m.PagesFetched, m.PagesFailed, m.ArticlesFetched,
		m.BatchesFetched, m.BatchesFailed, m.AnnotationsKept,
		m.LLMCalls,
	)
	return m
}

// WriteTextfile writes the registry in the Prometheus text format to path,
// for pickup by a node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

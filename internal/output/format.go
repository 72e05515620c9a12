// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output renders articles and ranked targets for the terminal and
// writes the machine-readable exports (JSON, YAML, CSV).
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/target-explorer/pkg/types"
)

// Config selects the output mode. JSON wins over YAML; with neither set the
// human-readable table is written. CSVFile, when set, additionally exports
// targets to that path.
type Config struct {
	JSON    bool
	YAML    bool
	CSVFile string
}

// FormatArticles writes an article listing.
func FormatArticles(w io.Writer, articles []types.Article, cfg Config) error {
	switch {
	case cfg.JSON:
		return WriteJSON(w, articles)
	case cfg.YAML:
		return WriteYAML(w, articles)
	}
	return formatArticlesHuman(w, articles)
}

// FormatTargets writes ranked target records, exporting CSV first when
// requested.
func FormatTargets(w io.Writer, records []types.TargetRecord, merges []types.MergeEvent, cfg Config) error {
	if cfg.CSVFile != "" {
		if err := WriteTargetsCSVFile(cfg.CSVFile, records); err != nil {
			return fmt.Errorf("CSV export failed: %w", err)
		}
	}
	switch {
	case cfg.JSON:
		return WriteJSON(w, records)
	case cfg.YAML:
		return WriteYAML(w, records)
	}
	return formatTargetsHuman(w, records, merges)
}

// FormatArticleLinks writes the supporting articles of one target.
func FormatArticleLinks(w io.Writer, rec types.TargetRecord, cfg Config) error {
	switch {
	case cfg.JSON:
		return WriteJSON(w, rec.ArticleLinks)
	case cfg.YAML:
		return WriteYAML(w, rec.ArticleLinks)
	}
	return formatLinksHuman(w, rec)
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML writes v as YAML.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// WriteTargetsCSVFile creates path and writes records to it as CSV.
func WriteTargetsCSVFile(path string, records []types.TargetRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteTargetsCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

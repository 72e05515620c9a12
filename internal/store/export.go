// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/target-explorer/internal/runfile"
)

// ExportYAML writes a stored run to w in the run file format, so the export
// can be passed to any command that accepts --run.
func (s *Store) ExportYAML(ctx context.Context, runID string, w io.Writer) error {
	f, err := s.exportFile(ctx, runID)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportJSON writes a stored run to w as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, runID string, w io.Writer) error {
	f, err := s.exportFile(ctx, runID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func (s *Store) exportFile(ctx context.Context, runID string) (*runfile.File, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return runfile.FromRun(run)
}

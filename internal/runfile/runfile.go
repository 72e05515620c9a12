// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runfile saves a discovery run to YAML and loads it back, so targets
// can be reviewed, scored or stored later without re-querying Europe PMC.
package runfile

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/target-explorer/internal/europepmc"
	"github.com/pdiddy/target-explorer/internal/targets"
	"github.com/pdiddy/target-explorer/pkg/types"
)

// File is the on-disk representation of a run. Targets are listed in rank
// order.
type File struct {
	Query    europepmc.SearchRequest `json:"query" yaml:"query"`
	Config   Config                  `json:"config" yaml:"config"`
	Summary  Summary                 `json:"summary" yaml:"summary"`
	Targets  []types.TargetRecord    `json:"targets" yaml:"targets"`
	Merges   []types.MergeEvent      `json:"merges,omitempty" yaml:"merges,omitempty"`
	Articles []types.Article         `json:"articles" yaml:"articles"`
}

// Config records the aggregation settings that produced the run.
type Config struct {
	TopK      int             `json:"top_k" yaml:"top_k"`
	TagPolicy types.TagPolicy `json:"tag_policy" yaml:"tag_policy"`
}

// Summary stores corpus statistics and timestamps.
type Summary struct {
	targets.Stats `yaml:",inline"`
	StartedAt     time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt    time.Time `json:"finished_at" yaml:"finished_at"`
}

// FromRun converts a completed run to its file form.
func FromRun(run *targets.Run) (*File, error) {
	if run == nil || run.Result == nil {
		return nil, errors.New("run has no result")
	}
	return &File{
		Query:    run.Request,
		Config:   Config{TopK: run.TopK, TagPolicy: run.TagPolicy},
		Summary:  Summary{Stats: run.Result.Stats, StartedAt: run.StartedAt, FinishedAt: run.FinishedAt},
		Targets:  run.Result.Ordered(),
		Merges:   run.Result.Merges,
		Articles: run.Articles,
	}, nil
}

// ToRun rebuilds the run, including its rank order.
func (f *File) ToRun() *targets.Run {
	res := &targets.Result{
		Records: make(map[string]*types.TargetRecord, len(f.Targets)),
		Merges:  f.Merges,
		Stats:   f.Summary.Stats,
	}
	for i := range f.Targets {
		rec := f.Targets[i]
		res.Ranked = append(res.Ranked, types.RankedTarget{Key: rec.Key, Frequency: rec.Frequency})
		res.Records[rec.Key] = &rec
	}
	return &targets.Run{
		Request:    f.Query,
		TopK:       f.Config.TopK,
		TagPolicy:  f.Config.TagPolicy,
		StartedAt:  f.Summary.StartedAt,
		FinishedAt: f.Summary.FinishedAt,
		Articles:   f.Articles,
		Result:     res,
	}
}

// Write saves run to path as YAML.
func Write(path string, run *targets.Run) error {
	f, err := FromRun(run)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling run file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Read loads a previously saved run file from disk.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing run file: %w", err)
	}
	for i, rec := range f.Targets {
		if rec.Key == "" {
			return nil, fmt.Errorf("parsing run file: target %d has no key", i+1)
		}
	}
	return &f, nil
}

// Load reads path and rebuilds the run.
func Load(path string) (*targets.Run, error) {
	f, err := Read(path)
	if err != nil {
		return nil, err
	}
	return f.ToRun(), nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/target-explorer/internal/output"
	"github.com/pdiddy/target-explorer/internal/runfile"
	"github.com/pdiddy/target-explorer/internal/store"
	"github.com/pdiddy/target-explorer/internal/targets"
)

var discoverCmd = &cobra.Command{
	Use:   "discover [query]",
	Short: "Rank the targets mentioned by the articles of a search",
	Long: `Discover runs the whole pipeline: it searches Europe PMC, builds an
identifier token for every article, fetches gene/protein annotations in
batches of at most eight articles, and ranks the annotated targets by
occurrence count.

Targets are keyed by UniProt-style accession when the annotation URI
carries one and by lower-cased name otherwise. Ties keep the order in
which targets were first seen.

Use --csv to export the ranking, --save to write a reloadable run file
and --store to record the run in the local history database.`,
	RunE: runDiscover,
}

func init() {
	addSearchFlags(discoverCmd)
	addFormatFlags(discoverCmd)
	discoverCmd.Flags().Int("top-k", defaultTopK, "number of targets to keep")
	discoverCmd.Flags().String("tag-policy", "", "tag counting policy: all-tags or first-tag-only (default all-tags)")
	discoverCmd.Flags().String("csv", "", "export ranked targets to this CSV file")
	discoverCmd.Flags().String("save", "", "save the run to this YAML file")
	discoverCmd.Flags().Bool("store", false, "record the run in the history database")
	discoverCmd.Flags().String("data-dir", "", "history database directory (default data)")

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	if err := bindSearchFlags(cmd); err != nil {
		return err
	}
	if err := bindFlags(cmd, map[string]string{
		"top-k":    "aggregation.top_k",
		"data-dir": "store.data_dir",
	}); err != nil {
		return err
	}
	if p, _ := cmd.Flags().GetString("tag-policy"); p != "" {
		viper.Set("aggregation.tag_policy", p)
	}

	req, err := searchRequestFromFlags(cmd, args)
	if err != nil {
		return err
	}
	cfg := pipelineConfig()
	policy, err := targets.ParseTagPolicy(string(cfg.Aggregation.TagPolicy))
	if err != nil {
		return err
	}

	client := newEuropePMCClient(cfg)
	agg, err := targets.NewAggregator(client, targets.WithTagPolicy(policy), targets.WithLogger(logger))
	if err != nil {
		return err
	}

	run, err := targets.Discover(cmd.Context(), client, agg, req, cfg.Aggregation.TopK)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := runfile.Write(path, run); err != nil {
			return err
		}
		logger.Info().Str("path", path).Msg("run saved")
	}

	if keep, _ := cmd.Flags().GetBool("store"); keep {
		st, err := store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		id, err := st.SaveRun(cmd.Context(), run)
		if err != nil {
			return err
		}
		logger.Info().Str("run_id", id).Msg("run recorded")
		fmt.Fprintf(os.Stderr, "Run ID: %s\n", id)
	}

	outCfg := formatConfig(cmd)
	outCfg.CSVFile, _ = cmd.Flags().GetString("csv")
	return output.FormatTargets(os.Stdout, run.Targets(), run.Result.Merges, outCfg)
}

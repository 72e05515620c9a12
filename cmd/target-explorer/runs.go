// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/target-explorer/internal/output"
	"github.com/pdiddy/target-explorer/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Browse the run history (list, show, targets, search, export)",
	Long: `Runs reads the local SQLite history written by discover --store. Use
subcommands to list runs, show one run's ranking, list the supporting
articles of a target, search stored article text, or export a run.`,
}

// --- list subcommand ---

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := st.ListRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}

		cfg := formatConfig(cmd)
		switch {
		case cfg.JSON:
			return output.WriteJSON(os.Stdout, runs)
		case cfg.YAML:
			return output.WriteYAML(os.Stdout, runs)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}
		rows := make([][]string, 0, len(runs))
		for _, r := range runs {
			rows = append(rows, []string{
				r.ID,
				r.StartedAt.Local().Format("2006-01-02 15:04"),
				r.Request.QueryString(),
				strconv.Itoa(r.Stats.Articles),
				strconv.Itoa(r.Targets),
			})
		}
		output.Table(os.Stdout, []string{"Run ID", "Started", "Query", "Articles", "Targets"}, rows)
		return nil
	},
}

// --- show subcommand ---

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the ranked targets of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := st.GetRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		cfg := formatConfig(cmd)
		if !cfg.JSON && !cfg.YAML {
			fmt.Printf("Query: %s\nArticles: %d  Annotated: %d  Distinct targets: %d\n\n",
				run.Request.QueryString(), run.Result.Stats.Articles,
				run.Result.Stats.AnnotatedArticles, run.Result.Stats.DistinctKeys)
		}
		cfg.CSVFile, _ = cmd.Flags().GetString("csv")
		return output.FormatTargets(os.Stdout, run.Targets(), run.Result.Merges, cfg)
	},
}

// --- targets subcommand ---

var runsTargetsCmd = &cobra.Command{
	Use:   "targets <run-id>",
	Short: "List the supporting articles of one target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("target")
		if key == "" {
			return fmt.Errorf("--target is required")
		}
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := st.Target(cmd.Context(), args[0], key)
		if err != nil {
			return err
		}
		return output.FormatArticleLinks(os.Stdout, *rec, formatConfig(cmd))
	},
}

// --- search subcommand ---

var runsSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over stored article titles and abstracts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		runID, _ := cmd.Flags().GetString("run-id")
		limit, _ := cmd.Flags().GetInt("limit")
		hits, err := st.SearchArticles(cmd.Context(), store.SearchOptions{
			Query:      strings.Join(args, " "),
			RunID:      runID,
			MaxResults: limit,
		})
		if err != nil {
			return err
		}

		cfg := formatConfig(cmd)
		switch {
		case cfg.JSON:
			return output.WriteJSON(os.Stdout, hits)
		case cfg.YAML:
			return output.WriteYAML(os.Stdout, hits)
		}
		if len(hits) == 0 {
			fmt.Println("No results found.")
			return nil
		}
		rows := make([][]string, 0, len(hits))
		for i, h := range hits {
			rows = append(rows, []string{strconv.Itoa(i + 1), h.Token, h.Title, h.RunID})
		}
		output.Table(os.Stdout, []string{"Rank", "Article", "Title", "Run ID"}, rows)
		fmt.Printf("\n%d results\n", len(hits))
		return nil
	},
}

// --- export subcommand ---

var runsExportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a run to YAML or JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		path, _ := cmd.Flags().GetString("output")

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		w := os.Stdout
		if path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating %s: %w", path, err)
			}
			defer f.Close()
			w = f
		}

		switch format {
		case "yaml", "":
			return st.ExportYAML(cmd.Context(), args[0], w)
		case "json":
			return st.ExportJSON(cmd.Context(), args[0], w)
		}
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	},
}

// --- delete subcommand ---

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Remove a run from the history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.DeleteRun(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted run %s\n", args[0])
		return nil
	},
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*store.Store, error) {
	if err := bindFlags(cmd, map[string]string{"data-dir": "store.data_dir"}); err != nil {
		return nil, err
	}
	return store.NewStore(pipelineConfig().Store)
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	runsCmd.PersistentFlags().String("data-dir", "", "history database directory (default data)")

	for _, c := range []*cobra.Command{runsListCmd, runsShowCmd, runsTargetsCmd, runsSearchCmd} {
		addFormatFlags(c)
	}
	runsListCmd.Flags().Int("limit", 0, "maximum runs to list (0 = use default)")
	runsShowCmd.Flags().String("csv", "", "export ranked targets to this CSV file")
	runsTargetsCmd.Flags().String("target", "", "target key (accession or lower-cased name)")
	runsSearchCmd.Flags().String("run-id", "", "restrict the search to one run")
	runsSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	runsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	runsExportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsTargetsCmd)
	runsCmd.AddCommand(runsSearchCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsDeleteCmd)

	rootCmd.AddCommand(runsCmd)
}

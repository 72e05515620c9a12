// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/target-explorer/internal/output"
	"github.com/pdiddy/target-explorer/internal/runfile"
	"github.com/pdiddy/target-explorer/internal/score"
	"github.com/pdiddy/target-explorer/internal/store"
	"github.com/pdiddy/target-explorer/internal/targets"
	"github.com/pdiddy/target-explorer/pkg/types"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Assess one target against its supporting articles with an LLM",
	Long: `Score loads a saved or recorded run, picks one of its ranked targets and
asks a language model to assess that target article by article. The
per-article answers are then combined into one corpus-level assessment
covering disease linkage, validation strength, druggability and safety,
and novelty.

Articles without a title or abstract are skipped. Model replies that hold
no parseable JSON are kept as error-tagged rows.

Requires an Anthropic API key in .secrets/anthropic-api-key or
TARGET_EXPLORER_SCORING_API_KEY.`,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().String("run", "", "saved run file (from discover --save)")
	scoreCmd.Flags().String("run-id", "", "run ID in the history database")
	scoreCmd.Flags().String("target", "", "target key, name or accession")
	scoreCmd.Flags().Int("max-articles", 0, "maximum articles to assess (default 10)")
	scoreCmd.Flags().String("model", "", "model identifier")
	scoreCmd.Flags().String("article-csv", "", "write per-article rows to this CSV file")
	scoreCmd.Flags().String("corpus-csv", "", "write corpus rows to this CSV file")
	scoreCmd.Flags().String("data-dir", "", "history database directory (default data)")
	addFormatFlags(scoreCmd)

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, map[string]string{
		"max-articles": "scoring.max_articles",
		"model":        "scoring.model",
		"data-dir":     "store.data_dir",
	}); err != nil {
		return err
	}
	cfg := pipelineConfig()
	if cfg.Scoring.APIKey == "" {
		return errors.New("no Anthropic API key: add .secrets/anthropic-api-key or set TARGET_EXPLORER_SCORING_API_KEY")
	}

	name, _ := cmd.Flags().GetString("target")
	if strings.TrimSpace(name) == "" {
		return errors.New("--target is required")
	}

	run, err := loadRun(cmd, cfg.Store)
	if err != nil {
		return err
	}
	rec, ok := run.Find(name)
	if !ok {
		return fmt.Errorf("target %q is not among the ranked targets of this run", name)
	}
	articles := run.SupportingArticles(rec)
	logger.Info().Str("target", rec.Name).Int("articles", len(articles)).Msg("scoring target")

	backend := &score.ClaudeBackend{
		APIKey: cfg.Scoring.APIKey,
		Model:  cfg.Scoring.Model,
		Client: &http.Client{Timeout: cfg.Search.Timeout * 3},
	}
	scorer := score.NewScorer(backend,
		score.WithMaxArticles(cfg.Scoring.MaxArticles),
		score.WithMaxRetries(cfg.Scoring.MaxRetries),
		score.WithLogger(logger),
		score.WithMetrics(metrics),
	)

	report, err := scorer.Score(cmd.Context(), rec.Name, articles)
	if err != nil {
		return err
	}

	articleRows := score.PerArticleRows(report.Articles)
	corpusRows := score.CorpusRows(report.Corpus)
	if path, _ := cmd.Flags().GetString("article-csv"); path != "" {
		if err := writeFile(path, func(w io.Writer) error { return score.WriteArticleRowsCSV(w, articleRows) }); err != nil {
			return err
		}
	}
	if path, _ := cmd.Flags().GetString("corpus-csv"); path != "" {
		if err := writeFile(path, func(w io.Writer) error { return score.WriteCorpusRowsCSV(w, corpusRows) }); err != nil {
			return err
		}
	}

	outCfg := formatConfig(cmd)
	switch {
	case outCfg.JSON:
		return output.WriteJSON(os.Stdout, report)
	case outCfg.YAML:
		return output.WriteYAML(os.Stdout, report)
	}
	printReport(os.Stdout, report, articleRows, corpusRows)
	return nil
}

// loadRun reads the run named by --run or --run-id.
func loadRun(cmd *cobra.Command, cfg types.StoreConfig) (*targets.Run, error) {
	path, _ := cmd.Flags().GetString("run")
	runID, _ := cmd.Flags().GetString("run-id")
	switch {
	case path != "" && runID != "":
		return nil, errors.New("use either --run or --run-id, not both")
	case path != "":
		return runfile.Load(path)
	case runID != "":
		st, err := store.NewStore(cfg)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		return st.GetRun(cmd.Context(), runID)
	}
	return nil, errors.New("--run or --run-id is required")
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func printReport(w io.Writer, report *score.Report, articleRows []score.ArticleRow, corpusRows []score.CorpusRow) {
	fmt.Fprintf(w, "Target: %s (%d assessed, %d skipped)\n\n", report.Target, len(report.Articles), report.Skipped)

	failed := 0
	for _, as := range report.Articles {
		if as.Failed() {
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(w, "%d article(s) returned no parseable assessment.\n\n", failed)
	}

	rows := make([][]string, 0, len(articleRows))
	for _, r := range articleRows {
		rows = append(rows, []string{r.ArticleID, r.Category, output.Truncate(r.Answer, 80), r.Confidence})
	}
	output.Table(w, []string{"Article", "Category", "Answer", "Confidence"}, rows)

	fmt.Fprintln(w)
	if report.Corpus.Failed() {
		fmt.Fprintln(w, "Corpus assessment: no parseable reply.")
		return
	}
	seen := make(map[string]bool)
	rows = rows[:0]
	for _, r := range corpusRows {
		if seen[r.Section] {
			continue
		}
		seen[r.Section] = true
		rows = append(rows, []string{r.Section, output.Truncate(r.Answer, 80), r.Confidence})
	}
	output.Table(w, []string{"Section", "Answer", "Confidence"}, rows)
}

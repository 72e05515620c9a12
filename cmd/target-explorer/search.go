// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/target-explorer/internal/europepmc"
	"github.com/pdiddy/target-explorer/internal/output"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search Europe PMC for articles",
	Long: `Search queries the Europe PMC literature search API for articles matching
a query within a publication year range, following pages until the
requested number of results is reached or the service runs out.

A page that fails stops pagination; the articles gathered so far are
still returned.`,
	RunE: runSearch,
}

func init() {
	addSearchFlags(searchCmd)
	addFormatFlags(searchCmd)

	rootCmd.AddCommand(searchCmd)
}

// addSearchFlags registers the flags shared by commands that run a search.
func addSearchFlags(cmd *cobra.Command) {
	year := time.Now().Year()
	cmd.Flags().String("query", "", "Europe PMC query (e.g. \"obesity\")")
	cmd.Flags().Int("from", year-2, "first publication year")
	cmd.Flags().Int("to", year, "last publication year")
	cmd.Flags().Int("max-results", defaultMaxResults, "maximum number of articles to fetch")
	cmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	cmd.Flags().Float64("rps", 0, "maximum requests per second toward Europe PMC (default 5)")
}

// addFormatFlags registers the output format flags.
func addFormatFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "output results as JSON")
	cmd.Flags().Bool("yaml", false, "output results as YAML")
}

func bindSearchFlags(cmd *cobra.Command) error {
	return bindFlags(cmd, map[string]string{
		"max-results": "search.max_results",
		"timeout":     "search.timeout",
		"rps":         "search.requests_per_second",
	})
}

// searchRequestFromFlags builds the search request. Positional arguments are
// joined into the query when --query is empty.
func searchRequestFromFlags(cmd *cobra.Command, args []string) (europepmc.SearchRequest, error) {
	query, _ := cmd.Flags().GetString("query")
	if query == "" && len(args) > 0 {
		query = strings.Join(args, " ")
	}
	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")

	req := europepmc.SearchRequest{
		Query:      query,
		FromYear:   from,
		ToYear:     to,
		MaxResults: viper.GetInt("search.max_results"),
	}
	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}

func formatConfig(cmd *cobra.Command) output.Config {
	jsonOut, _ := cmd.Flags().GetBool("json")
	yamlOut, _ := cmd.Flags().GetBool("yaml")
	return output.Config{JSON: jsonOut, YAML: yamlOut}
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := bindSearchFlags(cmd); err != nil {
		return err
	}
	req, err := searchRequestFromFlags(cmd, args)
	if err != nil {
		return err
	}

	client := newEuropePMCClient(pipelineConfig())
	articles, err := client.FetchArticles(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	logger.Info().Int("articles", len(articles)).Str("query", req.QueryString()).Msg("search complete")

	return output.FormatArticles(os.Stdout, articles, formatConfig(cmd))
}

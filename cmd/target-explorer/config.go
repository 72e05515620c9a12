// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/target-explorer/internal/europepmc"
	"github.com/pdiddy/target-explorer/internal/secrets"
	"github.com/pdiddy/target-explorer/pkg/types"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultUserAgent   = "target-explorer/0.1"
	defaultRPS         = 5
	defaultMaxResults  = 20
	defaultTopK        = 50
	defaultModel       = "claude-sonnet-4-5-20250929"
	defaultDataDir     = "data"
	defaultHistoryRows = 20
)

// setConfigDefaults registers the default of every config key. Keys mirror
// the YAML layout of types.PipelineConfig.
func setConfigDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("secrets_dir", secrets.DefaultDir)

	viper.SetDefault("search.timeout", defaultTimeout)
	viper.SetDefault("search.user_agent", defaultUserAgent)
	viper.SetDefault("search.requests_per_second", defaultRPS)
	viper.SetDefault("search.rate_limit_retries", 0)
	viper.SetDefault("search.max_results", defaultMaxResults)
	viper.SetDefault("search.page_size", europepmc.MaxPageSize)
	viper.SetDefault("search.email", "")

	viper.SetDefault("annotation.batch_size", europepmc.MaxBatchSize)
	viper.SetDefault("annotation.provider", europepmc.DefaultProvider)

	viper.SetDefault("aggregation.top_k", defaultTopK)
	viper.SetDefault("aggregation.tag_policy", string(types.TagPolicyAll))

	viper.SetDefault("scoring.model", defaultModel)
	viper.SetDefault("scoring.api_key", "")
	viper.SetDefault("scoring.max_retries", 0)
	viper.SetDefault("scoring.max_articles", 10)

	viper.SetDefault("store.data_dir", defaultDataDir)
	viper.SetDefault("store.max_results", defaultHistoryRows)
}

// bindFlags binds the named flags of cmd to viper keys. Binding happens per
// invocation because several commands share a key.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}

// pipelineConfig assembles the configuration from flags, environment,
// config file and defaults, in that order of precedence.
func pipelineConfig() types.PipelineConfig {
	return types.PipelineConfig{
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:           viper.GetDuration("search.timeout"),
				UserAgent:         viper.GetString("search.user_agent"),
				RequestsPerSecond: viper.GetFloat64("search.requests_per_second"),
				RateLimitRetries:  viper.GetInt("search.rate_limit_retries"),
			},
			MaxResults: viper.GetInt("search.max_results"),
			PageSize:   viper.GetInt("search.page_size"),
			Email:      loadedSecrets.Get(secrets.EuropePMCEmail, viper.GetString("search.email")),
		},
		Annotation: types.AnnotationConfig{
			BatchSize: viper.GetInt("annotation.batch_size"),
			Provider:  viper.GetString("annotation.provider"),
		},
		Aggregation: types.AggregationConfig{
			TopK:      viper.GetInt("aggregation.top_k"),
			TagPolicy: types.TagPolicy(viper.GetString("aggregation.tag_policy")),
		},
		Scoring: types.ScoringConfig{
			AIConfig: types.AIConfig{
				Model:      viper.GetString("scoring.model"),
				APIKey:     loadedSecrets.Get(secrets.AnthropicAPIKey, viper.GetString("scoring.api_key")),
				MaxRetries: viper.GetInt("scoring.max_retries"),
			},
			MaxArticles: viper.GetInt("scoring.max_articles"),
		},
		Store: types.StoreConfig{
			DataDir:    viper.GetString("store.data_dir"),
			MaxResults: viper.GetInt("store.max_results"),
		},
	}
}

// newEuropePMCClient builds the search and annotation client.
func newEuropePMCClient(cfg types.PipelineConfig) *europepmc.Client {
	return europepmc.NewClient(cfg.Search.HTTPConfig,
		europepmc.WithLogger(logger),
		europepmc.WithMetrics(metrics),
		europepmc.WithPageSize(cfg.Search.PageSize),
		europepmc.WithBatchSize(cfg.Annotation.BatchSize),
		europepmc.WithProvider(cfg.Annotation.Provider),
		europepmc.WithEmail(cfg.Search.Email),
	)
}

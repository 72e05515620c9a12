// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the target-explorer CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/target-explorer/internal/observability"
	"github.com/pdiddy/target-explorer/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds API keys loaded from the secrets directory at startup.
	loadedSecrets secrets.Secrets

	// logger is configured from the logging flags before any command runs.
	logger = zerolog.Nop()

	// metrics collects the counters of this invocation.
	metrics = observability.NewMetrics()
)

// rootCmd is the base command for the target-explorer CLI.
var rootCmd = &cobra.Command{
	Use:   "target-explorer",
	Short: "Rank drug targets mentioned in the biomedical literature",
	Long: `target-explorer searches Europe PMC for articles about a disease or topic,
fetches the gene/protein annotations of those articles and ranks the
targets they mention by how often they occur.

Runs can be saved to YAML, kept in a local SQLite history, served as a
read-only JSON API, and scored against their supporting articles with a
language model.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = observability.NewLogger(observability.LoggingConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
			Output: "stderr",
		})
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug().Str("file", f).Msg("using config file")
		}

		s, err := secrets.Load(viper.GetString("secrets_dir"), logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Debug().Strs("keys", s.Names()).Msg("loaded secrets")
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("metrics_file")
		if path == "" {
			return nil
		}
		if err := metrics.WriteTextfile(path); err != nil {
			return err
		}
		logger.Debug().Str("path", path).Msg("metrics written")
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./target-explorer.yaml or ~/.config/target-explorer/config.yaml)")
	pf.String("log-level", "info", "log level: trace, debug, info, warn, error")
	pf.String("log-format", "console", "log format: console or json")
	pf.String("metrics-file", "", "write Prometheus metrics to this file on exit")
	pf.String("secrets-dir", secrets.DefaultDir, "directory of API key files")

	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("log.format", pf.Lookup("log-format"))
	viper.BindPFlag("metrics_file", pf.Lookup("metrics-file"))
	viper.BindPFlag("secrets_dir", pf.Lookup("secrets-dir"))

	setConfigDefaults()
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("target-explorer")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "target-explorer"))
		}
	}

	viper.SetEnvPrefix("TARGET_EXPLORER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintln(os.Stderr, "warning: reading config:", err)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

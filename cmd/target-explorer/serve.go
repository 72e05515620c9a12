// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/target-explorer/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run history as a read-only JSON API",
	Long: `Serve exposes recorded runs over HTTP:

  GET /healthz
  GET /metrics
  GET /api/v1/runs
  GET /api/v1/runs/{runID}
  GET /api/v1/runs/{runID}/articles
  GET /api/v1/runs/{runID}/targets
  GET /api/v1/runs/{runID}/targets/{key}
  GET /api/v1/runs/{runID}/targets/{key}/articles
  GET /api/v1/search?q=...&run=...&limit=...

The server stops gracefully on interrupt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		cfg := api.DefaultConfig()
		cfg.Address = addr
		return api.NewServer(cfg, st, metrics, logger).Run(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().String("data-dir", "", "history database directory (default data)")

	rootCmd.AddCommand(serveCmd)
}

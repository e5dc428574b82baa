package main

import (
	"github.com/spf13/cobra"

	"github.com/artpar/stacgate/bootstrap"
	"github.com/artpar/stacgate/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the catalog API server",
	Long: `Start the stacgate API server.

The server will:
  - Load configuration from stacgate.yaml (or --config)
  - Or load configuration from STACGATE_* environment variables
  - Connect to the database and run migrations
  - Register the configured extensions and mount their routes
  - Serve the catalog API with token-exchange authorization

Environment variables (for Docker deployments):
  STACGATE_API_BASE_URL      - External base URL (required)
  STACGATE_DATABASE_DSN      - Database path (default: stacgate.db)
  STACGATE_SERVER_PORT       - Server port (default: 8080)
  STACGATE_IDENTITY_BASE_URL - Identity provider URL
  STACGATE_LOG_LEVEL         - Log level: debug, info, warn, error

Examples:
  stacgate serve
  stacgate serve --config /etc/stacgate/config.yaml

  # Docker (env vars only):
  STACGATE_API_BASE_URL=https://catalog.example.com stacgate serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return err
	}

	app, err := bootstrap.New(cfg)
	if err != nil {
		return err
	}

	return app.Run()
}

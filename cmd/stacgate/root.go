package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stacgate",
	Short: "Geospatial catalog API server with pluggable extensions",
	Long: `stacgate serves a workspace-aware geospatial catalog API.

It adapts catalog, collection and item resources behind composable
request schemas, pluggable extensions and token-exchange based
authorization.

Quick start:
  stacgate serve     # Start the API server

Management:
  stacgate routes    # List mounted routes
  stacgate validate  # Validate configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "stacgate.yaml", "config file path")
}

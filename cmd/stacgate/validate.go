package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/stacgate/adapters/sqlite"
	"github.com/artpar/stacgate/config"
)

const (
	checkMark = "✓"
	crossMark = "✗"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the stacgate configuration file.

Checks:
  - YAML syntax is valid
  - Required fields are present
  - Extension list is consistent
  - Database is writable (optional)

Examples:
  stacgate validate
  stacgate validate --config /etc/stacgate/config.yaml`,
	RunE: runValidate,
}

var validateCheckDatabase bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckDatabase, "check-database", false, "check if database is writable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating %s...\n\n", cfgFile)

	// Check file exists
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Printf("  %s Config file exists\n", checkMark)

	// Load and validate config
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Printf("  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Printf("  %s Config syntax valid\n", checkMark)
	fmt.Printf("  %s Required fields present\n", checkMark)

	if validateCheckDatabase {
		db, err := sqlite.Open(cfg.Database.DSN)
		if err != nil {
			fmt.Printf("  %s Database writable\n", crossMark)
			return fmt.Errorf("database error: %w", err)
		}
		db.Close()
		fmt.Printf("  %s Database writable\n", checkMark)
	}

	fmt.Printf("\nConfiguration valid\n")
	fmt.Printf("  Base URL:   %s\n", cfg.API.BaseURL)
	fmt.Printf("  Extensions: %d\n", len(cfg.Extensions))
	fmt.Printf("  Database:   %s\n", cfg.Database.DSN)
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/stacgate/bootstrap"
	"github.com/artpar/stacgate/config"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the routes the configured extensions mount",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithFallback(cfgFile)
		if err != nil {
			return err
		}

		app, err := bootstrap.New(cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		for _, rt := range app.Registry.Routes() {
			fmt.Printf("%-7s %-70s %s\n", rt.Method, rt.Path, rt.Name)
		}
		fmt.Printf("\nConformance classes:\n")
		for _, cc := range app.Registry.Conformance() {
			fmt.Printf("  %s\n", cc)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
}

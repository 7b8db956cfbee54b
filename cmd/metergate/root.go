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
	Use:   "metergate",
	Short: "Per-user quota enforcement and subscription billing sync",
	Long: `Metergate meters a paid capability per user and keeps local
entitlements in sync with a subscription billing provider.

It enforces monthly request quotas per user, initiates upgrade checkouts,
and applies billing provider webhooks to local entitlement profiles.

Quick start:
  metergate init      # Create a starter config file
  metergate serve     # Start the server

Management:
  metergate validate  # Validate configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "metergate.yaml", "config file path")
}

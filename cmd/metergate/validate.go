package main

import (
	"fmt"
	"os"

	"github.com/artpar/metergate/adapters/sqlite"
	"github.com/artpar/metergate/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the metergate configuration file.

Checks:
  - YAML syntax is valid
  - Required fields are present
  - Database is writable (optional)

Examples:
  metergate validate
  metergate validate --config /etc/metergate/config.yaml`,
	RunE: runValidate,
}

var validateCheckDatabase bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckDatabase, "check-database", false, "check if database is writable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Printf("  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Printf("  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Printf("  %s Config syntax valid\n", checkMark)

	fmt.Printf("  %s Database: %s (%s)\n", checkMark, cfg.Database.DSN, cfg.Database.Driver)
	fmt.Printf("  %s Billing mode: %s\n", checkMark, cfg.Billing.Mode)
	fmt.Printf("  %s Free quota: %d requests/month\n", checkMark, cfg.Quota.FreeRequestsPerMonth)
	if cfg.Quota.ProRequestsPerMonth == -1 {
		fmt.Printf("  %s Pro quota: unlimited\n", checkMark)
	} else {
		fmt.Printf("  %s Pro quota: %d requests/month\n", checkMark, cfg.Quota.ProRequestsPerMonth)
	}

	if validateCheckDatabase && cfg.Database.Driver == "sqlite" {
		if err := checkDatabaseWritable(cfg.Database.DSN); err != nil {
			fmt.Printf("  %s Database writable\n", crossMark)
			fmt.Printf("      Error: %v\n", err)
		} else {
			fmt.Printf("  %s Database writable\n", checkMark)
		}
	}

	fmt.Println()
	fmt.Println("Configuration is valid.")
	return nil
}

func checkDatabaseWritable(dsn string) error {
	db, err := sqlite.Open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return nil
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter configuration file",
	Long: `Initialize metergate with a starter configuration file.

This will:
  1. Ask for the database location
  2. Ask for the billing mode (stripe or dummy)
  3. Write the configuration file

Examples:
  metergate init
  metergate init --config /etc/metergate/config.yaml`,
	RunE: runInit,
}

var (
	initDatabase       string
	initBillingMode    string
	initNonInteractive bool
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initDatabase, "database", "metergate.db", "database file path")
	initCmd.Flags().StringVar(&initBillingMode, "billing-mode", "dummy", "billing mode: stripe or dummy")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "run without prompts")
}

func runInit(cmd *cobra.Command, args []string) error {
	fmt.Println("Welcome to metergate!")
	fmt.Println()

	if _, err := os.Stat(cfgFile); err == nil {
		fmt.Printf("Configuration file already exists: %s\n", cfgFile)
		if !confirm("Overwrite?") {
			fmt.Println("Aborted.")
			return nil
		}
	}

	reader := bufio.NewReader(os.Stdin)

	database := initDatabase
	billingMode := initBillingMode
	if !initNonInteractive {
		database = prompt(reader, "Database file path", initDatabase)
		billingMode = prompt(reader, "Billing mode (stripe/dummy)", initBillingMode)
	}
	if billingMode != "stripe" && billingMode != "dummy" {
		return fmt.Errorf("billing mode must be 'stripe' or 'dummy', got %q", billingMode)
	}

	content := fmt.Sprintf(`server:
  host: "0.0.0.0"
  port: 8080

database:
  driver: "sqlite"
  dsn: %q

billing:
  mode: %q
`, database, billingMode)

	if billingMode == "stripe" {
		content += `  stripe_secret_key: "${STRIPE_SECRET_KEY}"
  stripe_webhook_secret: "${STRIPE_WEBHOOK_SECRET}"
  stripe_price_id: "${STRIPE_PRICE_ID}"
`
	}

	content += `
quota:
  free_requests_per_month: 5
  pro_requests_per_month: -1

logging:
  level: "info"
  format: "json"

metrics:
  enabled: true
`

	if err := os.WriteFile(cfgFile, []byte(content), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Println()
	fmt.Printf("Wrote %s\n", cfgFile)
	if billingMode == "stripe" {
		fmt.Println()
		fmt.Println("Set these environment variables before starting:")
		fmt.Println("  STRIPE_SECRET_KEY, STRIPE_WEBHOOK_SECRET, STRIPE_PRICE_ID")
	}
	fmt.Println()
	fmt.Println("Start the server with: metergate serve")
	return nil
}

func prompt(reader *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func confirm(label string) bool {
	fmt.Printf("%s [y/N]: ", label)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}

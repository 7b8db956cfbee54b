package main

import (
	"fmt"
	"os"

	"github.com/artpar/metergate/bootstrap"
	"github.com/spf13/cobra"
)

var hotReload bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the metering server",
	Long: `Start the metergate server.

The server will:
  - Load configuration from metergate.yaml (or --config)
  - Or load configuration from METERGATE_* environment variables
  - Open the profile and usage stores
  - Enforce per-user monthly quotas on the metered endpoint
  - Receive billing provider webhooks and sync entitlements

Environment variables (for Docker deployments):
  METERGATE_DATABASE_DRIVER       - sqlite or memory (default: sqlite)
  METERGATE_DATABASE_DSN          - Database path (default: metergate.db)
  METERGATE_SERVER_PORT           - Server port (default: 8080)
  METERGATE_BILLING_MODE          - stripe or dummy (default: dummy)
  METERGATE_STRIPE_SECRET_KEY     - Stripe API secret key
  METERGATE_STRIPE_WEBHOOK_SECRET - Stripe webhook signing secret
  METERGATE_STRIPE_PRICE_ID       - Price ID of the pro subscription
  METERGATE_LOG_LEVEL             - Log level: debug, info, warn, error

Examples:
  metergate serve
  metergate serve --config /etc/metergate/config.yaml
  metergate serve --hot-reload=false

  # Docker (env vars only):
  METERGATE_BILLING_MODE=dummy metergate serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	path := cfgFile
	if !hasConfigFile {
		fmt.Println("Running with environment variables (no config file)")
		path = ""
	}

	app, err := bootstrap.New(path)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Hot reload only works with a config file
	if hasConfigFile && hotReload {
		if err := app.Watch(); err != nil {
			return err
		}
	}

	// Run (blocks until shutdown)
	return app.Run()
}

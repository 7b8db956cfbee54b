// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Billing  BillingConfig  `yaml:"billing"`
	Quota    QuotaConfig    `yaml:"quota"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig configures the persistence layer.
// Use "sqlite" for durable storage or "memory" for development.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "memory"
	DSN    string `yaml:"dsn"`
}

// BillingConfig configures the billing provider.
// Use "stripe" for production or "dummy" for development and tests.
type BillingConfig struct {
	Mode                string `yaml:"mode"` // "stripe" or "dummy"
	StripeSecretKey     string `yaml:"stripe_secret_key,omitempty"`
	StripeWebhookSecret string `yaml:"stripe_webhook_secret,omitempty"`
	StripePriceID       string `yaml:"stripe_price_id,omitempty"`
	SuccessURL          string `yaml:"success_url"`
	CancelURL           string `yaml:"cancel_url"`
	DashboardURL        string `yaml:"dashboard_url"`
}

// QuotaConfig configures the monthly request quotas per tier.
type QuotaConfig struct {
	FreeRequestsPerMonth int64 `yaml:"free_requests_per_month"`
	ProRequestsPerMonth  int64 `yaml:"pro_requests_per_month"` // -1 = unlimited
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // default: /metrics
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// This is useful for container deployments where no config file is mounted.
//
// Environment variables:
//
//	METERGATE_SERVER_HOST           - Server host (default: 0.0.0.0)
//	METERGATE_SERVER_PORT           - Server port (default: 8080)
//	METERGATE_DATABASE_DRIVER       - "sqlite" or "memory" (default: sqlite)
//	METERGATE_DATABASE_DSN          - Database path (default: metergate.db)
//	METERGATE_BILLING_MODE          - "stripe" or "dummy" (default: dummy)
//	METERGATE_STRIPE_SECRET_KEY     - Stripe API secret key
//	METERGATE_STRIPE_WEBHOOK_SECRET - Stripe webhook signing secret
//	METERGATE_STRIPE_PRICE_ID       - Price ID of the pro subscription
//	METERGATE_QUOTA_FREE            - Free-tier monthly quota (default: 5)
//	METERGATE_QUOTA_PRO             - Pro-tier monthly quota (default: -1)
//	METERGATE_LOG_LEVEL             - Log level (default: info)
//	METERGATE_LOG_FORMAT            - "json" or "console" (default: json)
//	METERGATE_METRICS_ENABLED       - Enable /metrics endpoint (default: false)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment
// variables when the file does not exist.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies METERGATE_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("METERGATE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("METERGATE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("METERGATE_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("METERGATE_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	if v := os.Getenv("METERGATE_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("METERGATE_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	if v := os.Getenv("METERGATE_BILLING_MODE"); v != "" {
		cfg.Billing.Mode = v
	}
	if v := os.Getenv("METERGATE_STRIPE_SECRET_KEY"); v != "" {
		cfg.Billing.StripeSecretKey = v
	}
	if v := os.Getenv("METERGATE_STRIPE_WEBHOOK_SECRET"); v != "" {
		cfg.Billing.StripeWebhookSecret = v
	}
	if v := os.Getenv("METERGATE_STRIPE_PRICE_ID"); v != "" {
		cfg.Billing.StripePriceID = v
	}
	if v := os.Getenv("METERGATE_BILLING_SUCCESS_URL"); v != "" {
		cfg.Billing.SuccessURL = v
	}
	if v := os.Getenv("METERGATE_BILLING_CANCEL_URL"); v != "" {
		cfg.Billing.CancelURL = v
	}
	if v := os.Getenv("METERGATE_BILLING_DASHBOARD_URL"); v != "" {
		cfg.Billing.DashboardURL = v
	}

	if v := os.Getenv("METERGATE_QUOTA_FREE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Quota.FreeRequestsPerMonth = n
		}
	}
	if v := os.Getenv("METERGATE_QUOTA_PRO"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Quota.ProRequestsPerMonth = n
		}
	}

	if v := os.Getenv("METERGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("METERGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("METERGATE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("METERGATE_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "metergate.db"
	}

	if cfg.Billing.Mode == "" {
		cfg.Billing.Mode = "dummy"
	}
	if cfg.Billing.SuccessURL == "" {
		cfg.Billing.SuccessURL = "http://localhost:8080/upgrade/success"
	}
	if cfg.Billing.CancelURL == "" {
		cfg.Billing.CancelURL = "http://localhost:8080/upgrade/cancel"
	}
	if cfg.Billing.DashboardURL == "" {
		cfg.Billing.DashboardURL = "http://localhost:8080/dashboard"
	}

	if cfg.Quota.FreeRequestsPerMonth == 0 {
		cfg.Quota.FreeRequestsPerMonth = 5
	}
	if cfg.Quota.ProRequestsPerMonth == 0 {
		cfg.Quota.ProRequestsPerMonth = -1
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	validDrivers := map[string]bool{"sqlite": true, "memory": true}
	if !validDrivers[cfg.Database.Driver] {
		return fmt.Errorf("database.driver must be 'sqlite' or 'memory', got %q", cfg.Database.Driver)
	}

	validBillingModes := map[string]bool{"stripe": true, "dummy": true}
	if !validBillingModes[cfg.Billing.Mode] {
		return fmt.Errorf("billing.mode must be 'stripe' or 'dummy', got %q", cfg.Billing.Mode)
	}
	if cfg.Billing.Mode == "stripe" {
		if cfg.Billing.StripeSecretKey == "" {
			return fmt.Errorf("billing.stripe_secret_key is required when billing.mode is 'stripe'")
		}
		if cfg.Billing.StripeWebhookSecret == "" {
			return fmt.Errorf("billing.stripe_webhook_secret is required when billing.mode is 'stripe'")
		}
		if cfg.Billing.StripePriceID == "" {
			return fmt.Errorf("billing.stripe_price_id is required when billing.mode is 'stripe'")
		}
	}

	if cfg.Quota.FreeRequestsPerMonth < 0 {
		return fmt.Errorf("quota.free_requests_per_month must be non-negative, got %d", cfg.Quota.FreeRequestsPerMonth)
	}
	if cfg.Quota.ProRequestsPerMonth < -1 {
		return fmt.Errorf("quota.pro_requests_per_month must be -1 (unlimited) or non-negative, got %d", cfg.Quota.ProRequestsPerMonth)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	return nil
}

package payment

import (
	"fmt"

	"github.com/artpar/metergate/ports"
)

// FactoryConfig selects and configures a billing provider.
type FactoryConfig struct {
	Mode                string // "stripe", "dummy"
	StripeSecretKey     string
	StripeWebhookSecret string
	SuccessURL          string
}

// NewProvider creates a billing provider based on configuration.
func NewProvider(cfg FactoryConfig) (ports.BillingProvider, error) {
	switch cfg.Mode {
	case "stripe":
		if cfg.StripeSecretKey == "" {
			return nil, fmt.Errorf("stripe secret key is required")
		}
		if cfg.StripeWebhookSecret == "" {
			return nil, fmt.Errorf("stripe webhook secret is required")
		}
		return NewStripeProvider(StripeConfig{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
		}), nil

	case "dummy":
		// Dummy provider for development/testing - simulates successful payments
		return NewDummyProvider(cfg.SuccessURL), nil

	default:
		return nil, fmt.Errorf("unknown billing mode %q", cfg.Mode)
	}
}

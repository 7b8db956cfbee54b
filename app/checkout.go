package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/artpar/metergate/adapters/metrics"
	"github.com/artpar/metergate/ports"
	"github.com/rs/zerolog"
)

// ErrEmailRequired signals a checkout request without a contact email.
var ErrEmailRequired = errors.New("missing user email")

// CheckoutConfig carries the billing configuration for checkout initiation.
type CheckoutConfig struct {
	PriceID      string
	SuccessURL   string
	CancelURL    string
	DashboardURL string
}

// CheckoutResult is the outcome of a checkout initiation.
type CheckoutResult struct {
	// CheckoutURL is set when a new checkout session was created.
	CheckoutURL string
	// RedirectURL is set instead when the user is already entitled.
	RedirectURL string
	// AlreadySubscribed reports which of the two applies.
	AlreadySubscribed bool
}

// CheckoutService resolves the billing customer for a user and starts a
// checkout session. It runs once per upgrade initiation, never on the hot
// path.
type CheckoutService struct {
	provider ports.BillingProvider
	logger   zerolog.Logger
	metrics  *metrics.Collector

	cfg atomic.Pointer[CheckoutConfig]
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(provider ports.BillingProvider, cfg CheckoutConfig, logger zerolog.Logger, m *metrics.Collector) *CheckoutService {
	s := &CheckoutService{
		provider: provider,
		logger:   logger,
		metrics:  m,
	}
	s.UpdateConfig(cfg)
	return s
}

// UpdateConfig updates the hot-reloadable checkout configuration.
func (s *CheckoutService) UpdateConfig(cfg CheckoutConfig) {
	s.cfg.Store(&cfg)
}

// StartCheckout resolves the billing customer and either starts a checkout
// session or, when an active subscription at the target price already
// exists, signals "already entitled" so the caller redirects instead of
// creating a duplicate subscription.
func (s *CheckoutService) StartCheckout(ctx context.Context, userID, email string) (CheckoutResult, error) {
	if email == "" {
		return CheckoutResult{}, ErrEmailRequired
	}
	cfg := *s.cfg.Load()

	cust, err := s.resolveOrCreateCustomer(ctx, userID, email)
	if err != nil {
		s.countCheckout("error")
		return CheckoutResult{}, err
	}

	active, err := s.provider.HasActiveSubscription(ctx, cust.ID, cfg.PriceID)
	if err != nil {
		s.countCheckout("error")
		return CheckoutResult{}, fmt.Errorf("list subscriptions: %w", err)
	}
	if active {
		s.countCheckout("already_subscribed")
		s.logger.Info().
			Str("user_id", userID).
			Str("customer_id", cust.ID).
			Msg("checkout skipped, subscription already active")
		return CheckoutResult{RedirectURL: cfg.DashboardURL, AlreadySubscribed: true}, nil
	}

	url, err := s.provider.CreateCheckoutSession(ctx, ports.CheckoutParams{
		CustomerID: cust.ID,
		PriceID:    cfg.PriceID,
		UserID:     userID,
		SuccessURL: cfg.SuccessURL,
		CancelURL:  cfg.CancelURL,
	})
	if err != nil {
		s.countCheckout("error")
		return CheckoutResult{}, fmt.Errorf("create checkout session: %w", err)
	}

	s.countCheckout("started")
	s.logger.Info().
		Str("user_id", userID).
		Str("customer_id", cust.ID).
		Msg("checkout session created")
	return CheckoutResult{CheckoutURL: url}, nil
}

// resolveOrCreateCustomer maps the internal user identity to a billing
// customer. Metadata tag lookup is authoritative; email is a legacy fallback
// whose hits get the tag backfilled; creation is the last resort.
func (s *CheckoutService) resolveOrCreateCustomer(ctx context.Context, userID, email string) (ports.Customer, error) {
	cust, found, err := s.provider.FindCustomerByUserID(ctx, userID)
	if err != nil {
		return ports.Customer{}, fmt.Errorf("find customer by user id: %w", err)
	}
	if found {
		return cust, nil
	}

	cust, found, err = s.provider.FindCustomerByEmail(ctx, email)
	if err != nil {
		return ports.Customer{}, fmt.Errorf("find customer by email: %w", err)
	}
	if found {
		if cust.UserID == "" {
			if err := s.provider.TagCustomer(ctx, cust.ID, userID); err != nil {
				return ports.Customer{}, fmt.Errorf("tag customer: %w", err)
			}
			s.logger.Info().
				Str("user_id", userID).
				Str("customer_id", cust.ID).
				Msg("backfilled user tag on existing customer")
		}
		return cust, nil
	}

	cust, err = s.provider.CreateCustomer(ctx, email, userID)
	if err != nil {
		return ports.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	s.logger.Info().
		Str("user_id", userID).
		Str("customer_id", cust.ID).
		Msg("created billing customer")
	return cust, nil
}

func (s *CheckoutService) countCheckout(outcome string) {
	if s.metrics != nil {
		s.metrics.CheckoutsTotal.WithLabelValues(outcome).Inc()
	}
}

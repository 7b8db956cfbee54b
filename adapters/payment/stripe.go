package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/artpar/metergate/domain/billing"
	"github.com/artpar/metergate/ports"
	"github.com/stripe/stripe-go/v76"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/subscription"
	"github.com/stripe/stripe-go/v76/webhook"
)

// metadataUserIDKey tags provider customers and subscriptions with the
// internal user identity so webhook events correlate back.
const metadataUserIDKey = "user_id"

// StripeConfig holds Stripe configuration.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// StripeProvider implements ports.BillingProvider for Stripe.
type StripeProvider struct {
	config StripeConfig
}

// NewStripeProvider creates a new Stripe billing provider.
func NewStripeProvider(config StripeConfig) *StripeProvider {
	stripe.Key = config.SecretKey
	return &StripeProvider{config: config}
}

// Name returns the provider name.
func (p *StripeProvider) Name() string {
	return "stripe"
}

// FindCustomerByUserID searches for a customer tagged with the user ID.
func (p *StripeProvider) FindCustomerByUserID(ctx context.Context, userID string) (ports.Customer, bool, error) {
	params := &stripe.CustomerSearchParams{
		SearchParams: stripe.SearchParams{
			Query:   fmt.Sprintf("metadata['%s']:'%s'", metadataUserIDKey, userID),
			Limit:   stripe.Int64(1),
			Context: ctx,
		},
	}

	iter := customer.Search(params)
	for iter.Next() {
		return customerFromStripe(iter.Customer()), true, nil
	}
	if err := iter.Err(); err != nil {
		return ports.Customer{}, false, err
	}
	return ports.Customer{}, false, nil
}

// FindCustomerByEmail looks up a customer by contact email (first match wins).
func (p *StripeProvider) FindCustomerByEmail(ctx context.Context, email string) (ports.Customer, bool, error) {
	params := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}
	params.Limit = stripe.Int64(1)
	params.Context = ctx

	iter := customer.List(params)
	for iter.Next() {
		return customerFromStripe(iter.Customer()), true, nil
	}
	if err := iter.Err(); err != nil {
		return ports.Customer{}, false, err
	}
	return ports.Customer{}, false, nil
}

// CreateCustomer creates a customer tagged with the user ID.
func (p *StripeProvider) CreateCustomer(ctx context.Context, email, userID string) (ports.Customer, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	params.AddMetadata(metadataUserIDKey, userID)

	c, err := customer.New(params)
	if err != nil {
		return ports.Customer{}, err
	}
	return customerFromStripe(c), nil
}

// TagCustomer backfills the user ID into a customer's metadata.
func (p *StripeProvider) TagCustomer(ctx context.Context, customerID, userID string) error {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	params.AddMetadata(metadataUserIDKey, userID)

	_, err := customer.Update(customerID, params)
	return err
}

// HasActiveSubscription reports whether the customer holds an active
// subscription at the given price.
func (p *StripeProvider) HasActiveSubscription(ctx context.Context, customerID, priceID string) (bool, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Price:    stripe.String(priceID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Limit = stripe.Int64(1)
	params.Context = ctx

	iter := subscription.List(params)
	if iter.Next() {
		return true, nil
	}
	return false, iter.Err()
}

// CreateCheckoutSession creates a subscription checkout session. The user ID
// is propagated into subscription metadata so later webhook events carry the
// correlation identity.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, cp ports.CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(cp.CustomerID),
		SuccessURL: stripe.String(cp.SuccessURL),
		CancelURL:  stripe.String(cp.CancelURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(cp.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{metadataUserIDKey: cp.UserID},
		},
	}
	params.Context = ctx

	s, err := checkoutsession.New(params)
	if err != nil {
		return "", err
	}
	return s.URL, nil
}

// VerifyWebhook verifies a Stripe webhook signature and maps the payload
// onto a domain billing event.
func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (billing.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.config.WebhookSecret)
	if err != nil {
		return billing.Event{}, err
	}

	var object map[string]any
	if err := json.Unmarshal(event.Data.Raw, &object); err != nil {
		return billing.Event{}, fmt.Errorf("decode event object: %w", err)
	}

	return eventFromObject(string(event.Type), object), nil
}

func customerFromStripe(c *stripe.Customer) ports.Customer {
	return ports.Customer{
		ID:     c.ID,
		Email:  c.Email,
		UserID: c.Metadata[metadataUserIDKey],
	}
}

// Ensure interface compliance.
var _ ports.BillingProvider = (*StripeProvider)(nil)

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/artpar/metergate/adapters/idgen"
	"github.com/artpar/metergate/domain/billing"
	"github.com/artpar/metergate/ports"
)

// ErrBadSignature is returned by the dummy provider for unsigned payloads.
var ErrBadSignature = errors.New("webhook signature verification failed")

// DummySignature is the signature the dummy provider accepts.
const DummySignature = "dummy-signature"

// DummyProvider is a test/demo billing provider backed by in-memory state.
// Use this for development and tests when real payment credentials aren't
// available; checkout "sessions" redirect straight to the success URL.
type DummyProvider struct {
	mu            sync.Mutex
	customers     map[string]*ports.Customer // by customer ID
	subscriptions map[string]string          // customer ID -> price ID
	successURL    string
	idgen         ports.IDGenerator
}

// NewDummyProvider creates a new dummy billing provider.
func NewDummyProvider(successURL string) *DummyProvider {
	return &DummyProvider{
		customers:     make(map[string]*ports.Customer),
		subscriptions: make(map[string]string),
		successURL:    successURL,
		idgen:         idgen.UUID{},
	}
}

// SetIDGenerator overrides the customer ID generator (for deterministic tests).
func (p *DummyProvider) SetIDGenerator(g ports.IDGenerator) {
	p.idgen = g
}

// Name returns the provider name.
func (p *DummyProvider) Name() string {
	return "dummy"
}

// FindCustomerByUserID looks up a customer by its user ID tag.
func (p *DummyProvider) FindCustomerByUserID(ctx context.Context, userID string) (ports.Customer, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.customers {
		if c.UserID == userID {
			return *c, true, nil
		}
	}
	return ports.Customer{}, false, nil
}

// FindCustomerByEmail looks up a customer by email.
func (p *DummyProvider) FindCustomerByEmail(ctx context.Context, email string) (ports.Customer, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.customers {
		if c.Email == email {
			return *c, true, nil
		}
	}
	return ports.Customer{}, false, nil
}

// CreateCustomer creates a customer tagged with the user ID.
func (p *DummyProvider) CreateCustomer(ctx context.Context, email, userID string) (ports.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := ports.Customer{
		ID:     "cus_dummy_" + p.idgen.New(),
		Email:  email,
		UserID: userID,
	}
	p.customers[c.ID] = &c
	return c, nil
}

// TagCustomer backfills the user ID tag on a customer.
func (p *DummyProvider) TagCustomer(ctx context.Context, customerID, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.customers[customerID]
	if !ok {
		return fmt.Errorf("customer %s not found", customerID)
	}
	c.UserID = userID
	return nil
}

// HasActiveSubscription reports whether the customer has a recorded
// subscription at the given price.
func (p *DummyProvider) HasActiveSubscription(ctx context.Context, customerID, priceID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.subscriptions[customerID] == priceID, nil
}

// CreateCheckoutSession skips actual checkout and returns the success URL,
// allowing the full upgrade flow to be exercised without real payment.
func (p *DummyProvider) CreateCheckoutSession(ctx context.Context, cp ports.CheckoutParams) (string, error) {
	return p.successURL, nil
}

// VerifyWebhook accepts payloads signed with DummySignature. The payload is
// the JSON shape real providers send: a type plus a data object.
func (p *DummyProvider) VerifyWebhook(payload []byte, signature string) (billing.Event, error) {
	if signature != DummySignature {
		return billing.Event{}, ErrBadSignature
	}

	var body struct {
		Type string `json:"type"`
		Data struct {
			Object map[string]any `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return billing.Event{}, fmt.Errorf("decode payload: %w", err)
	}

	return eventFromObject(body.Type, body.Data.Object), nil
}

// AddSubscription records an active subscription (for tests and demos).
func (p *DummyProvider) AddSubscription(customerID, priceID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscriptions[customerID] = priceID
}

// AddCustomer seeds a customer (for tests and demos).
func (p *DummyProvider) AddCustomer(c ports.Customer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customers[c.ID] = &c
}

// CustomerCount returns the number of customers (for tests).
func (p *DummyProvider) CustomerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.customers)
}

// Ensure interface compliance.
var _ ports.BillingProvider = (*DummyProvider)(nil)

// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"

	"github.com/artpar/metergate/domain/billing"
	"github.com/artpar/metergate/domain/entitlement"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// ProfileStore persists per-user entitlement profiles.
type ProfileStore interface {
	// Get retrieves a profile. The second return is false when no profile
	// has ever been written for the user; callers substitute free defaults.
	Get(ctx context.Context, userID string) (entitlement.Profile, bool, error)

	// Put stores a profile, overwriting any existing record.
	Put(ctx context.Context, p entitlement.Profile) error
}

// UsageStore persists per-user per-period usage counters.
// Increment is the one correctness-critical operation in the system: it must
// be atomic under arbitrary concurrent callers for the same (user, period).
type UsageStore interface {
	// Count returns the current count for a period; 0 when no row exists.
	Count(ctx context.Context, userID, period string) (int64, error)

	// Increment atomically adds 1 to the counter, creating the row with the
	// given expiry if absent, and returns the post-increment count.
	Increment(ctx context.Context, userID, period string, expiresAt time.Time) (int64, error)
}

// -----------------------------------------------------------------------------
// External Service Ports
// -----------------------------------------------------------------------------

// Customer is a billing-provider customer reference.
type Customer struct {
	ID     string
	Email  string
	UserID string // correlation identity from provider metadata, empty if untagged
}

// CheckoutParams configures a checkout session.
type CheckoutParams struct {
	CustomerID string
	PriceID    string
	UserID     string // propagated into subscription metadata for webhook correlation
	SuccessURL string
	CancelURL  string
}

// BillingProvider interfaces with the payment processor (Stripe).
type BillingProvider interface {
	// Name returns the provider name (e.g., "stripe").
	Name() string

	// FindCustomerByUserID looks up a customer tagged with the internal user
	// ID in its metadata. Returns found=false when no such customer exists.
	FindCustomerByUserID(ctx context.Context, userID string) (c Customer, found bool, err error)

	// FindCustomerByEmail looks up a customer by contact email (legacy
	// fallback; may be ambiguous, the first match wins).
	FindCustomerByEmail(ctx context.Context, email string) (c Customer, found bool, err error)

	// CreateCustomer creates a customer tagged with the user ID.
	CreateCustomer(ctx context.Context, email, userID string) (Customer, error)

	// TagCustomer backfills the user ID into a customer's metadata so future
	// lookups use the authoritative path.
	TagCustomer(ctx context.Context, customerID, userID string) error

	// HasActiveSubscription reports whether the customer already holds an
	// active subscription at the given price.
	HasActiveSubscription(ctx context.Context, customerID, priceID string) (bool, error)

	// CreateCheckoutSession creates a subscription checkout session and
	// returns its URL.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (sessionURL string, err error)

	// VerifyWebhook verifies a webhook payload signature and returns the
	// contained event. A signature failure returns an error and no event.
	VerifyWebhook(payload []byte, signature string) (billing.Event, error)
}

// Model is the opaque metered capability.
type Model interface {
	// Infer runs the model on a prompt and returns the result.
	Infer(ctx context.Context, prompt string) (string, error)
}

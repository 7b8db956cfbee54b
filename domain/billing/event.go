// Package billing provides billing-event value types and pure classification.
package billing

// Kind is the closed set of event kinds the plan synchronizer acts on.
type Kind int

const (
	// KindIgnored covers every provider event type outside the transition
	// table. Ignored events are acknowledged, never errors.
	KindIgnored Kind = iota

	// KindActivated covers the pro-setting family: checkout completed,
	// invoice payment succeeded, subscription created or updated. All four
	// are treated identically.
	KindActivated

	// KindCanceled covers subscription deletion.
	KindCanceled
)

// Event is a verified billing event (value type). UserID is the correlation
// identity propagated through provider metadata at checkout time; CustomerID
// is the provider's customer reference.
type Event struct {
	Kind       Kind
	Type       string // raw provider event type, for logging
	UserID     string
	CustomerID string
}

// Provider event types that map onto the transition table.
const (
	TypeCheckoutCompleted    = "checkout.session.completed"
	TypePaymentSucceeded     = "invoice.payment_succeeded"
	TypeSubscriptionCreated  = "customer.subscription.created"
	TypeSubscriptionUpdated  = "customer.subscription.updated"
	TypeSubscriptionDeleted  = "customer.subscription.deleted"
)

// Classify maps a provider event type onto an event kind.
// This is a PURE function.
func Classify(eventType string) Kind {
	switch eventType {
	case TypeCheckoutCompleted, TypePaymentSucceeded, TypeSubscriptionCreated, TypeSubscriptionUpdated:
		return KindActivated
	case TypeSubscriptionDeleted:
		return KindCanceled
	default:
		return KindIgnored
	}
}

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindActivated:
		return "activated"
	case KindCanceled:
		return "canceled"
	default:
		return "ignored"
	}
}

package payment

import (
	"testing"

	"github.com/artpar/metergate/domain/billing"
)

func TestEventFromObject_ActivatedWithCustomerField(t *testing.T) {
	ev := eventFromObject("checkout.session.completed", map[string]any{
		"customer": "cus_123",
		"metadata": map[string]any{"user_id": "user-1"},
	})

	if ev.Kind != billing.KindActivated {
		t.Errorf("Kind = %s, want activated", ev.Kind)
	}
	if ev.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", ev.UserID)
	}
	if ev.CustomerID != "cus_123" {
		t.Errorf("CustomerID = %q, want cus_123", ev.CustomerID)
	}
}

func TestEventFromObject_CustomerMetadataFallback(t *testing.T) {
	ev := eventFromObject("invoice.payment_succeeded", map[string]any{
		"metadata": map[string]any{"user_id": "user-1", "customer": "cus_456"},
	})

	if ev.CustomerID != "cus_456" {
		t.Errorf("CustomerID = %q, want cus_456", ev.CustomerID)
	}
}

func TestEventFromObject_MissingMetadata(t *testing.T) {
	ev := eventFromObject("customer.subscription.deleted", map[string]any{
		"customer": "cus_123",
	})

	if ev.Kind != billing.KindCanceled {
		t.Errorf("Kind = %s, want canceled", ev.Kind)
	}
	if ev.UserID != "" {
		t.Errorf("UserID = %q, want empty", ev.UserID)
	}
}

func TestEventFromObject_UnknownType(t *testing.T) {
	ev := eventFromObject("charge.refunded", map[string]any{})

	if ev.Kind != billing.KindIgnored {
		t.Errorf("Kind = %s, want ignored", ev.Kind)
	}
	if ev.Type != "charge.refunded" {
		t.Errorf("Type = %q, want charge.refunded", ev.Type)
	}
}

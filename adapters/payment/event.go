// Package payment provides billing provider adapters.
package payment

import (
	"github.com/artpar/metergate/domain/billing"
)

// eventFromObject maps a provider event type and its data object onto a
// domain billing event. The correlation user ID comes from the object's
// metadata; the customer reference from the object's customer field, with a
// metadata fallback for payloads that only carry it there.
func eventFromObject(eventType string, object map[string]any) billing.Event {
	ev := billing.Event{
		Kind: billing.Classify(eventType),
		Type: eventType,
	}

	meta, _ := object["metadata"].(map[string]any)
	if meta != nil {
		if v, ok := meta["user_id"].(string); ok {
			ev.UserID = v
		}
	}

	if v, ok := object["customer"].(string); ok && v != "" {
		ev.CustomerID = v
	} else if meta != nil {
		if v, ok := meta["customer"].(string); ok {
			ev.CustomerID = v
		}
	}

	return ev
}

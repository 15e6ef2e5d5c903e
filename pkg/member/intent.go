package member

import "github.com/sunknudsen/ghost-join/pkg/stripeapi"

// Intent is the normalized effect of a lifecycle event on the membership store.
type Intent int

const (
	// IntentIgnore acknowledges the event without mutating anything, e.g. an
	// update for a subscription that is not active yet.
	IntentIgnore Intent = iota

	// IntentActivate creates the member if absent and re-syncs it if present.
	IntentActivate

	// IntentDeactivate removes the member.
	IntentDeactivate
)

func (i Intent) String() string {
	switch i {
	case IntentActivate:
		return "activate"
	case IntentDeactivate:
		return "deactivate"
	default:
		return "ignore"
	}
}

// ClassifyIntent maps an event type and the subscription's authoritative
// status to a lifecycle intent. Created and updated events only activate once
// the subscription is active; deletion always deactivates.
func ClassifyIntent(eventType stripeapi.EventType, status string) Intent {
	switch eventType {
	case stripeapi.EventSubscriptionCreated, stripeapi.EventSubscriptionUpdated:
		if status == stripeapi.StatusActive {
			return IntentActivate
		}
		return IntentIgnore
	case stripeapi.EventSubscriptionDeleted:
		return IntentDeactivate
	default:
		return IntentIgnore
	}
}

package stripeapi

import (
	"encoding/json"
	"fmt"
)

// EventType identifies a subscription lifecycle webhook event.
type EventType string

const (
	EventSubscriptionCreated EventType = "customer.subscription.created"
	EventSubscriptionUpdated EventType = "customer.subscription.updated"
	EventSubscriptionDeleted EventType = "customer.subscription.deleted"
)

// Event is the parsed webhook envelope. It lives for the duration of one
// request and is never persisted.
type Event struct {
	Type           EventType
	SubscriptionID string
}

// ParseEvent parses a webhook body into an Event. Event types outside the
// subscription lifecycle fail with ErrUnsupportedEventType.
func ParseEvent(body []byte) (*Event, error) {
	var envelope struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID string `json:"id"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	eventType := EventType(envelope.Type)
	switch eventType {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEventType, envelope.Type)
	}

	if envelope.Data.Object.ID == "" {
		return nil, fmt.Errorf("%w: missing subscription id", ErrInvalidPayload)
	}

	return &Event{
		Type:           eventType,
		SubscriptionID: envelope.Data.Object.ID,
	}, nil
}

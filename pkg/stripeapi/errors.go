package stripeapi

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingSignature is returned when the webhook signature header is absent.
	ErrMissingSignature = errors.New("missing webhook signature header")

	// ErrMalformedSignature is returned when the webhook signature header
	// cannot be parsed.
	ErrMalformedSignature = errors.New("malformed webhook signature header")

	// ErrSignatureMismatch is returned when no supplied signature matches the
	// computed HMAC.
	ErrSignatureMismatch = errors.New("webhook signature mismatch")

	// ErrUnsupportedEventType is returned for webhook event types this service
	// does not handle.
	ErrUnsupportedEventType = errors.New("unsupported webhook event type")

	// ErrInvalidPayload is returned when a webhook body cannot be parsed.
	ErrInvalidPayload = errors.New("invalid webhook payload")
)

// APIError describes a failed Stripe API call, translated from the SDK error
// after its retry budget is spent. API keys never appear in the error.
type APIError struct {
	StatusCode int
	Code       string
	Msg        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe: api error (status %d, code %q): %s", e.StatusCode, e.Code, e.Msg)
}

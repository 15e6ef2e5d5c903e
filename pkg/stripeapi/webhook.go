package stripeapi

import (
	"errors"

	"github.com/stripe/stripe-go/v83/webhook"
)

// VerifySignature authenticates a webhook request. The header carries a
// timestamp and hex HMAC signatures in the form "t=<unix-seconds>,v1=<hex>";
// the signed payload is the string "<timestamp>.<body>" keyed with the shared
// signing secret. Verification is delegated to the SDK without a timestamp
// tolerance window, and its failures are folded onto the auth error taxonomy.
func VerifySignature(body []byte, header, secret string) error {
	err := webhook.ValidatePayloadIgnoringTolerance(body, header, secret)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, webhook.ErrNotSigned):
		return ErrMissingSignature
	case errors.Is(err, webhook.ErrInvalidHeader):
		return ErrMalformedSignature
	default:
		return ErrSignatureMismatch
	}
}

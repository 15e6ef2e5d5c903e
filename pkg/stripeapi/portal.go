package stripeapi

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v83"
)

// CreateBillingPortalSession opens a self-service billing portal session for
// a customer and returns its URL.
func (c *Client) CreateBillingPortalSession(ctx context.Context, customerID string) (string, error) {
	start := time.Now()

	params := &stripe.BillingPortalSessionCreateParams{
		Customer: stripe.String(customerID),
	}
	session, err := c.sc.V1BillingPortalSessions.Create(ctx, params)
	if err := c.finish("v1/billing_portal/sessions", start, err); err != nil {
		return "", err
	}
	return session.URL, nil
}

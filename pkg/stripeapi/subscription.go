package stripeapi

import (
	"context"
	"iter"
	"time"

	"github.com/stripe/stripe-go/v83"
)

// StatusActive is the subscription status that grants membership.
const StatusActive = "active"

const listPageSize = 100

// Plan is the price attached to a subscription. Amount is in minor units.
type Plan struct {
	Amount  int64
	Product string
}

// Customer is the customer expanded inline on a subscription.
type Customer struct {
	ID    string
	Email string
	Name  string
}

// Subscription is the authoritative subscription detail fetched from Stripe,
// flattened to the fields this service consumes.
type Subscription struct {
	ID                 string
	Status             string
	CancelAtPeriodEnd  bool
	CurrentPeriodStart int64
	CurrentPeriodEnd   int64
	Plan               Plan
	Customer           Customer
}

// PeriodStartDate returns the current period start as a YYYY-MM-DD date in UTC.
func (s *Subscription) PeriodStartDate() string {
	return formatUnixDate(s.CurrentPeriodStart)
}

// PeriodEndDate returns the current period end as a YYYY-MM-DD date in UTC.
func (s *Subscription) PeriodEndDate() string {
	return formatUnixDate(s.CurrentPeriodEnd)
}

func formatUnixDate(sec int64) string {
	return time.Unix(sec, 0).UTC().Format("2006-01-02")
}

// newSubscription flattens an SDK subscription. Recent API versions carry the
// plan and period bounds on the subscription item, not the subscription.
func newSubscription(sub *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		out.Customer = Customer{
			ID:    sub.Customer.ID,
			Email: sub.Customer.Email,
			Name:  sub.Customer.Name,
		}
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		out.CurrentPeriodStart = item.CurrentPeriodStart
		out.CurrentPeriodEnd = item.CurrentPeriodEnd
		switch {
		case item.Plan != nil:
			out.Plan.Amount = item.Plan.Amount
			if item.Plan.Product != nil {
				out.Plan.Product = item.Plan.Product.ID
			}
		case item.Price != nil:
			out.Plan.Amount = item.Price.UnitAmount
			if item.Price.Product != nil {
				out.Plan.Product = item.Price.Product.ID
			}
		}
	}
	return out
}

// GetSubscription fetches a subscription with its customer expanded inline.
func (c *Client) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	start := time.Now()

	params := &stripe.SubscriptionRetrieveParams{}
	params.AddExpand("customer")
	sub, err := c.sc.V1Subscriptions.Retrieve(ctx, id, params)
	if err := c.finish("v1/subscriptions/retrieve", start, err); err != nil {
		return nil, err
	}
	return newSubscription(sub), nil
}

// ActiveSubscriptions returns an iterator over every active subscription,
// fetched 100 per page. The SDK's list iterator drives cursor pagination off
// the provider's has_more flag, never page size, so a short or empty page
// does not end the walk early. A fetch failure is yielded once and ends
// iteration.
func (c *Client) ActiveSubscriptions(ctx context.Context) iter.Seq2[*Subscription, error] {
	return func(yield func(*Subscription, error) bool) {
		start := time.Now()

		params := &stripe.SubscriptionListParams{}
		params.Status = stripe.String(StatusActive)
		params.Limit = stripe.Int64(listPageSize)

		for sub, err := range c.sc.V1Subscriptions.List(ctx, params) {
			if err != nil {
				yield(nil, c.finish("v1/subscriptions/list", start, err))
				return
			}
			if !yield(newSubscription(sub), nil) {
				return
			}
		}
		_ = c.finish("v1/subscriptions/list", start, nil)
	}
}

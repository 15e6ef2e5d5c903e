package stripeapi

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v83"
)

// CustomersByEmail lists customers whose email matches exactly.
func (c *Client) CustomersByEmail(ctx context.Context, email string) ([]*Customer, error) {
	start := time.Now()

	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	var customers []*Customer
	for cust, err := range c.sc.V1Customers.List(ctx, params) {
		if err != nil {
			return nil, c.finish("v1/customers/list", start, err)
		}
		customers = append(customers, &Customer{
			ID:    cust.ID,
			Email: cust.Email,
			Name:  cust.Name,
		})
	}
	_ = c.finish("v1/customers/list", start, nil)
	return customers, nil
}

// CustomerSubscriptions fetches a customer with subscriptions expanded inline
// and returns the subscriptions.
func (c *Client) CustomerSubscriptions(ctx context.Context, customerID string) ([]*Subscription, error) {
	start := time.Now()

	params := &stripe.CustomerRetrieveParams{}
	params.AddExpand("subscriptions")
	cust, err := c.sc.V1Customers.Retrieve(ctx, customerID, params)
	if err := c.finish("v1/customers/retrieve", start, err); err != nil {
		return nil, err
	}

	var subs []*Subscription
	if cust.Subscriptions != nil {
		for _, sub := range cust.Subscriptions.Data {
			subs = append(subs, newSubscription(sub))
		}
	}
	return subs, nil
}

// UpdateCustomer patches customer fields. Empty fields are left untouched.
func (c *Client) UpdateCustomer(ctx context.Context, customerID, email, name string) error {
	start := time.Now()

	params := &stripe.CustomerUpdateParams{}
	if email != "" {
		params.Email = stripe.String(email)
	}
	if name != "" {
		params.Name = stripe.String(name)
	}
	_, err := c.sc.V1Customers.Update(ctx, customerID, params)
	return c.finish("v1/customers/update", start, err)
}

package stripe

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v83"
)

var ErrNoLineItems = errors.New("checkout session has no priced line items")

type Client struct {
	sc *stripe.Client
}

func NewClient(apiKey string) *Client {
	return &Client{sc: stripe.NewClient(apiKey)}
}

// PriceForSession returns the price id of the first line item of a checkout session.
func (c *Client) PriceForSession(ctx context.Context, sessionID string) (string, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Limit = stripe.Int64(1)

	for li, err := range c.sc.V1CheckoutSessions.ListLineItems(ctx, params) {
		if err != nil {
			return "", fmt.Errorf("list line items for %s: %w", sessionID, err)
		}
		if li.Price != nil && li.Price.ID != "" {
			return li.Price.ID, nil
		}
	}
	return "", ErrNoLineItems
}

func (c *Client) CreateCheckoutSession(ctx context.Context, input CheckoutInput) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionCreateParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripe.String(input.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(input.SuccessURL),
		CancelURL:         stripe.String(input.CancelURL),
		ClientReferenceID: stripe.String(input.UserID),
		Metadata:          map[string]string{"userId": input.UserID},
	}
	if input.Email != "" {
		params.CustomerEmail = stripe.String(input.Email)
	}

	session, err := c.sc.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

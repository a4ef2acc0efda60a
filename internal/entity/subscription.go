package entity

import (
	"context"
	"time"
)

const (
	StatusActive   = "active"
	StatusCanceled = "canceled"
	StatusUnpaid   = "unpaid"
)

// Subscription is the billing state of one account. There is at most one row per user.
type Subscription struct {
	UserID               string    `json:"user_id"`
	StripeCustomerID     string    `json:"stripe_customer_id"`
	StripeSubscriptionID string    `json:"stripe_subscription_id"`
	Tier                 Tier      `json:"plan_role"`
	PriceID              string    `json:"price_id"`
	Status               string    `json:"status"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// RevokesAccess reports whether a subscription status drops the account back to the free tier.
func RevokesAccess(status string) bool {
	return status == StatusCanceled || status == StatusUnpaid
}

type SubscriptionRepository interface {
	// Upsert creates or overwrites the row keyed by UserID.
	Upsert(ctx context.Context, sub *Subscription) error
	UpdateStatus(ctx context.Context, subscriptionID, status string, at time.Time) error
	FindBySubscriptionID(ctx context.Context, subscriptionID string) (*Subscription, error)
	FindByUserID(ctx context.Context, userID string) (*Subscription, error)
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/saintvisionai/platform-api/internal/entity"
)

type SubscriptionRepository struct {
	DB *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{DB: db}
}

func (r *SubscriptionRepository) Upsert(ctx context.Context, sub *entity.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			user_id, stripe_customer_id, stripe_subscription_id, plan_role, price_id, status, updated_at
		) VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			stripe_customer_id     = EXCLUDED.stripe_customer_id,
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			plan_role              = EXCLUDED.plan_role,
			price_id               = EXCLUDED.price_id,
			status                 = EXCLUDED.status,
			updated_at             = EXCLUDED.updated_at
	`

	_, err := r.DB.ExecContext(ctx, query,
		sub.UserID,
		sub.StripeCustomerID,
		sub.StripeSubscriptionID,
		string(sub.Tier),
		sub.PriceID,
		sub.Status,
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription %s: %w", sub.UserID, err)
	}
	return nil
}

// UpdateStatus returns entity.ErrNotFound when no row carries the subscription id.
func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, subscriptionID, status string, at time.Time) error {
	query := `UPDATE subscriptions SET status = $1, updated_at = $2 WHERE stripe_subscription_id = $3`
	res, err := r.DB.ExecContext(ctx, query, status, at, subscriptionID)
	if err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	if n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

const selectSubscription = `
	SELECT user_id, stripe_customer_id, COALESCE(stripe_subscription_id, ''), plan_role, price_id, status, updated_at
	FROM subscriptions
`

func (r *SubscriptionRepository) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*entity.Subscription, error) {
	return r.findOne(ctx, selectSubscription+` WHERE stripe_subscription_id = $1`, subscriptionID)
}

func (r *SubscriptionRepository) FindByUserID(ctx context.Context, userID string) (*entity.Subscription, error) {
	return r.findOne(ctx, selectSubscription+` WHERE user_id = $1`, userID)
}

func (r *SubscriptionRepository) findOne(ctx context.Context, query string, arg string) (*entity.Subscription, error) {
	var (
		sub  entity.Subscription
		tier string
	)
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&sub.UserID,
		&sub.StripeCustomerID,
		&sub.StripeSubscriptionID,
		&tier,
		&sub.PriceID,
		&sub.Status,
		&sub.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find subscription: %w", err)
	}
	sub.Tier = entity.Tier(tier)
	return &sub, nil
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// WebhookEventRepository is the Postgres-backed dedup store for provider webhooks.
type WebhookEventRepository struct {
	DB *sql.DB
}

func NewWebhookEventRepository(db *sql.DB) *WebhookEventRepository {
	return &WebhookEventRepository{DB: db}
}

func (r *WebhookEventRepository) Claim(ctx context.Context, provider, eventID, eventType string) (bool, error) {
	query := `
		INSERT INTO webhook_events (provider, event_id, event_type, received_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (provider, event_id) DO NOTHING
	`
	res, err := r.DB.ExecContext(ctx, query, provider, eventID, eventType)
	if err != nil {
		return false, fmt.Errorf("claim webhook event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim webhook event: %w", err)
	}
	return n == 1, nil
}

func (r *WebhookEventRepository) Release(ctx context.Context, provider, eventID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM webhook_events WHERE provider = $1 AND event_id = $2`, provider, eventID)
	if err != nil {
		return fmt.Errorf("release webhook event: %w", err)
	}
	return nil
}

func (r *WebhookEventRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM webhook_events WHERE received_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("prune webhook events: %w", err)
	}
	return res.RowsAffected()
}

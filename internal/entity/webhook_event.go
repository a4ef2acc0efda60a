package entity

import (
	"context"
	"time"
)

// WebhookEventStore deduplicates provider webhook deliveries by event id.
type WebhookEventStore interface {
	// Claim records the event and reports true on its first delivery.
	Claim(ctx context.Context, provider, eventID, eventType string) (bool, error)
	// Release forgets a claim so a redelivery of a failed event is processed again.
	Release(ctx context.Context, provider, eventID string) error
	// Prune drops claims older than the cutoff and returns how many were removed.
	Prune(ctx context.Context, before time.Time) (int64, error)
}

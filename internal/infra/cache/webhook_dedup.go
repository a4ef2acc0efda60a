// Package cache holds the Redis-backed webhook dedup store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "webhook:seen:"

// WebhookDedup claims webhook event ids with SET NX. Claims expire after TTL,
// so Prune has nothing to do.
type WebhookDedup struct {
	Client redis.UniversalClient
	TTL    time.Duration
}

func NewWebhookDedup(client redis.UniversalClient, ttl time.Duration) (*WebhookDedup, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("dedup ttl must be positive, got %s", ttl)
	}
	return &WebhookDedup{Client: client, TTL: ttl}, nil
}

// NewClient parses a redis:// URL and pings the server.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func key(provider, eventID string) string {
	return keyPrefix + provider + ":" + eventID
}

func (d *WebhookDedup) Claim(ctx context.Context, provider, eventID, eventType string) (bool, error) {
	ok, err := d.Client.SetNX(ctx, key(provider, eventID), eventType, d.TTL).Result()
	if err != nil {
		return false, fmt.Errorf("claim webhook event: %w", err)
	}
	return ok, nil
}

func (d *WebhookDedup) Release(ctx context.Context, provider, eventID string) error {
	if err := d.Client.Del(ctx, key(provider, eventID)).Err(); err != nil {
		return fmt.Errorf("release webhook event: %w", err)
	}
	return nil
}

func (d *WebhookDedup) Prune(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (d *WebhookDedup) Healthy(ctx context.Context) error {
	return d.Client.Ping(ctx).Err()
}

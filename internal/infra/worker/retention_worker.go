package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/saintvisionai/platform-api/internal/entity"
)

// RetentionWorker periodically drops webhook dedup claims older than the retention window.
type RetentionWorker struct {
	store        entity.WebhookEventStore
	retention    time.Duration
	tickInterval time.Duration
	log          zerolog.Logger
	now          func() time.Time
}

func NewRetentionWorker(store entity.WebhookEventStore, retention time.Duration, log zerolog.Logger) *RetentionWorker {
	return &RetentionWorker{
		store:        store,
		retention:    retention,
		tickInterval: time.Hour,
		log:          log.With().Str("component", "retention_worker").Logger(),
		now:          time.Now,
	}
}

func (w *RetentionWorker) Start(ctx context.Context) {
	w.log.Info().Dur("retention", w.retention).Msg("webhook retention worker started")

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("webhook retention worker stopped")
			return
		case <-ticker.C:
			w.prune(ctx)
		}
	}
}

func (w *RetentionWorker) prune(ctx context.Context) {
	cutoff := w.now().Add(-w.retention)
	n, err := w.store.Prune(ctx, cutoff)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to prune webhook events")
		return
	}
	if n > 0 {
		w.log.Info().Int64("removed", n).Time("cutoff", cutoff).Msg("webhook events pruned")
	}
}

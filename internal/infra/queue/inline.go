package queue

import (
	"context"

	"github.com/rs/zerolog"
)

// InlineDispatcher runs provisioning jobs in a goroutine when no broker is configured.
type InlineDispatcher struct {
	Runner ProvisioningRunner
	log    zerolog.Logger
}

func NewInlineDispatcher(runner ProvisioningRunner, log zerolog.Logger) *InlineDispatcher {
	return &InlineDispatcher{Runner: runner, log: log}
}

func (d *InlineDispatcher) PublishProvisioning(ctx context.Context, payload ProvisioningPayload) error {
	go func() {
		if err := d.Runner.RunProvisioning(context.WithoutCancel(ctx), payload); err != nil {
			d.log.Error().Err(err).Str("job_id", payload.JobID).Str("user_id", payload.UserID).
				Msg("inline provisioning job failed")
		}
	}()
	return nil
}

package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// ProvisioningRunner executes one provisioning job.
type ProvisioningRunner interface {
	RunProvisioning(ctx context.Context, payload ProvisioningPayload) error
}

type Worker struct {
	Channel *amqp.Channel
	Runner  ProvisioningRunner
	log     zerolog.Logger
}

func NewWorker(ch *amqp.Channel, runner ProvisioningRunner, log zerolog.Logger) *Worker {
	return &Worker{
		Channel: ch,
		Runner:  runner,
		log:     log.With().Str("component", "provisioning_worker").Logger(),
	}
}

// Start consumes queueName until ctx is done or the delivery channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	if err := w.Channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	w.log.Info().Str("queue", queueName).Msg("worker waiting for jobs")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var payload ProvisioningPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		w.log.Error().Err(err).Msg("malformed provisioning job")
		_ = d.Nack(false, false)
		return
	}

	log := w.log.With().Str("job_id", payload.JobID).Str("user_id", payload.UserID).Logger()
	log.Info().Str("tier", payload.Tier).Msg("provisioning job received")

	if err := w.Runner.RunProvisioning(ctx, payload); err != nil {
		// Redelivered jobs would re-hit the same CRM failure; send to the DLQ instead.
		log.Error().Err(err).Msg("provisioning job failed")
		_ = d.Nack(false, false)
		return
	}

	log.Info().Msg("provisioning job done")
	_ = d.Ack(false)
}

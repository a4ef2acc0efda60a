package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ProvisioningPayload asks the worker to (re)run CRM provisioning for one account.
type ProvisioningPayload struct {
	JobID       string    `json:"job_id"`
	UserID      string    `json:"user_id"`
	Tier        string    `json:"tier"`
	Origin      string    `json:"origin"`
	RequestedAt time.Time `json:"requested_at"`
}

type RabbitMQProducer struct {
	Ch *amqp.Channel
}

func NewProducer(ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishProvisioning(ctx context.Context, payload ProvisioningPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal provisioning payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    payload.JobID,
			Timestamp:    payload.RequestedAt,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish provisioning job: %w", err)
	}
	return nil
}

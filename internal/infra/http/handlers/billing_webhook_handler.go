package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/saintvisionai/platform-api/internal/infra/integration/stripe"
	"github.com/saintvisionai/platform-api/internal/infra/metrics"
	"github.com/saintvisionai/platform-api/internal/usecase"
)

const maxWebhookBody = 256 << 10

type BillingEventProcessor interface {
	Execute(ctx context.Context, ev *stripe.Event) (*usecase.BillingEventResult, error)
}

type BillingWebhookHandler struct {
	Processor BillingEventProcessor
	Secret    string
	log       zerolog.Logger
}

func NewBillingWebhookHandler(processor BillingEventProcessor, secret string, log zerolog.Logger) *BillingWebhookHandler {
	return &BillingWebhookHandler{
		Processor: processor,
		Secret:    secret,
		log:       log.With().Str("handler", "billing_webhook").Logger(),
	}
}

// Handle verifies the Stripe signature over the raw body before anything is applied.
func (h *BillingWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorResponse(w, http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		writeErrorResponse(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	ev, err := stripe.ParseEvent(body, r.Header.Get("Stripe-Signature"), h.Secret)
	if err != nil {
		h.log.Warn().Err(err).Msg("webhook signature verification failed")
		metrics.RecordBillingEvent("unverified", "rejected")
		writeErrorResponse(w, http.StatusBadRequest, "Webhook signature verification failed")
		return
	}

	if ev.DecodeErr != nil {
		h.log.Warn().Err(ev.DecodeErr).Str("event_id", ev.ID).Str("type", ev.Type).Msg("verified billing event has an undecodable object")
	}

	// Stripe does not wait for processing; a client disconnect must not abort provisioning.
	res, err := h.Processor.Execute(context.WithoutCancel(r.Context()), ev)
	if err != nil {
		h.log.Error().Err(err).Str("event_id", ev.ID).Str("type", ev.Type).Msg("billing event processing failed")
	} else {
		h.log.Info().Str("event_id", ev.ID).Str("type", ev.Type).Str("outcome", res.Outcome).Msg("billing event processed")
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

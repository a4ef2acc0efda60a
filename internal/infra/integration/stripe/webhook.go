package stripe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v83/webhook"
)

var (
	ErrMissingSignature = errors.New("missing Stripe signature")
	ErrInvalidSignature = errors.New("invalid Stripe signature")
)

// ParseEvent verifies the Stripe-Signature header against the raw payload and
// decodes the event object for the event types the backend handles. An empty
// secret verifies nothing.
func ParseEvent(payload []byte, sigHeader, secret string) (*Event, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("%w: webhook secret not configured", ErrInvalidSignature)
	}
	if strings.TrimSpace(sigHeader) == "" {
		return nil, ErrMissingSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: event.ID, Type: string(event.Type)}

	switch out.Type {
	case EventCheckoutCompleted:
		var s checkoutSessionObject
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			out.DecodeErr = fmt.Errorf("decode checkout.session: %w", err)
			break
		}
		out.Checkout = &CheckoutCompleted{
			SessionID:      s.ID,
			UserID:         sessionUserID(s),
			CustomerID:     s.Customer,
			SubscriptionID: s.Subscription,
			Email:          sessionEmail(s),
		}

	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub subscriptionObject
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			out.DecodeErr = fmt.Errorf("decode subscription: %w", err)
			break
		}
		out.Subscription = &SubscriptionChange{
			SubscriptionID: sub.ID,
			CustomerID:     sub.Customer,
			Status:         sub.Status,
		}
	}

	return out, nil
}

func sessionUserID(s checkoutSessionObject) string {
	for _, key := range []string{"userId", "user_id"} {
		if v := strings.TrimSpace(s.Metadata[key]); v != "" {
			return v
		}
	}
	return strings.TrimSpace(s.ClientReferenceID)
}

func sessionEmail(s checkoutSessionObject) string {
	if s.CustomerDetails != nil && s.CustomerDetails.Email != "" {
		return s.CustomerDetails.Email
	}
	return s.CustomerEmail
}

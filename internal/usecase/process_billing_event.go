package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/saintvisionai/platform-api/internal/entity"
	"github.com/saintvisionai/platform-api/internal/infra/integration/stripe"
	"github.com/saintvisionai/platform-api/internal/infra/metrics"
)

const providerStripe = "stripe"

type ProcessBillingEventUseCase struct {
	Subscriptions entity.SubscriptionRepository
	Events        entity.WebhookEventStore
	Profiles      ProfileStore
	LineItems     LineItemResolver
	Plans         *entity.PlanCatalog
	Provisioner   CRMProvisioner

	log zerolog.Logger
	now func() time.Time
}

func NewProcessBillingEventUseCase(
	subs entity.SubscriptionRepository,
	events entity.WebhookEventStore,
	profiles ProfileStore,
	lineItems LineItemResolver,
	plans *entity.PlanCatalog,
	provisioner CRMProvisioner,
	log zerolog.Logger,
) *ProcessBillingEventUseCase {
	return &ProcessBillingEventUseCase{
		Subscriptions: subs,
		Events:        events,
		Profiles:      profiles,
		LineItems:     lineItems,
		Plans:         plans,
		Provisioner:   provisioner,
		log:           log.With().Str("usecase", "process_billing_event").Logger(),
		now:           time.Now,
	}
}

// Execute applies a verified billing event. A redelivered event id is acknowledged
// without being applied again; a failed event releases its claim.
func (uc *ProcessBillingEventUseCase) Execute(ctx context.Context, ev *stripe.Event) (*BillingEventResult, error) {
	res := &BillingEventResult{EventID: ev.ID, EventType: ev.Type}
	log := uc.log.With().Str("event_id", ev.ID).Str("type", ev.Type).Logger()

	claimed, err := uc.Events.Claim(ctx, providerStripe, ev.ID, ev.Type)
	if err != nil {
		// Without the dedup store the event is still applied; every write below is an upsert.
		log.Warn().Err(err).Msg("webhook dedup unavailable")
		claimed = true
	}
	if !claimed {
		res.Duplicate = true
		res.Outcome = "duplicate"
		metrics.RecordBillingEvent(ev.Type, res.Outcome)
		log.Info().Msg("duplicate billing event ignored")
		return res, nil
	}

	switch {
	case ev.Type == stripe.EventCheckoutCompleted && ev.Checkout != nil:
		res.Outcome, err = uc.handleCheckout(ctx, ev.Checkout, log)
	case ev.Subscription != nil:
		res.Outcome, err = uc.handleSubscriptionChange(ctx, ev.Subscription, log)
	default:
		res.Outcome = "ignored"
		log.Debug().Msg("unhandled billing event type")
	}

	if err != nil {
		res.Outcome = "error"
		if rerr := uc.Events.Release(ctx, providerStripe, ev.ID); rerr != nil {
			log.Warn().Err(rerr).Msg("release webhook claim")
		}
	}
	metrics.RecordBillingEvent(ev.Type, res.Outcome)
	return res, err
}

func (uc *ProcessBillingEventUseCase) handleCheckout(ctx context.Context, s *stripe.CheckoutCompleted, log zerolog.Logger) (string, error) {
	if s.UserID == "" {
		return "", &DomainError{Code: "missing_user", Message: fmt.Sprintf("checkout session %s carries no user id", s.SessionID)}
	}
	log = log.With().Str("user_id", s.UserID).Logger()

	priceID, err := uc.LineItems.PriceForSession(ctx, s.SessionID)
	if errors.Is(err, stripe.ErrNoLineItems) {
		log.Warn().Str("session_id", s.SessionID).Msg("checkout session has no priced line item, using default tier")
		priceID, err = "", nil
	}
	if err != nil {
		metrics.RecordIntegrationError("stripe")
		return "", &TechnicalError{Code: "line_items_unavailable", Message: "failed to resolve checkout price", Err: err}
	}
	tier := uc.Plans.TierForPrice(priceID)
	now := uc.now()

	sub := &entity.Subscription{
		UserID:               s.UserID,
		StripeCustomerID:     s.CustomerID,
		StripeSubscriptionID: s.SubscriptionID,
		Tier:                 tier,
		PriceID:              priceID,
		Status:               entity.StatusActive,
		UpdatedAt:            now,
	}
	if err := uc.Subscriptions.Upsert(ctx, sub); err != nil {
		return "", &TechnicalError{Code: "subscription_save_failed", Message: "failed to save subscription", Err: err}
	}
	log.Info().Str("price_id", priceID).Str("tier", string(tier)).Msg("account upgraded")

	patch := map[string]any{
		"plan":               string(tier),
		"stripe_customer_id": s.CustomerID,
		"upgraded_at":        now.UTC().Format(time.RFC3339),
	}
	if err := uc.Profiles.UpdateMetadata(ctx, s.UserID, patch); err != nil {
		metrics.RecordIntegrationError("supabase")
		log.Warn().Err(err).Msg("profile plan not updated")
	}

	if uc.Provisioner != nil && uc.Plans.IsCRMEligible(tier) {
		if _, err := uc.Provisioner.Execute(ctx, ProvisionCRMInput{UserID: s.UserID, Tier: tier}); err != nil {
			log.Error().Err(err).Msg("CRM provisioning failed")
			return "activated_provisioning_failed", nil
		}
	}
	return "activated", nil
}

func (uc *ProcessBillingEventUseCase) handleSubscriptionChange(ctx context.Context, c *stripe.SubscriptionChange, log zerolog.Logger) (string, error) {
	log = log.With().Str("subscription_id", c.SubscriptionID).Str("status", c.Status).Logger()
	now := uc.now()

	err := uc.Subscriptions.UpdateStatus(ctx, c.SubscriptionID, c.Status, now)
	if errors.Is(err, entity.ErrNotFound) {
		log.Warn().Msg("status change for unknown subscription")
		return "unknown_subscription", nil
	}
	if err != nil {
		return "", &TechnicalError{Code: "subscription_save_failed", Message: "failed to update subscription status", Err: err}
	}

	if !entity.RevokesAccess(c.Status) {
		return "status_updated", nil
	}

	sub, err := uc.Subscriptions.FindBySubscriptionID(ctx, c.SubscriptionID)
	if err != nil {
		return "", &TechnicalError{Code: "subscription_lookup_failed", Message: "failed to load subscription owner", Err: err}
	}

	if sub.Tier != entity.TierFree {
		sub.Tier = entity.TierFree
		sub.UpdatedAt = now
		if err := uc.Subscriptions.Upsert(ctx, sub); err != nil {
			return "", &TechnicalError{Code: "subscription_save_failed", Message: "failed to downgrade subscription", Err: err}
		}
	}

	patch := map[string]any{
		"plan":          string(entity.TierFree),
		"downgraded_at": now.UTC().Format(time.RFC3339),
	}
	if err := uc.Profiles.UpdateMetadata(ctx, sub.UserID, patch); err != nil {
		metrics.RecordIntegrationError("supabase")
		log.Warn().Err(err).Str("user_id", sub.UserID).Msg("profile plan not downgraded")
	}

	log.Info().Str("user_id", sub.UserID).Msg("account downgraded to free")
	return "downgraded", nil
}

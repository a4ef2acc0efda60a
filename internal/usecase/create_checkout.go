package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/saintvisionai/platform-api/internal/infra/integration/stripe"
	"github.com/saintvisionai/platform-api/internal/infra/metrics"
)

type CreateCheckoutUseCase struct {
	Gateway CheckoutGateway
	AppURL  string
	log     zerolog.Logger
}

func NewCreateCheckoutUseCase(gateway CheckoutGateway, appURL string, log zerolog.Logger) *CreateCheckoutUseCase {
	return &CreateCheckoutUseCase{
		Gateway: gateway,
		AppURL:  strings.TrimRight(appURL, "/"),
		log:     log.With().Str("usecase", "create_checkout").Logger(),
	}
}

// Execute opens a subscription checkout session for one price.
func (uc *CreateCheckoutUseCase) Execute(ctx context.Context, input CreateCheckoutInput) (*stripe.CheckoutSession, error) {
	if err := ValidateCreateCheckoutInput(input); err != nil {
		return nil, err
	}

	session, err := uc.Gateway.CreateCheckoutSession(ctx, stripe.CheckoutInput{
		PriceID:    input.PriceID,
		UserID:     input.UserID,
		Email:      input.Email,
		SuccessURL: uc.AppURL + "/checkout-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  uc.AppURL + "/upgrade",
	})
	if err != nil {
		metrics.RecordIntegrationError("stripe")
		return nil, &TechnicalError{Code: "checkout_create", Message: "Failed to create checkout session", Err: err}
	}

	uc.log.Info().Str("user_id", input.UserID).Str("price_id", input.PriceID).Str("session_id", session.ID).
		Msg("checkout session created")
	return session, nil
}

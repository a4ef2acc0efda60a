package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saintvisionai/platform-api/internal/infra/integration/stripe"
)

func TestCreateCheckout_BuildsSessionURLs(t *testing.T) {
	gw := new(MockCheckoutGateway)
	gw.On("CreateCheckoutSession", mock.Anything, stripe.CheckoutInput{
		PriceID:    "price_crm",
		UserID:     "user-1",
		Email:      "ada@acme.io",
		SuccessURL: "https://app.example.com/checkout-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "https://app.example.com/upgrade",
	}).Return(&stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/cs_1"}, nil)

	uc := NewCreateCheckoutUseCase(gw, "https://app.example.com/", zerolog.Nop())
	session, err := uc.Execute(context.Background(), CreateCheckoutInput{PriceID: "price_crm", UserID: "user-1", Email: "ada@acme.io"})

	require.NoError(t, err)
	assert.Equal(t, "cs_1", session.ID)
	gw.AssertExpectations(t)
}

func TestCreateCheckout_MissingFields(t *testing.T) {
	gw := new(MockCheckoutGateway)
	uc := NewCreateCheckoutUseCase(gw, "https://app.example.com", zerolog.Nop())

	_, err := uc.Execute(context.Background(), CreateCheckoutInput{PriceID: "price_crm"})

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)
	gw.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

func TestCreateCheckout_GatewayFailure(t *testing.T) {
	gw := new(MockCheckoutGateway)
	gw.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return(nil, errors.New("card_declined"))

	uc := NewCreateCheckoutUseCase(gw, "https://app.example.com", zerolog.Nop())
	_, err := uc.Execute(context.Background(), CreateCheckoutInput{PriceID: "p", UserID: "u", Email: "u@example.com"})

	assert.True(t, IsTechnicalError(err))
}

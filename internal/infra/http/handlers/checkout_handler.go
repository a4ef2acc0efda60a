package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/saintvisionai/platform-api/internal/usecase"
)

type CheckoutHandler struct {
	CreateCheckoutUC *usecase.CreateCheckoutUseCase
	log              zerolog.Logger
}

func NewCheckoutHandler(uc *usecase.CreateCheckoutUseCase, log zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{CreateCheckoutUC: uc, log: log.With().Str("handler", "checkout").Logger()}
}

func (h *CheckoutHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateCheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	session, err := h.CreateCheckoutUC.Execute(r.Context(), input)
	if err != nil {
		writeError(w, h.log, err, "Failed to create checkout session")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

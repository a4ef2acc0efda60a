package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/saintvisionai/platform-api/internal/entity"
)

type SubscriptionHandler struct {
	SubRepo entity.SubscriptionRepository
	log     zerolog.Logger
}

func NewSubscriptionHandler(repo entity.SubscriptionRepository, log zerolog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{SubRepo: repo, log: log.With().Str("handler", "subscription").Logger()}
}

// HandleGet serves GET /subscription/{userId}. A user without a row gets {"subscription": null}.
func (h *SubscriptionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	sub, err := h.SubRepo.FindByUserID(r.Context(), userID)
	if errors.Is(err, entity.ErrNotFound) {
		writeJSON(w, http.StatusOK, map[string]any{"subscription": nil})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("subscription lookup failed")
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to get subscription")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subscription": sub})
}

package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/saintvisionai/platform-api/internal/usecase"
)

const maxCRMWebhookBody = 1 << 20

type CRMEventSyncer interface {
	Execute(ctx context.Context, input usecase.SyncCRMEventInput) (*usecase.SyncCRMEventOutput, error)
}

type CRMWebhookHandler struct {
	Sync   CRMEventSyncer
	Secret string
	log    zerolog.Logger
}

func NewCRMWebhookHandler(sync CRMEventSyncer, secret string, log zerolog.Logger) *CRMWebhookHandler {
	return &CRMWebhookHandler{
		Sync:   sync,
		Secret: secret,
		log:    log.With().Str("handler", "crm_webhook").Logger(),
	}
}

type crmWebhookResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	EventType  string `json:"eventType,omitempty"`
	LocationID string `json:"locationId,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (h *CRMWebhookHandler) authorized(r *http.Request) bool {
	if h.Secret == "" {
		return true
	}
	key := r.Header.Get("x-api-key")
	if key == "" {
		key = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(h.Secret)) == 1
}

// Handle acknowledges every authenticated delivery with 200 so the CRM does not retry.
func (h *CRMWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.log.Warn().Msg("invalid webhook API key")
		writeErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCRMWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorResponse(w, http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		writeJSON(w, http.StatusOK, crmWebhookResponse{Error: "Webhook processing failed", Message: err.Error()})
		return
	}

	out, err := h.Sync.Execute(context.WithoutCancel(r.Context()), usecase.SyncCRMEventInput{
		Body:      body,
		AccountID: r.URL.Query().Get("acct"),
	})
	if err != nil {
		h.log.Error().Err(err).Msg("CRM webhook processing failed")
		writeJSON(w, http.StatusOK, crmWebhookResponse{Error: "Webhook processing failed", Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, crmWebhookResponse{
		Success:    true,
		Message:    "Webhook processed successfully",
		EventType:  out.EventType,
		LocationID: out.LocationID,
	})
}

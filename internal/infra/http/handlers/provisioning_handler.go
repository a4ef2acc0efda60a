package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/saintvisionai/platform-api/internal/infra/http/middleware"
	"github.com/saintvisionai/platform-api/internal/usecase"
)

type ProvisioningHandler struct {
	RetryUC *usecase.RetryProvisioningUseCase
	log     zerolog.Logger
}

func NewProvisioningHandler(uc *usecase.RetryProvisioningUseCase, log zerolog.Logger) *ProvisioningHandler {
	return &ProvisioningHandler{RetryUC: uc, log: log.With().Str("handler", "provisioning").Logger()}
}

// HandleRetry serves POST /provisioning/retry.
func (h *ProvisioningHandler) HandleRetry(w http.ResponseWriter, r *http.Request) {
	out, err := h.RetryUC.Execute(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, h.log, err, "Failed to queue provisioning")
		return
	}
	writeJSON(w, http.StatusAccepted, out)
}

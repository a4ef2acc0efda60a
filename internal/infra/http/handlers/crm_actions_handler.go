package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/saintvisionai/platform-api/internal/infra/http/middleware"
	"github.com/saintvisionai/platform-api/internal/usecase"
)

type CRMActionsHandler struct {
	Actions *usecase.CRMActionsUseCase
	log     zerolog.Logger
	now     func() time.Time
}

func NewCRMActionsHandler(actions *usecase.CRMActionsUseCase, log zerolog.Logger) *CRMActionsHandler {
	return &CRMActionsHandler{
		Actions: actions,
		log:     log.With().Str("handler", "crm_actions").Logger(),
		now:     time.Now,
	}
}

type actionRequest struct {
	Action string                         `json:"action"`
	Data   usecase.CreateOpportunityInput `json:"data"`
}

type actionResponse struct {
	Success   bool      `json:"success"`
	Action    string    `json:"action"`
	Result    any       `json:"result"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// HandleAction serves POST /ghl-actions.
func (h *CRMActionsHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	result, err := h.Actions.RunAction(r.Context(), middleware.UserID(r.Context()), req.Action)
	if err != nil {
		writeError(w, h.log, err, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Success: true, Action: req.Action, Result: result, Timestamp: h.now().UTC()})
}

// HandleContact serves POST /ghl-contacts.
func (h *CRMActionsHandler) HandleContact(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateContactInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	contact, err := h.Actions.CreateContact(r.Context(), middleware.UserID(r.Context()), input)
	if err != nil {
		writeError(w, h.log, err, "Failed to create contact")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "contact": contact})
}

// HandlePipeline serves POST /ghl-pipeline.
func (h *CRMActionsHandler) HandlePipeline(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	result, err := h.Actions.RunPipelineAction(r.Context(), middleware.UserID(r.Context()), req.Action, req.Data)
	if err != nil {
		writeError(w, h.log, err, "Pipeline action failed")
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Success: true, Action: req.Action, Result: result})
}

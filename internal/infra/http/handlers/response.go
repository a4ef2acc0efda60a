package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/saintvisionai/platform-api/internal/usecase"
)

type errorResponse struct {
	Error   string                     `json:"error"`
	Message string                     `json:"message,omitempty"`
	Details []usecase.ValidationError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorResponse(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps usecase errors to status codes. failure is the error text used
// for unexpected failures.
func writeError(w http.ResponseWriter, log zerolog.Logger, err error, failure string) {
	var verrs usecase.ValidationErrors
	var de *usecase.DomainError
	var te *usecase.TechnicalError

	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request", Details: verrs})
	case errors.Is(err, usecase.ErrActionRequired):
		writeErrorResponse(w, http.StatusBadRequest, "Action is required")
	case errors.Is(err, usecase.ErrUnknownAction):
		writeErrorResponse(w, http.StatusBadRequest, "Unknown action")
	case errors.Is(err, usecase.ErrLocationNotConfigured):
		writeErrorResponse(w, http.StatusBadRequest, usecase.ErrLocationNotConfigured.Error())
	case errors.Is(err, usecase.ErrActionNotAvailable):
		writeErrorResponse(w, http.StatusNotImplemented, usecase.ErrActionNotAvailable.Error())
	case errors.Is(err, usecase.ErrSubscriptionInactive), errors.Is(err, usecase.ErrNotCRMEligible):
		writeErrorResponse(w, http.StatusForbidden, err.Error())
	case errors.As(err, &de):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: de.Code, Message: de.Message})
	case errors.As(err, &te):
		log.Error().Err(err).Str("code", te.Code).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: te.Message, Message: errMessage(te.Err)})
	default:
		log.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: failure, Message: err.Error()})
	}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

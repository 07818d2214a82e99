package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"recall-backend/internal/database"
	"recall-backend/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// respondServiceError maps the error taxonomy to HTTP status codes. Every
// failure resolves to an actionable message, never an indefinite pending
// state.
func respondServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrMinimumBlocks),
		errors.Is(err, services.ErrNoAnswerSelected):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrPrecondition),
		errors.Is(err, services.ErrMissingLink),
		errors.Is(err, services.ErrNothingToSave),
		errors.Is(err, services.ErrInsufficientContent):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrSessionBusy):
		status = http.StatusConflict
	case errors.Is(err, services.ErrTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, services.ErrNetwork),
		errors.Is(err, services.ErrServer):
		status = http.StatusBadGateway
	}
	respondError(w, err.Error(), status)
}

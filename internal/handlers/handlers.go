// Package handlers implements the HTTP surface of the route
// optimizer: request validation and the optimize/reoptimize endpoints.
// The envelope helpers (writeJSON, writeError, the ErrorResponse
// shape) are carried over from the teacher's handlers.go verbatim —
// only the dependencies a Handler needs and the concrete endpoints
// changed.
package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"optimile/internal/anomalylog"
	"optimile/internal/apperrors"
	"optimile/internal/config"
	"optimile/internal/traffic"
)

// Handler provides common handler utilities and dependencies.
type Handler struct {
	Config          config.Config
	TrafficProvider traffic.Provider
	AnomalyLog      *anomalylog.Log
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// writeJSON writes a JSON response.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	h.writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// handleValidationError handles 400 errors.
func (h *Handler) handleValidationError(w http.ResponseWriter, message string) {
	h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", message, nil)
}

// handleError inspects an error's concrete type and picks the right
// status code, matching the teacher's handleRoutingError type-switch
// pattern but over this domain's apperrors taxonomy (spec §7).
func (h *Handler) handleError(w http.ResponseWriter, err error) {
	var verr *apperrors.ValidationError
	var nerr *apperrors.NumericError
	switch {
	case asValidation(err, &verr):
		h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), nil)
	case asNumeric(err, &nerr):
		h.writeError(w, http.StatusUnprocessableEntity, "NUMERIC_ERROR", nerr.Error(), nil)
	default:
		log.Printf("[HTTP] internal error: %v", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an error occurred processing the request", nil)
	}
}

func asValidation(err error, target **apperrors.ValidationError) bool {
	v, ok := err.(*apperrors.ValidationError)
	if ok {
		*target = v
	}
	return ok
}

func asNumeric(err error, target **apperrors.NumericError) bool {
	v, ok := err.(*apperrors.NumericError)
	if ok {
		*target = v
	}
	return ok
}

// HandleHealthCheck reports liveness.
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

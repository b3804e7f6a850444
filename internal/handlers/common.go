package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"couple-diary-backend/internal/repository"
	"couple-diary-backend/internal/services"
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
func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	var ve services.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrTokenRevoked):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotOwner),
		errors.Is(err, services.ErrNotVisible),
		errors.Is(err, services.ErrNotPlanCreator):
		return http.StatusForbidden
	case errors.Is(err, services.ErrPartnerNotFound),
		errors.Is(err, services.ErrNoPartner),
		errors.Is(err, services.ErrNoQuestionAvailable),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrSelfLink),
		errors.Is(err, services.ErrPartnerTaken),
		errors.Is(err, services.ErrAlreadyAnswered):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError maps a service error to a response. The
// original message is kept for client-addressable failures; 500s
// get a generic body so internals never leak.
func respondServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	respondError(w, msg, status)
}

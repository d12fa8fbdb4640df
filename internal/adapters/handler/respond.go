package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/smart-daycare/identity-access-service/internal/core/domain"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

// respondError maps the domain failure taxonomy onto HTTP statuses.
// Dependency failures hide the underlying driver error from clients.
func respondError(w http.ResponseWriter, err error) {
	var status int
	message := err.Error()

	switch {
	case errors.Is(err, domain.ErrWeakSecret),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrMissingField):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrAccountNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateIdentity),
		errors.Is(err, domain.ErrDuplicatePetition),
		errors.Is(err, domain.ErrAlreadyPrivileged),
		errors.Is(err, domain.ErrRequestNotActionable):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrDependency):
		log.Printf("dependency failure: %v", err)
		status = http.StatusServiceUnavailable
		message = domain.ErrDependency.Error()
	default:
		log.Printf("internal error: %v", err)
		status = http.StatusInternalServerError
		message = "internal server error"
	}

	respondJSON(w, status, errorResponse{Success: false, Error: message})
}

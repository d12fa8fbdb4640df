package handler

import (
	"net/http"

	"github.com/smart-daycare/identity-access-service/internal/adapters/middleware"
	"github.com/smart-daycare/identity-access-service/internal/core/domain"
	"github.com/smart-daycare/identity-access-service/internal/core/ports"
)

type EscalationHandler struct {
	escalationService ports.EscalationService
}

func NewEscalationHandler(escalation ports.EscalationService) *EscalationHandler {
	return &EscalationHandler{escalationService: escalation}
}

type RequestResponse struct {
	Success bool                      `json:"success"`
	Message string                    `json:"message"`
	Data    *domain.EscalationRequest `json:"data,omitempty"`
}

// Petition opens an escalation request for the caller. The requester
// identity comes from the verified token, never the request body.
func (h *EscalationHandler) Petition(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		respondError(w, domain.ErrUnauthenticated)
		return
	}

	req, err := h.escalationService.Petition(r.Context(), principal.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, RequestResponse{
		Success: true,
		Message: "admin request submitted",
		Data:    req,
	})
}

type ListResponse struct {
	Success bool                       `json:"success"`
	Data    []domain.EscalationRequest `json:"data"`
}

func (h *EscalationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	requests, err := h.escalationService.ListPending(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if requests == nil {
		requests = []domain.EscalationRequest{}
	}
	respondJSON(w, http.StatusOK, ListResponse{Success: true, Data: requests})
}

func (h *EscalationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true, "request approved, account promoted to admin")
}

func (h *EscalationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false, "request rejected")
}

func (h *EscalationHandler) decide(w http.ResponseWriter, r *http.Request, approve bool, message string) {
	requestID := r.PathValue("id")
	if requestID == "" {
		respondError(w, domain.ErrMissingField)
		return
	}

	req, err := h.escalationService.Decide(r.Context(), requestID, approve)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, RequestResponse{
		Success: true,
		Message: message,
		Data:    req,
	})
}

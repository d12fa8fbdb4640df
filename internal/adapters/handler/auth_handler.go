package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/smart-daycare/identity-access-service/internal/adapters/middleware"
	"github.com/smart-daycare/identity-access-service/internal/core/domain"
	"github.com/smart-daycare/identity-access-service/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(auth ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: auth}
}

type RegisterRequest struct {
	Email            string                  `json:"email"`
	Password         string                  `json:"password"`
	Name             string                  `json:"name"`
	Phone            string                  `json:"phone,omitempty"`
	EmergencyContact domain.EmergencyContact `json:"emergency_contact,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountPayload is the public view of an account. The secret never
// appears here.
type AccountPayload struct {
	ID           string               `json:"id"`
	Email        string               `json:"email"`
	Name         string               `json:"name"`
	Role         domain.Role          `json:"role"`
	StaffRole    domain.StaffRole     `json:"staff_role,omitempty"`
	AdminRequest domain.RequestStatus `json:"admin_request,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

type SessionResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Token   string         `json:"token"`
	Data    AccountPayload `json:"data"`
}

func accountPayload(account *domain.Account) AccountPayload {
	return AccountPayload{
		ID:        account.ID,
		Email:     account.Email,
		Name:      account.Name,
		Role:      account.Role,
		StaffRole: account.StaffRole,
		CreatedAt: account.CreatedAt,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, domain.ErrMissingField)
		return
	}

	account, token, err := h.authService.Register(r.Context(), ports.Registration{
		Email:            req.Email,
		Password:         req.Password,
		Name:             req.Name,
		Phone:            req.Phone,
		EmergencyContact: req.EmergencyContact,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, SessionResponse{
		Success: true,
		Message: "registration successful",
		Token:   token,
		Data:    accountPayload(account),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, domain.ErrMissingField)
		return
	}

	account, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SessionResponse{
		Success: true,
		Message: "login successful",
		Token:   token,
		Data:    accountPayload(account),
	})
}

type ProfileResponse struct {
	Success bool           `json:"success"`
	Data    AccountPayload `json:"data"`
}

// Me returns the caller's account with the admin-request status derived
// from the escalation workflow.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		respondError(w, domain.ErrUnauthenticated)
		return
	}

	account, requestStatus, err := h.authService.Profile(r.Context(), principal.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	payload := accountPayload(account)
	payload.AdminRequest = requestStatus
	respondJSON(w, http.StatusOK, ProfileResponse{Success: true, Data: payload})
}

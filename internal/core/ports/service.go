package ports

import (
	"context"

	"github.com/smart-daycare/identity-access-service/internal/core/domain"
)

// Registration carries the caller-supplied fields for a new account.
// Self-registration always produces a parent; staff accounts are
// provisioned directly in the store, so staff-only attributes have no
// place here.
type Registration struct {
	Email            string
	Password         string
	Name             string
	Phone            string
	EmergencyContact domain.EmergencyContact
}

type AuthService interface {
	Register(ctx context.Context, reg Registration) (*domain.Account, string, error)
	Login(ctx context.Context, email, password string) (*domain.Account, string, error)
	Profile(ctx context.Context, accountID string) (*domain.Account, domain.RequestStatus, error)
}

type EscalationService interface {
	Petition(ctx context.Context, requesterID string) (*domain.EscalationRequest, error)
	ListPending(ctx context.Context) ([]domain.EscalationRequest, error)
	Decide(ctx context.Context, requestID string, approve bool) (*domain.EscalationRequest, error)
}

package mocks

import (
	"time"

	"github.com/google/uuid"

	"github.com/smart-daycare/identity-access-service/internal/core/domain"
)

// NewTestAccount builds an account with a hashed password, ready to
// seed into a mock repository.
func NewTestAccount(email, password string, role domain.Role) *domain.Account {
	account := &domain.Account{
		ID:        uuid.NewString(),
		Email:     domain.NormalizeEmail(email),
		Name:      "Test Account",
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := account.SetPassword(password); err != nil {
		panic("test account password: " + err.Error())
	}
	return account
}

// NewPendingRequest builds a pending escalation request for an account.
func NewPendingRequest(accountID string) domain.EscalationRequest {
	return domain.EscalationRequest{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Status:    domain.RequestPending,
		CreatedAt: time.Now().UTC(),
	}
}

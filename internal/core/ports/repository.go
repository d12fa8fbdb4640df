package ports

import (
	"context"

	"github.com/smart-daycare/identity-access-service/internal/core/domain"
)

// AccountRepository owns account records. Create receives the secret
// already hashed; the plaintext never crosses this boundary.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account, outboxPayload []byte) error
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
}

// EscalationRepository owns escalation request records. Decide applies
// the approve/reject transition and, on approval, the account role
// change as a single transaction.
type EscalationRepository interface {
	Create(ctx context.Context, req domain.EscalationRequest) error
	FindPendingByAccount(ctx context.Context, accountID string) (*domain.EscalationRequest, error)
	FindLatestByAccount(ctx context.Context, accountID string) (*domain.EscalationRequest, error)
	ListPending(ctx context.Context) ([]domain.EscalationRequest, error)
	Decide(ctx context.Context, requestID string, approve bool) (*domain.EscalationRequest, error)
}

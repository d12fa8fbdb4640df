package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smart-daycare/identity-access-service/internal/core/domain"
	"github.com/smart-daycare/identity-access-service/internal/core/ports"
)

// EscalationService runs the parent-to-admin petition workflow.
type EscalationService struct {
	accounts    ports.AccountRepository
	escalations ports.EscalationRepository
	principals  ports.PrincipalCache
}

var _ ports.EscalationService = (*EscalationService)(nil)

func NewEscalationService(
	accounts ports.AccountRepository,
	escalations ports.EscalationRepository,
	principals ports.PrincipalCache,
) *EscalationService {
	return &EscalationService{
		accounts:    accounts,
		escalations: escalations,
		principals:  principals,
	}
}

// Petition opens a pending escalation request for the given account.
// Preconditions, in order: the account exists, it is not already
// privileged, and it has no pending request. The repository's partial
// unique index backs the last check, so concurrent petitions cannot
// both commit.
func (s *EscalationService) Petition(ctx context.Context, requesterID string) (*domain.EscalationRequest, error) {
	account, err := s.accounts.FindByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if account.Privileged() {
		return nil, domain.ErrAlreadyPrivileged
	}

	existing, err := s.escalations.FindPendingByAccount(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicatePetition
	}

	req := domain.EscalationRequest{
		ID:        uuid.NewString(),
		AccountID: requesterID,
		Status:    domain.RequestPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.escalations.Create(ctx, req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListPending returns pending requests with requester summaries, in
// insertion order.
func (s *EscalationService) ListPending(ctx context.Context) ([]domain.EscalationRequest, error) {
	return s.escalations.ListPending(ctx)
}

// Decide approves or rejects a pending request. The repository applies
// the request transition and, on approval, the role change and the
// promotion outbox event in one transaction. The requester's cached
// principal is invalidated so the middleware sees the new role on the
// next protected call.
func (s *EscalationService) Decide(ctx context.Context, requestID string, approve bool) (*domain.EscalationRequest, error) {
	req, err := s.escalations.Decide(ctx, requestID, approve)
	if err != nil {
		return nil, err
	}

	if s.principals != nil {
		s.principals.Invalidate(ctx, req.AccountID)
	}
	return req, nil
}

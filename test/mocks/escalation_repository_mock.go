package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/smart-daycare/identity-access-service/internal/core/domain"
	"github.com/smart-daycare/identity-access-service/internal/core/ports"
)

// MockEscalationRepository implements ports.EscalationRepository in
// memory. Decide applies the same all-or-nothing semantics as the real
// adapter: on approval the request transition and the account role
// change happen under one lock, or not at all.
type MockEscalationRepository struct {
	mu sync.Mutex

	requests []*domain.EscalationRequest

	// Accounts backs the approve path's role mutation. Leave nil to
	// test a request-only repository.
	Accounts *MockAccountRepository

	// Call tracking
	CreateCalls []domain.EscalationRequest
	DecideCalls []string

	// Error injection
	CreateError      error
	FindPendingError error
	FindLatestError  error
	ListPendingError error
	DecideError      error
}

var _ ports.EscalationRepository = (*MockEscalationRepository)(nil)

func NewMockEscalationRepository(accounts *MockAccountRepository) *MockEscalationRepository {
	return &MockEscalationRepository{Accounts: accounts}
}

func (m *MockEscalationRepository) Create(ctx context.Context, req domain.EscalationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls = append(m.CreateCalls, req)

	if m.CreateError != nil {
		return m.CreateError
	}

	// Mirror the partial unique index on pending requests.
	for _, existing := range m.requests {
		if existing.AccountID == req.AccountID && existing.Status == domain.RequestPending {
			return domain.ErrDuplicatePetition
		}
	}

	stored := req
	m.requests = append(m.requests, &stored)
	return nil
}

func (m *MockEscalationRepository) FindPendingByAccount(ctx context.Context, accountID string) (*domain.EscalationRequest, error) {
	if m.FindPendingError != nil {
		return nil, m.FindPendingError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, req := range m.requests {
		if req.AccountID == accountID && req.Status == domain.RequestPending {
			copied := *req
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *MockEscalationRepository) FindLatestByAccount(ctx context.Context, accountID string) (*domain.EscalationRequest, error) {
	if m.FindLatestError != nil {
		return nil, m.FindLatestError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *domain.EscalationRequest
	for _, req := range m.requests {
		if req.AccountID != accountID {
			continue
		}
		if latest == nil || req.CreatedAt.After(latest.CreatedAt) {
			latest = req
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (m *MockEscalationRepository) ListPending(ctx context.Context) ([]domain.EscalationRequest, error) {
	if m.ListPendingError != nil {
		return nil, m.ListPendingError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var pending []domain.EscalationRequest
	for _, req := range m.requests {
		if req.Status != domain.RequestPending {
			continue
		}
		copied := *req
		if m.Accounts != nil {
			if account, err := m.Accounts.FindByID(ctx, req.AccountID); err == nil {
				copied.Requester = &domain.RequesterSummary{
					ID:    account.ID,
					Name:  account.Name,
					Email: account.Email,
					Role:  account.Role,
				}
			}
		}
		pending = append(pending, copied)
	}
	return pending, nil
}

func (m *MockEscalationRepository) Decide(ctx context.Context, requestID string, approve bool) (*domain.EscalationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DecideCalls = append(m.DecideCalls, requestID)

	if m.DecideError != nil {
		return nil, m.DecideError
	}

	var target *domain.EscalationRequest
	for _, req := range m.requests {
		if req.ID == requestID {
			target = req
			break
		}
	}
	if target == nil || target.Status != domain.RequestPending {
		return nil, domain.ErrRequestNotActionable
	}

	if approve {
		if m.Accounts == nil || !m.Accounts.SetRole(target.AccountID, domain.RoleAdmin) {
			// Neither field changes when the promotion cannot land.
			return nil, domain.ErrAccountNotFound
		}
		target.Status = domain.RequestApproved
	} else {
		target.Status = domain.RequestRejected
	}
	now := time.Now().UTC()
	target.DecidedAt = &now

	copied := *target
	return &copied, nil
}

// Requests returns a snapshot of all stored requests.
func (m *MockEscalationRepository) Requests() []domain.EscalationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.EscalationRequest, 0, len(m.requests))
	for _, req := range m.requests {
		out = append(out, *req)
	}
	return out
}

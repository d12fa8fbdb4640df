// Package mocks provides in-memory implementations of the port
// interfaces so services and middleware can be tested without
// Postgres, Redis or RabbitMQ.
package mocks

import (
	"context"
	"sync"

	"github.com/smart-daycare/identity-access-service/internal/core/domain"
	"github.com/smart-daycare/identity-access-service/internal/core/ports"
)

// MockAccountRepository implements ports.AccountRepository backed by
// maps. It tracks calls and supports error injection, mirroring how
// the real adapter surfaces failures.
type MockAccountRepository struct {
	mu sync.RWMutex

	byID    map[string]*domain.Account
	byEmail map[string]*domain.Account

	// Call tracking for verification
	CreateCalls      []domain.Account
	FindByEmailCalls []string
	FindByIDCalls    []string

	// Outbox payloads passed to Create, in order
	OutboxPayloads [][]byte

	// Error injection
	CreateError      error
	FindByEmailError error
	FindByIDError    error
}

var _ ports.AccountRepository = (*MockAccountRepository)(nil)

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		byID:    make(map[string]*domain.Account),
		byEmail: make(map[string]*domain.Account),
	}
}

// Seed adds an account for test setup, bypassing call tracking.
func (m *MockAccountRepository) Seed(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[account.ID] = account
	m.byEmail[account.Email] = account
}

func (m *MockAccountRepository) Create(ctx context.Context, account domain.Account, outboxPayload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls = append(m.CreateCalls, account)
	m.OutboxPayloads = append(m.OutboxPayloads, outboxPayload)

	if m.CreateError != nil {
		return m.CreateError
	}
	if _, exists := m.byEmail[account.Email]; exists {
		return domain.ErrDuplicateIdentity
	}

	stored := account
	m.byID[account.ID] = &stored
	m.byEmail[account.Email] = &stored
	return nil
}

func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	m.FindByEmailCalls = append(m.FindByEmailCalls, email)
	m.mu.Unlock()

	if m.FindByEmailError != nil {
		return nil, m.FindByEmailError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.byEmail[email]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	m.mu.Lock()
	m.FindByIDCalls = append(m.FindByIDCalls, id)
	m.mu.Unlock()

	if m.FindByIDError != nil {
		return nil, m.FindByIDError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

// SetRole mutates a seeded account's role directly. Used by the
// escalation mock to mirror the real adapter's approve transaction.
func (m *MockAccountRepository) SetRole(id string, role domain.Role) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.byID[id]
	if !ok {
		return false
	}
	account.Role = role
	return true
}

// Role reads a stored account's current role.
func (m *MockAccountRepository) Role(id string) (domain.Role, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.byID[id]
	if !ok {
		return "", false
	}
	return account.Role, true
}

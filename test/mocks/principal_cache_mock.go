package mocks

import (
	"context"
	"sync"

	"github.com/smart-daycare/identity-access-service/internal/core/domain"
	"github.com/smart-daycare/identity-access-service/internal/core/ports"
)

// MockPrincipalCache implements ports.PrincipalCache without TTL
// semantics; entries live until invalidated.
type MockPrincipalCache struct {
	mu   sync.RWMutex
	data map[string]*domain.Account

	GetCalls        []string
	SetCalls        []string
	InvalidateCalls []string

	// Disabled makes every Get a miss, simulating an unreachable redis.
	Disabled bool
}

var _ ports.PrincipalCache = (*MockPrincipalCache)(nil)

func NewMockPrincipalCache() *MockPrincipalCache {
	return &MockPrincipalCache{data: make(map[string]*domain.Account)}
}

func (m *MockPrincipalCache) Get(ctx context.Context, accountID string) (*domain.Account, bool) {
	m.mu.Lock()
	m.GetCalls = append(m.GetCalls, accountID)
	m.mu.Unlock()

	if m.Disabled {
		return nil, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.data[accountID]
	if !ok {
		return nil, false
	}
	copied := *account
	return &copied, true
}

func (m *MockPrincipalCache) Set(ctx context.Context, account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetCalls = append(m.SetCalls, account.ID)
	if m.Disabled {
		return
	}
	copied := *account
	m.data[account.ID] = &copied
}

func (m *MockPrincipalCache) Invalidate(ctx context.Context, accountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InvalidateCalls = append(m.InvalidateCalls, accountID)
	delete(m.data, accountID)
}

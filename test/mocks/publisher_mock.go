package mocks

import (
	"context"
	"sync"

	"github.com/smart-daycare/identity-access-service/internal/core/ports"
)

// MockPublisher implements ports.IdentityEventPublisher, recording
// every published event.
type MockPublisher struct {
	mu sync.Mutex

	RegisteredEvents []ports.AccountRegisteredEvent
	PromotedEvents   []ports.AdminPromotedEvent

	PublishError error
}

var _ ports.IdentityEventPublisher = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishAccountRegistered(ctx context.Context, evt ports.AccountRegisteredEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PublishError != nil {
		return m.PublishError
	}
	m.RegisteredEvents = append(m.RegisteredEvents, evt)
	return nil
}

func (m *MockPublisher) PublishAdminPromoted(ctx context.Context, evt ports.AdminPromotedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PublishError != nil {
		return m.PublishError
	}
	m.PromotedEvents = append(m.PromotedEvents, evt)
	return nil
}

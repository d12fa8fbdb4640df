package ports

import (
	"context"
)

// Outbox event types. These values are stored in the outbox_events
// event_type column and matched by the relay.
const (
	EventAccountRegistered = "account.registered"
	EventAdminPromoted     = "admin.promoted"
)

// AccountRegisteredEvent tells downstream daycare services (child
// records, dashboards) that a new account exists.
type AccountRegisteredEvent struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
}

// AdminPromotedEvent tells downstream services that an account gained
// the admin role through the escalation workflow.
type AdminPromotedEvent struct {
	AccountID string `json:"account_id"`
	RequestID string `json:"request_id"`
}

type IdentityEventPublisher interface {
	PublishAccountRegistered(ctx context.Context, evt AccountRegisteredEvent) error
	PublishAdminPromoted(ctx context.Context, evt AdminPromotedEvent) error
}

package ports

import (
	"context"

	"github.com/smart-daycare/identity-access-service/internal/core/domain"
)

// PrincipalCache is a short-lived cache of resolved accounts used by
// the auth middleware. Entries must expire well within a token's
// lifetime and are invalidated whenever a role changes, so a stale
// entry can never grant old privileges. A cache miss or failure is
// never an error: callers fall through to the repository.
type PrincipalCache interface {
	Get(ctx context.Context, accountID string) (*domain.Account, bool)
	Set(ctx context.Context, account *domain.Account)
	Invalidate(ctx context.Context, accountID string)
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/smart-daycare/identity-access-service/internal/core/domain"
	"github.com/smart-daycare/identity-access-service/internal/core/ports"
)

type EscalationRepository struct {
	db *sql.DB
}

var _ ports.EscalationRepository = (*EscalationRepository)(nil)

func NewEscalationRepository(db *sql.DB) *EscalationRepository {
	return &EscalationRepository{db: db}
}

// Create inserts a pending request. The partial unique index on
// (account_id) WHERE status = 'pending' rejects a second pending
// petition even when two requests race past the service-level check.
func (r *EscalationRepository) Create(ctx context.Context, req domain.EscalationRequest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO escalation_requests (id, account_id, status, created_at) VALUES ($1, $2, $3, $4)`,
		req.ID,
		req.AccountID,
		req.Status,
		req.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrDuplicatePetition
		}
		return fmt.Errorf("%w: %v", domain.ErrDependency, err)
	}
	return nil
}

// FindPendingByAccount returns the account's pending request, or nil
// when there is none.
func (r *EscalationRepository) FindPendingByAccount(ctx context.Context, accountID string) (*domain.EscalationRequest, error) {
	return r.findOne(ctx,
		`WHERE account_id = $1 AND status = $2`,
		accountID, domain.RequestPending,
	)
}

// FindLatestByAccount returns the account's most recent request in any
// status, or nil when the account never petitioned. Read paths derive
// the account-level admin-request status from it.
func (r *EscalationRepository) FindLatestByAccount(ctx context.Context, accountID string) (*domain.EscalationRequest, error) {
	return r.findOne(ctx,
		`WHERE account_id = $1 ORDER BY created_at DESC LIMIT 1`,
		accountID,
	)
}

func (r *EscalationRepository) findOne(ctx context.Context, tail string, args ...any) (*domain.EscalationRequest, error) {
	var (
		req       domain.EscalationRequest
		decidedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, account_id, status, created_at, decided_at
		FROM escalation_requests `+tail,
		args...,
	).Scan(&req.ID, &req.AccountID, &req.Status, &req.CreatedAt, &decidedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDependency, err)
	}
	if decidedAt.Valid {
		req.DecidedAt = &decidedAt.Time
	}
	return &req, nil
}

// ListPending returns pending requests joined with requester details,
// oldest first.
func (r *EscalationRepository) ListPending(ctx context.Context) ([]domain.EscalationRequest, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT er.id, er.account_id, er.status, er.created_at,
		       a.id, a.name, a.email, a.role
		FROM escalation_requests er
		JOIN accounts a ON a.id = er.account_id
		WHERE er.status = $1
		ORDER BY er.created_at`,
		domain.RequestPending,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDependency, err)
	}
	defer rows.Close()

	var requests []domain.EscalationRequest
	for rows.Next() {
		var (
			req       domain.EscalationRequest
			requester domain.RequesterSummary
		)
		err := rows.Scan(
			&req.ID, &req.AccountID, &req.Status, &req.CreatedAt,
			&requester.ID, &requester.Name, &requester.Email, &requester.Role,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrDependency, err)
		}
		req.Requester = &requester
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDependency, err)
	}
	return requests, nil
}

// Decide moves a pending request to its terminal status. The status
// guard in the UPDATE makes terminal states immutable: zero updated
// rows means the request is unknown or already decided, reported as
// one condition. Approval also promotes the account and records the
// promotion outbox event inside the same transaction, so no reader can
// observe an approved request whose account is still a parent.
func (r *EscalationRepository) Decide(ctx context.Context, requestID string, approve bool) (*domain.EscalationRequest, error) {
	status := domain.RequestRejected
	if approve {
		status = domain.RequestApproved
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDependency, err)
	}
	defer tx.Rollback()

	var (
		req       domain.EscalationRequest
		decidedAt sql.NullTime
	)
	err = tx.QueryRowContext(ctx, `
		UPDATE escalation_requests
		SET status = $1, decided_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING id, account_id, status, created_at, decided_at`,
		status, requestID, domain.RequestPending,
	).Scan(&req.ID, &req.AccountID, &req.Status, &req.CreatedAt, &decidedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrRequestNotActionable
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDependency, err)
	}
	if decidedAt.Valid {
		req.DecidedAt = &decidedAt.Time
	}

	if approve {
		res, err := tx.ExecContext(ctx,
			`UPDATE accounts SET role = $1 WHERE id = $2`,
			domain.RoleAdmin, req.AccountID,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrDependency, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrDependency, err)
		}
		if affected == 0 {
			// Account vanished out from under the request; abort so the
			// request does not read as a successful promotion.
			return nil, domain.ErrAccountNotFound
		}

		payload, err := json.Marshal(ports.AdminPromotedEvent{
			AccountID: req.AccountID,
			RequestID: req.ID,
		})
		if err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO outbox_events (event_type, payload) VALUES ($1, $2)`,
			ports.EventAdminPromoted,
			payload,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrDependency, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDependency, err)
	}
	return &req, nil
}

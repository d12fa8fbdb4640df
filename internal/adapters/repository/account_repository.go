package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/smart-daycare/identity-access-service/internal/core/domain"
	"github.com/smart-daycare/identity-access-service/internal/core/ports"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint
// breach.
const uniqueViolation = "23505"

type AccountRepository struct {
	db *sql.DB
}

var _ ports.AccountRepository = (*AccountRepository)(nil)

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts the account and its registration outbox event in one
// transaction. A unique violation on the email column maps to
// ErrDuplicateIdentity.
func (r *AccountRepository) Create(ctx context.Context, account domain.Account, outboxPayload []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDependency, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts (
			id, email, name, password_hash, role, staff_role, phone, experience,
			joining_date, emergency_name, emergency_phone, emergency_relationship, created_at
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11, $12, $13)`,
		account.ID,
		account.Email,
		account.Name,
		account.PasswordHash,
		account.Role,
		account.StaffRole,
		account.Phone,
		account.Experience,
		account.JoiningDate,
		account.EmergencyContact.Name,
		account.EmergencyContact.Phone,
		account.EmergencyContact.Relationship,
		account.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrDuplicateIdentity
		}
		return fmt.Errorf("%w: %v", domain.ErrDependency, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox_events (event_type, payload) VALUES ($1, $2)`,
		ports.EventAccountRegistered,
		outboxPayload,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDependency, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDependency, err)
	}
	return nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, `WHERE email = $1`, email)
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

func (r *AccountRepository) findOne(ctx context.Context, where string, arg any) (*domain.Account, error) {
	var (
		account     domain.Account
		staffRole   sql.NullString
		joiningDate sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, role, staff_role, phone, experience,
		       joining_date, emergency_name, emergency_phone, emergency_relationship, created_at
		FROM accounts `+where,
		arg,
	).Scan(
		&account.ID,
		&account.Email,
		&account.Name,
		&account.PasswordHash,
		&account.Role,
		&staffRole,
		&account.Phone,
		&account.Experience,
		&joiningDate,
		&account.EmergencyContact.Name,
		&account.EmergencyContact.Phone,
		&account.EmergencyContact.Relationship,
		&account.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDependency, err)
	}
	account.StaffRole = domain.StaffRole(staffRole.String)
	if joiningDate.Valid {
		account.JoiningDate = &joiningDate.Time
	}
	return &account, nil
}

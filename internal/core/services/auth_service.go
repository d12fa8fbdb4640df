package services

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/mail"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/smart-daycare/identity-access-service/internal/core/domain"
	"github.com/smart-daycare/identity-access-service/internal/core/ports"
)

// AuthService issues session tokens. Tokens are self-contained RS256
// JWTs; no session state is kept server-side.
type AuthService struct {
	accounts    ports.AccountRepository
	escalations ports.EscalationRepository
	privateKey  *rsa.PrivateKey
	tokenTTL    time.Duration
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(
	accounts ports.AccountRepository,
	escalations ports.EscalationRepository,
	privateKey *rsa.PrivateKey,
	tokenTTL time.Duration,
) *AuthService {
	return &AuthService{
		accounts:    accounts,
		escalations: escalations,
		privateKey:  privateKey,
		tokenTTL:    tokenTTL,
	}
}

// Register creates an account with the default parent role and returns
// it with a fresh session token. The account row and its outbox event
// are written in one transaction by the repository.
func (s *AuthService) Register(ctx context.Context, reg ports.Registration) (*domain.Account, string, error) {
	email := domain.NormalizeEmail(reg.Email)
	if email == "" || reg.Name == "" {
		return nil, "", domain.ErrMissingField
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", domain.ErrInvalidEmail
	}

	account := domain.Account{
		ID:               uuid.NewString(),
		Email:            email,
		Name:             reg.Name,
		Role:             domain.RoleParent,
		Phone:            reg.Phone,
		EmergencyContact: reg.EmergencyContact,
		CreatedAt:        time.Now().UTC(),
	}
	if err := account.SetPassword(reg.Password); err != nil {
		return nil, "", err
	}

	payload, err := json.Marshal(ports.AccountRegisteredEvent{
		AccountID: account.ID,
		Email:     account.Email,
		Name:      account.Name,
		Role:      string(account.Role),
	})
	if err != nil {
		return nil, "", err
	}

	if err := s.accounts.Create(ctx, account, payload); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(&account)
	if err != nil {
		return nil, "", err
	}
	return &account, token, nil
}

// Login verifies credentials and mints a token. Unknown email and bad
// password collapse into the same error so accounts cannot be
// enumerated.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Account, string, error) {
	account, err := s.accounts.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := account.CheckPassword(password); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(account)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// Profile returns the account's public fields plus its admin-request
// status, derived from the newest escalation request rather than a
// persisted mirror field. No request yet means an empty status.
func (s *AuthService) Profile(ctx context.Context, accountID string) (*domain.Account, domain.RequestStatus, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, "", err
	}

	latest, err := s.escalations.FindLatestByAccount(ctx, accountID)
	if err != nil {
		return nil, "", err
	}
	var status domain.RequestStatus
	if latest != nil {
		status = latest.Status
	}
	return account, status, nil
}

func (s *AuthService) issueToken(account *domain.Account) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   account.ID,
		"email": account.Email,
		"role":  string(account.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(s.privateKey)
}

package middleware

import (
	"context"
	"crypto/rsa"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/smart-daycare/identity-access-service/internal/core/domain"
	"github.com/smart-daycare/identity-access-service/internal/core/ports"
)

// AuthMiddleware verifies bearer tokens and enforces role gates.
// Authorization always runs against the account's current role as held
// by the store, never the role claim baked into the token, so a
// promotion or downgrade takes effect without waiting for the token to
// expire. The principal cache keeps that lookup cheap.
type AuthMiddleware struct {
	publicKey  *rsa.PublicKey
	accounts   ports.AccountRepository
	principals ports.PrincipalCache
}

func NewAuthMiddleware(
	publicKey *rsa.PublicKey,
	accounts ports.AccountRepository,
	principals ports.PrincipalCache,
) *AuthMiddleware {
	return &AuthMiddleware{
		publicKey:  publicKey,
		accounts:   accounts,
		principals: principals,
	}
}

type contextKey string

const principalKey contextKey = "principal"

// PrincipalFrom returns the authenticated account attached to the
// request context, if any.
func PrincipalFrom(ctx context.Context) (*domain.Account, bool) {
	account, ok := ctx.Value(principalKey).(*domain.Account)
	return account, ok
}

// RequireRole authenticates the request and then authorizes it against
// the allowed roles, in that order. Authentication failure leaves with
// 401 before any role check runs.
func (m *AuthMiddleware) RequireRole(roles []domain.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.authenticate(r)
		if err != nil {
			if errors.Is(err, domain.ErrDependency) {
				http.Error(w, domain.ErrDependency.Error(), http.StatusServiceUnavailable)
				return
			}
			http.Error(w, domain.ErrUnauthenticated.Error(), http.StatusUnauthorized)
			return
		}

		allowed := false
		for _, role := range roles {
			if principal.Role == role {
				allowed = true
				break
			}
		}
		if !allowed {
			log.Printf("auth: role %q denied, need one of %v", principal.Role, roles)
			http.Error(w, domain.ErrForbidden.Error(), http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticate verifies the bearer token and resolves the subject to a
// live account. Missing, malformed, expired and badly signed tokens,
// and tokens whose subject no longer exists, all fail the same way. A
// store outage during resolution is reported as ErrDependency instead.
func (m *AuthMiddleware) authenticate(r *http.Request) (*domain.Account, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, domain.ErrUnauthenticated
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, domain.ErrUnauthenticated
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.publicKey, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return nil, domain.ErrUnauthenticated
	}

	return m.resolvePrincipal(r.Context(), subject)
}

func (m *AuthMiddleware) resolvePrincipal(ctx context.Context, accountID string) (*domain.Account, error) {
	if m.principals != nil {
		if account, ok := m.principals.Get(ctx, accountID); ok {
			return account, nil
		}
	}

	account, err := m.accounts.FindByID(ctx, accountID)
	if err != nil {
		// An unreachable store is a server-side failure, not proof the
		// token is bad. Everything else means the subject is gone.
		if errors.Is(err, domain.ErrDependency) {
			return nil, err
		}
		return nil, domain.ErrUnauthenticated
	}

	if m.principals != nil {
		m.principals.Set(ctx, account)
	}
	return account, nil
}

package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/smart-daycare/identity-access-service/internal/core/domain"
	"github.com/smart-daycare/identity-access-service/test/mocks"
)

func generateTestKeys(t *testing.T) (*rsa.PrivateKey, *rsa.PublicKey) {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return privateKey, &privateKey.PublicKey
}

func createTestToken(privateKey *rsa.PrivateKey, subject string, role domain.Role, expired bool) string {
	exp := time.Now().Add(time.Hour)
	if expired {
		exp = time.Now().Add(-time.Hour)
	}

	claims := jwt.MapClaims{
		"sub":  subject,
		"role": string(role),
		"iat":  time.Now().Unix(),
		"exp":  exp.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, _ := token.SignedString(privateKey)
	return signed
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if called != nil {
			*called = true
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireRole_AuthenticateFailures(t *testing.T) {
	privateKey, publicKey := generateTestKeys(t)
	otherKey, _ := generateTestKeys(t)

	accounts := mocks.NewMockAccountRepository()
	account := mocks.NewTestAccount("alice@x.com", "secret1", domain.RoleParent)
	accounts.Seed(account)

	tests := []struct {
		name   string
		header string
	}{
		{"missing_header", ""},
		{"malformed_header", "InvalidFormat"},
		{"not_a_token", "Bearer invalid.token.here"},
		{"expired_token", "Bearer " + createTestToken(privateKey, account.ID, domain.RoleParent, true)},
		{"wrong_signing_key", "Bearer " + createTestToken(otherKey, account.ID, domain.RoleParent, false)},
		{"unknown_subject", "Bearer " + createTestToken(privateKey, "gone-account", domain.RoleParent, false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewAuthMiddleware(publicKey, accounts, mocks.NewMockPrincipalCache())

			var called bool
			handler := m.RequireRole([]domain.Role{domain.RoleParent}, okHandler(&called))

			req := httptest.NewRequest("POST", "/api/admin/request", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
			if called {
				t.Error("handler ran despite failed authentication")
			}
		})
	}
}

func TestRequireRole_StoreOutageIsUnavailable(t *testing.T) {
	privateKey, publicKey := generateTestKeys(t)

	accounts := mocks.NewMockAccountRepository()
	account := mocks.NewTestAccount("alice@x.com", "secret1", domain.RoleParent)
	accounts.Seed(account)
	accounts.FindByIDError = fmt.Errorf("%w: connection refused", domain.ErrDependency)

	m := NewAuthMiddleware(publicKey, accounts, mocks.NewMockPrincipalCache())

	var called bool
	handler := m.RequireRole([]domain.Role{domain.RoleParent}, okHandler(&called))

	// The token is fine; only the store lookup fails. That must not
	// read as a bad credential.
	req := httptest.NewRequest("POST", "/api/admin/request", nil)
	req.Header.Set("Authorization", "Bearer "+createTestToken(privateKey, account.ID, domain.RoleParent, false))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if called {
		t.Error("handler ran despite store outage")
	}
}

func TestRequireRole_ForbiddenBeforeHandler(t *testing.T) {
	privateKey, publicKey := generateTestKeys(t)

	accounts := mocks.NewMockAccountRepository()
	account := mocks.NewTestAccount("alice@x.com", "secret1", domain.RoleParent)
	accounts.Seed(account)

	m := NewAuthMiddleware(publicKey, accounts, mocks.NewMockPrincipalCache())

	var called bool
	handler := m.RequireRole([]domain.Role{domain.RoleSuperAdmin}, okHandler(&called))

	// Valid, unexpired token; the role is simply insufficient.
	req := httptest.NewRequest("GET", "/api/admin/requests", nil)
	req.Header.Set("Authorization", "Bearer "+createTestToken(privateKey, account.ID, domain.RoleParent, false))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
	if called {
		t.Error("handler ran despite failed authorization")
	}
}

func TestRequireRole_AttachesPrincipal(t *testing.T) {
	privateKey, publicKey := generateTestKeys(t)

	accounts := mocks.NewMockAccountRepository()
	account := mocks.NewTestAccount("root@x.com", "secret1", domain.RoleSuperAdmin)
	accounts.Seed(account)

	m := NewAuthMiddleware(publicKey, accounts, mocks.NewMockPrincipalCache())

	var principal *domain.Account
	handler := m.RequireRole([]domain.Role{domain.RoleSuperAdmin}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, _ = PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/admin/requests", nil)
	req.Header.Set("Authorization", "Bearer "+createTestToken(privateKey, account.ID, domain.RoleSuperAdmin, false))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if principal == nil || principal.ID != account.ID {
		t.Error("expected the resolved account attached as the principal")
	}
}

func TestRequireRole_UsesStoredRoleNotClaim(t *testing.T) {
	privateKey, publicKey := generateTestKeys(t)

	accounts := mocks.NewMockAccountRepository()
	account := mocks.NewTestAccount("alice@x.com", "secret1", domain.RoleParent)
	accounts.Seed(account)

	m := NewAuthMiddleware(publicKey, accounts, mocks.NewMockPrincipalCache())

	// Token minted before promotion still carries role=parent; the
	// store says admin, and the store wins.
	token := createTestToken(privateKey, account.ID, domain.RoleParent, false)
	accounts.SetRole(account.ID, domain.RoleAdmin)

	var called bool
	handler := m.RequireRole([]domain.Role{domain.RoleAdmin}, okHandler(&called))

	req := httptest.NewRequest("GET", "/api/admin/requests", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !called {
		t.Error("handler was not called")
	}
}

func TestRequireRole_CacheHitSkipsRepository(t *testing.T) {
	privateKey, publicKey := generateTestKeys(t)

	accounts := mocks.NewMockAccountRepository()
	account := mocks.NewTestAccount("alice@x.com", "secret1", domain.RoleParent)
	accounts.Seed(account)

	principals := mocks.NewMockPrincipalCache()
	m := NewAuthMiddleware(publicKey, accounts, principals)

	handler := m.RequireRole([]domain.Role{domain.RoleParent}, okHandler(nil))
	token := createTestToken(privateKey, account.ID, domain.RoleParent, false)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/api/admin/request", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	// First call misses and populates the cache; the second is served
	// from it.
	if got := len(accounts.FindByIDCalls); got != 1 {
		t.Errorf("expected 1 repository lookup, got %d", got)
	}
	if got := len(principals.SetCalls); got != 1 {
		t.Errorf("expected 1 cache set, got %d", got)
	}
}

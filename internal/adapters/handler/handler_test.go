package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smart-daycare/identity-access-service/internal/adapters/middleware"
	"github.com/smart-daycare/identity-access-service/internal/core/domain"
	"github.com/smart-daycare/identity-access-service/internal/core/services"
	"github.com/smart-daycare/identity-access-service/test/mocks"
)

// testEnv wires the handlers, middleware and services against mocks,
// mirroring the route table in cmd/api.
type testEnv struct {
	mux         *http.ServeMux
	accounts    *mocks.MockAccountRepository
	escalations *mocks.MockEscalationRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	accounts := mocks.NewMockAccountRepository()
	escalations := mocks.NewMockEscalationRepository(accounts)
	principals := mocks.NewMockPrincipalCache()

	authService := services.NewAuthService(accounts, escalations, key, time.Hour)
	escalationService := services.NewEscalationService(accounts, escalations, principals)

	authMiddleware := middleware.NewAuthMiddleware(&key.PublicKey, accounts, principals)

	authHandler := NewAuthHandler(authService)
	escalationHandler := NewEscalationHandler(escalationService)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("GET /api/auth/me",
		authMiddleware.RequireRole(
			[]domain.Role{domain.RoleParent, domain.RoleStaff, domain.RoleAdmin, domain.RoleSuperAdmin},
			http.HandlerFunc(authHandler.Me),
		),
	)
	mux.Handle("POST /api/admin/request",
		authMiddleware.RequireRole([]domain.Role{domain.RoleParent}, http.HandlerFunc(escalationHandler.Petition)),
	)
	mux.Handle("GET /api/admin/requests",
		authMiddleware.RequireRole([]domain.Role{domain.RoleSuperAdmin, domain.RoleAdmin}, http.HandlerFunc(escalationHandler.ListPending)),
	)
	mux.Handle("PUT /api/admin/approve/{id}",
		authMiddleware.RequireRole([]domain.Role{domain.RoleSuperAdmin}, http.HandlerFunc(escalationHandler.Approve)),
	)
	mux.Handle("PUT /api/admin/reject/{id}",
		authMiddleware.RequireRole([]domain.Role{domain.RoleSuperAdmin}, http.HandlerFunc(escalationHandler.Reject)),
	)

	return &testEnv{mux: mux, accounts: accounts, escalations: escalations}
}

func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return out
}

func TestEscalationFlow(t *testing.T) {
	env := newTestEnv(t)

	// Seed the reviewing super admin.
	superAdmin := mocks.NewTestAccount("root@daycare.org", "secret9", domain.RoleSuperAdmin)
	env.accounts.Seed(superAdmin)

	login := env.do(t, "POST", "/api/auth/login", "", LoginRequest{Email: "root@daycare.org", Password: "secret9"})
	if login.Code != http.StatusOK {
		t.Fatalf("super admin login: expected 200, got %d", login.Code)
	}
	adminToken := decode[SessionResponse](t, login).Token

	// Register alice.
	reg := env.do(t, "POST", "/api/auth/register", "", RegisterRequest{
		Email: "alice@x.com", Password: "secret1", Name: "Alice",
	})
	if reg.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", reg.Code, reg.Body.String())
	}
	registered := decode[SessionResponse](t, reg)
	if registered.Data.Role != domain.RoleParent {
		t.Fatalf("expected parent role, got %s", registered.Data.Role)
	}

	// Login succeeds with the same credentials.
	aliceLogin := env.do(t, "POST", "/api/auth/login", "", LoginRequest{Email: "alice@x.com", Password: "secret1"})
	if aliceLogin.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", aliceLogin.Code)
	}
	aliceToken := decode[SessionResponse](t, aliceLogin).Token

	// Alice petitions for admin.
	petition := env.do(t, "POST", "/api/admin/request", aliceToken, nil)
	if petition.Code != http.StatusCreated {
		t.Fatalf("petition: expected 201, got %d: %s", petition.Code, petition.Body.String())
	}
	requestID := decode[RequestResponse](t, petition).Data.ID

	// Alice cannot list requests even with a valid token.
	if rec := env.do(t, "GET", "/api/admin/requests", aliceToken, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("parent listing requests: expected 403, got %d", rec.Code)
	}

	// The super admin sees exactly one pending request, for alice.
	list := env.do(t, "GET", "/api/admin/requests", adminToken, nil)
	if list.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", list.Code)
	}
	pending := decode[ListResponse](t, list).Data
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending request, got %d", len(pending))
	}
	if pending[0].Requester == nil || pending[0].Requester.Email != "alice@x.com" {
		t.Fatal("expected alice's requester summary on the pending request")
	}

	// Approval promotes alice.
	approve := env.do(t, "PUT", fmt.Sprintf("/api/admin/approve/%s", requestID), adminToken, nil)
	if approve.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d: %s", approve.Code, approve.Body.String())
	}
	if role, _ := env.accounts.Role(registered.Data.ID); role != domain.RoleAdmin {
		t.Fatalf("expected alice promoted to admin, got %s", role)
	}

	// Her profile projection reflects the decision.
	me := env.do(t, "GET", "/api/auth/me", aliceToken, nil)
	if me.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", me.Code)
	}
	profile := decode[ProfileResponse](t, me)
	if profile.Data.Role != domain.RoleAdmin {
		t.Errorf("profile role: expected admin, got %s", profile.Data.Role)
	}
	if profile.Data.AdminRequest != domain.RequestApproved {
		t.Errorf("profile admin request: expected approved, got %s", profile.Data.AdminRequest)
	}

	// A second decision on the same request is rejected as a conflict.
	again := env.do(t, "PUT", fmt.Sprintf("/api/admin/approve/%s", requestID), adminToken, nil)
	if again.Code != http.StatusConflict {
		t.Errorf("second approve: expected 409, got %d", again.Code)
	}
}

func TestRegister_ValidationAndConflictStatuses(t *testing.T) {
	tests := []struct {
		name string
		body RegisterRequest
		want int
	}{
		{"weak_password", RegisterRequest{Email: "a@x.com", Password: "abc", Name: "A"}, http.StatusBadRequest},
		{"bad_email", RegisterRequest{Email: "nope", Password: "secret1", Name: "A"}, http.StatusBadRequest},
		{"missing_name", RegisterRequest{Email: "a@x.com", Password: "secret1"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(t, "POST", "/api/auth/register", "", tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			resp := decode[errorResponse](t, rec)
			if resp.Success {
				t.Error("expected success=false in error body")
			}
		})
	}
}

func TestRegister_AcceptsEmergencyContact(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/auth/register", "", RegisterRequest{
		Email:    "alice@x.com",
		Password: "secret1",
		Name:     "Alice",
		Phone:    "0687654321",
		EmergencyContact: domain.EmergencyContact{
			Name:         "Bob",
			Phone:        "0612345678",
			Relationship: "partner",
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	registered := decode[SessionResponse](t, rec)
	stored, err := env.accounts.FindByID(context.Background(), registered.Data.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if stored.EmergencyContact.Name != "Bob" || stored.EmergencyContact.Phone != "0612345678" {
		t.Errorf("emergency contact not stored, got %+v", stored.EmergencyContact)
	}
}

func TestRegister_DuplicateEmailConflict(t *testing.T) {
	env := newTestEnv(t)
	body := RegisterRequest{Email: "alice@x.com", Password: "secret1", Name: "Alice"}

	if rec := env.do(t, "POST", "/api/auth/register", "", body); rec.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", rec.Code)
	}
	if rec := env.do(t, "POST", "/api/auth/register", "", body); rec.Code != http.StatusConflict {
		t.Errorf("second register: expected 409, got %d", rec.Code)
	}
}

func TestLogin_GenericUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	env.accounts.Seed(mocks.NewTestAccount("alice@x.com", "secret1", domain.RoleParent))

	unknown := env.do(t, "POST", "/api/auth/login", "", LoginRequest{Email: "nobody@x.com", Password: "secret1"})
	wrongPassword := env.do(t, "POST", "/api/auth/login", "", LoginRequest{Email: "alice@x.com", Password: "wrong!!"})

	if unknown.Code != http.StatusUnauthorized || wrongPassword.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", unknown.Code, wrongPassword.Code)
	}
	// Identical bodies: the caller cannot tell which factor failed.
	if unknown.Body.String() != wrongPassword.Body.String() {
		t.Error("login failures are distinguishable")
	}
}

func TestPetition_PromotedAccountBlockedByGate(t *testing.T) {
	env := newTestEnv(t)

	// An admin whose stale token still says parent cannot slip a
	// petition through: the route gate reads the stored role.
	account := mocks.NewTestAccount("alice@x.com", "secret1", domain.RoleParent)
	env.accounts.Seed(account)

	login := env.do(t, "POST", "/api/auth/login", "", LoginRequest{Email: "alice@x.com", Password: "secret1"})
	token := decode[SessionResponse](t, login).Token

	env.accounts.SetRole(account.ID, domain.RoleAdmin)

	rec := env.do(t, "POST", "/api/admin/request", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

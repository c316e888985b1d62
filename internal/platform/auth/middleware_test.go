package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
)

type stubTokenVerifier struct {
	token    *firebaseauth.Token
	err      error
	received string
}

func (s *stubTokenVerifier) VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error) {
	s.received = idToken
	if s.err != nil {
		return nil, s.err
	}
	return s.token, nil
}

func TestRequireAuth_AllowsValidToken(t *testing.T) {
	verifier := &stubTokenVerifier{
		token: &firebaseauth.Token{
			UID: "uid-123",
			Claims: map[string]interface{}{
				"role":     "store_manager",
				"tenantId": "tnt_1",
				"storeId":  "st_1",
				"storeIds": []interface{}{"st_1", "st_2"},
				"email":    "manager@example.com",
			},
		},
	}

	authn := NewAuthenticator(verifier)

	handlerCalled := false
	handler := authn.RequireAuth(RoleStoreManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true

		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			t.Fatalf("expected identity in context")
		}
		if identity.UID != "uid-123" {
			t.Fatalf("unexpected uid: %s", identity.UID)
		}
		if !identity.HasRole(RoleStoreManager) {
			t.Fatalf("expected store_manager role, got %s", identity.Role)
		}
		if identity.TenantID != "tnt_1" {
			t.Fatalf("expected tenant tnt_1, got %s", identity.TenantID)
		}
		if !identity.CanAccessStore("st_2") {
			t.Fatalf("expected access to st_2 via storeIds claim")
		}
		if identity.CanAccessStore("st_9") {
			t.Fatalf("did not expect access to st_9")
		}

		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token-value")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if !handlerCalled {
		t.Fatalf("expected handler to be called")
	}
	if verifier.received != "token-value" {
		t.Fatalf("expected verifier to receive token-value, got %s", verifier.received)
	}
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	authn := NewAuthenticator(&stubTokenVerifier{})

	handler := authn.RequireAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not execute without credentials")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if body["error"] != "unauthenticated" {
		t.Fatalf("expected unauthenticated code, got %v", body["error"])
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	verifier := &stubTokenVerifier{err: ErrTokenExpired}
	authn := NewAuthenticator(verifier)

	handler := authn.RequireAuth(RoleCustomer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not execute on expired token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if body["error"] != "token_expired" {
		t.Fatalf("expected token_expired code, got %v", body["error"])
	}
}

func TestRequireAuth_InsufficientRole(t *testing.T) {
	verifier := &stubTokenVerifier{
		token: &firebaseauth.Token{
			UID:    "uid-456",
			Claims: map[string]interface{}{"role": "customer"},
		},
	}
	authn := NewAuthenticator(verifier)

	handler := authn.RequireAuth(RoleTenantAdmin, RoleStoreManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not execute with customer role")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rr.Code)
	}
}

func TestRequireAuth_StaffWithoutTenant(t *testing.T) {
	verifier := &stubTokenVerifier{
		token: &firebaseauth.Token{
			UID:    "uid-789",
			Claims: map[string]interface{}{"role": "store_staff"},
		},
	}
	authn := NewAuthenticator(verifier)

	handler := authn.RequireAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not execute for staff without tenant claim")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestRequireAuth_FallbackRole(t *testing.T) {
	verifier := &stubTokenVerifier{
		token: &firebaseauth.Token{UID: "uid-000", Claims: map[string]interface{}{}},
	}
	authn := NewAuthenticator(verifier)

	handler := authn.RequireAuth(RoleCustomer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, _ := IdentityFromContext(r.Context())
		if identity.Role != RoleCustomer {
			t.Fatalf("expected fallback customer role, got %s", identity.Role)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
}

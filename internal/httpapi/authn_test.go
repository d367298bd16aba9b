package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"grouple.org/internal/auth"
	"grouple.org/internal/group"
	"grouple.org/internal/store/memory"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// newTestAPI wires the API against the in-memory store.
func newTestAPI(t *testing.T) (*API, *memory.Store, *auth.TokenSigner) {
	t.Helper()
	store := memory.New()
	signer, err := auth.NewTokenSigner(testSecret)
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	api := New(Config{
		Auth:    auth.NewService(store, signer),
		Tokens:  signer,
		Policy:  auth.NewPolicy(store),
		Groups:  group.NewService(store),
		Version: "test",
	})
	return api, store, signer
}

// seedUser registers a user directly through the service and returns it with
// a valid access token.
func seedUser(t *testing.T, api *API, signer *auth.TokenSigner, username string) (*auth.User, string) {
	t.Helper()
	user, err := api.auth.Register(context.Background(), username, "pass-"+username, username+"@example.com", "")
	if err != nil {
		t.Fatalf("Register(%s): %v", username, err)
	}
	token, err := signer.Issue(user.Username, user.ID, 15*time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return user, token
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response not JSON: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestGateMissingHeaderOnProtectedRoute(t *testing.T) {
	api, _, _ := newTestAPI(t)
	handler := api.withAuth(api.mux)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// The gate lets the request through; the handler rejects it.
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if body["status"] != "error" {
		t.Fatalf("unexpected body: %v", body)
	}
	if rec.Header().Get("WWW-Authenticate") != "" {
		t.Fatal("missing header must not produce a token challenge")
	}
}

func TestGateInvalidBearer(t *testing.T) {
	api, _, _ := newTestAPI(t)
	handler := api.withAuth(api.mux)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got != `Bearer error="invalid_token"` {
		t.Fatalf("WWW-Authenticate = %q", got)
	}
	body := decodeEnvelope(t, rec)
	if body["status"] != "error" || body["message"] == "" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestGateExpiredToken(t *testing.T) {
	api, _, signer := newTestAPI(t)
	handler := api.withAuth(api.mux)

	user, _ := seedUser(t, api, signer, "alice")
	expired, err := signer.Issue(user.Username, user.ID, 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Fatal("expected token challenge header")
	}
}

func TestGateAllowlistSkipsVerification(t *testing.T) {
	api, _, _ := newTestAPI(t)
	handler := api.withAuth(api.mux)

	// A broken token on a public path must not block the request.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestGateSkipsOptions(t *testing.T) {
	api, _, _ := newTestAPI(t)
	var reached bool
	handler := api.withAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/organizations", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !reached {
		t.Fatal("OPTIONS request must bypass the gate")
	}
}

func TestGateIdempotentWithExistingPrincipal(t *testing.T) {
	api, _, _ := newTestAPI(t)
	var got auth.Principal
	handler := api.withAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Even a garbage header must not clobber an upstream principal.
	req := httptest.NewRequest(http.MethodGet, "/organizations", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(),
		auth.Principal{ID: 7, Username: "alice"}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.ID != 7 || got.Username != "alice" {
		t.Fatalf("principal = %+v", got)
	}
}

func TestGateValidToken(t *testing.T) {
	api, _, signer := newTestAPI(t)
	handler := api.withAuth(api.mux)

	user, token := seedUser(t, api, signer, "alice")

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if data["id"] != float64(user.ID) || data["username"] != "alice" {
		t.Fatalf("unexpected data: %v", data)
	}
}

func TestExtractBearerToken(t *testing.T) {
	if _, err := extractBearerToken("Basic abc"); err == nil {
		t.Fatal("expected error for non-bearer scheme")
	}
	if _, err := extractBearerToken("Bearer   "); err == nil {
		t.Fatal("expected error for empty token")
	}
	token, err := extractBearerToken("bearer abc.def.ghi")
	if err != nil || token != "abc.def.ghi" {
		t.Fatalf("got %q, %v", token, err)
	}
}

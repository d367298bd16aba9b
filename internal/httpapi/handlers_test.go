package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

// doJSON runs a request with an optional bearer token and JSON body.
func doJSON(t *testing.T, handler http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func dataOf(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("no data object in response: %s", rec.Body.String())
	}
	return data
}

func TestRegisterLoginRefreshFlow(t *testing.T) {
	api, _, _ := newTestAPI(t)
	handler := api.withAuth(api.mux)

	rec := doJSON(t, handler, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice", "password": "s3cret", "email": "alice@example.com",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Duplicate username conflicts.
	rec = doJSON(t, handler, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice", "password": "other",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: status = %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice", "password": "s3cret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body %s", rec.Code, rec.Body.String())
	}
	pair := dataOf(t, rec)
	access, _ := pair["accessToken"].(string)
	refresh, _ := pair["refreshToken"].(string)
	if access == "" || refresh == "" || access == refresh {
		t.Fatalf("unexpected token pair: %v", pair)
	}

	rec = doJSON(t, handler, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: status = %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/auth/refresh", "", map[string]string{
		"refreshToken": refresh,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestCheckIDIsPublic(t *testing.T) {
	api, _, signer := newTestAPI(t)
	handler := api.withAuth(api.mux)
	seedUser(t, api, signer, "alice")

	rec := doJSON(t, handler, http.MethodGet, "/auth/check-id?username=alice", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if data := dataOf(t, rec); data["available"] != false {
		t.Fatalf("alice should be taken: %v", data)
	}

	rec = doJSON(t, handler, http.MethodGet, "/auth/check-id?username=bob", "", nil)
	if data := dataOf(t, rec); data["available"] != true {
		t.Fatalf("bob should be available: %v", data)
	}
}

func TestOrgOwnerGates(t *testing.T) {
	api, _, signer := newTestAPI(t)
	handler := api.withAuth(api.mux)

	_, ownerToken := seedUser(t, api, signer, "owner")
	_, otherToken := seedUser(t, api, signer, "other")

	rec := doJSON(t, handler, http.MethodPost, "/organizations", ownerToken, map[string]string{
		"name": "chess club",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create org: status = %d, body %s", rec.Code, rec.Body.String())
	}
	org := dataOf(t, rec)
	if org["code"] == "" {
		t.Fatal("owner must receive the invite code")
	}

	// Update by a non-owner is forbidden.
	rec = doJSON(t, handler, http.MethodPut, "/organizations/1", otherToken, map[string]string{
		"name": "hijacked",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner update: status = %d, want 403", rec.Code)
	}

	// Members list requires membership.
	rec = doJSON(t, handler, http.MethodGet, "/organizations/1/members", otherToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("outsider members list: status = %d, want 403", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodGet, "/organizations/1/members", ownerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner members list: status = %d", rec.Code)
	}

	// Unauthenticated delete is rejected before any policy runs.
	rec = doJSON(t, handler, http.MethodDelete, "/organizations/1", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous delete: status = %d, want 401", rec.Code)
	}
}

func TestJoinRequestFlowOverHTTP(t *testing.T) {
	api, _, signer := newTestAPI(t)
	handler := api.withAuth(api.mux)

	_, ownerToken := seedUser(t, api, signer, "owner")
	_, applicantToken := seedUser(t, api, signer, "applicant")

	rec := doJSON(t, handler, http.MethodPost, "/organizations", ownerToken, map[string]string{"name": "chess club"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create org: %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/organizations/1/join-requests", applicantToken, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("join request: status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Only the owner may see or decide requests.
	rec = doJSON(t, handler, http.MethodGet, "/organizations/1/join-requests", applicantToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("applicant list requests: status = %d, want 403", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodPost, "/organizations/1/join-requests/1/approve", applicantToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("applicant approve: status = %d, want 403", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/organizations/1/join-requests/1/approve", ownerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner approve: status = %d, body %s", rec.Code, rec.Body.String())
	}
	if data := dataOf(t, rec); data["status"] != "approved" {
		t.Fatalf("unexpected decision: %v", data)
	}

	// The applicant is now a member and can read.
	rec = doJSON(t, handler, http.MethodGet, "/organizations/1/members", applicantToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("member list after approval: status = %d", rec.Code)
	}

	// Approving again conflicts.
	rec = doJSON(t, handler, http.MethodPost, "/organizations/1/join-requests/1/approve", ownerToken, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("double approve: status = %d, want 409", rec.Code)
	}

	// Own request history.
	rec = doJSON(t, handler, http.MethodGet, "/join-requests", applicantToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("own requests: status = %d", rec.Code)
	}
}

func TestResourceAuthorGate(t *testing.T) {
	api, _, signer := newTestAPI(t)
	handler := api.withAuth(api.mux)

	_, ownerToken := seedUser(t, api, signer, "owner")
	_, authorToken := seedUser(t, api, signer, "author")
	_, peerToken := seedUser(t, api, signer, "peer")

	rec := doJSON(t, handler, http.MethodPost, "/organizations", ownerToken, map[string]string{"name": "chess club"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create org: %d", rec.Code)
	}
	for _, token := range []string{authorToken, peerToken} {
		rec = doJSON(t, handler, http.MethodPost, "/organizations/1/join-requests", token, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("join request: %d", rec.Code)
		}
	}
	rec = doJSON(t, handler, http.MethodPost, "/organizations/1/join-requests/1/approve", ownerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve author: %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodPost, "/organizations/1/join-requests/2/approve", ownerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve peer: %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/organizations/1/docs", authorToken, map[string]string{
		"title": "minutes", "content": "first meeting",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create doc: status = %d, body %s", rec.Code, rec.Body.String())
	}
	docID := int(dataOf(t, rec)["id"].(float64))

	// A fellow member can read but not modify someone else's document.
	path := "/organizations/1/docs/" + strconv.Itoa(docID)
	rec = doJSON(t, handler, http.MethodGet, path, peerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("peer read: status = %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodPut, path, peerToken, map[string]string{"title": "edited"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("peer update: status = %d, want 403", rec.Code)
	}

	// The author and the org owner both may.
	rec = doJSON(t, handler, http.MethodPut, path, authorToken, map[string]string{"title": "minutes v2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("author update: status = %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodDelete, path, ownerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner delete: status = %d", rec.Code)
	}
}

func TestAnnouncementSearchOverHTTP(t *testing.T) {
	api, _, signer := newTestAPI(t)
	handler := api.withAuth(api.mux)

	_, ownerToken := seedUser(t, api, signer, "owner")
	rec := doJSON(t, handler, http.MethodPost, "/organizations", ownerToken, map[string]string{"name": "chess club"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create org: %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodPost, "/organizations/1/announcements", ownerToken, map[string]string{
		"title": "Spring tournament",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create announcement: %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPatch, "/organizations/1/announcements/1/star", ownerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("star: status = %d, body %s", rec.Code, rec.Body.String())
	}
	if data := dataOf(t, rec); data["starred"] != true {
		t.Fatalf("expected starred announcement: %v", data)
	}

	rec = doJSON(t, handler, http.MethodGet, "/organizations/1/announcements/search?q=tourna", ownerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search: status = %d", rec.Code)
	}

	// Empty query is a client error.
	rec = doJSON(t, handler, http.MethodGet, "/organizations/1/announcements/search", ownerToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty search: status = %d, want 400", rec.Code)
	}
}

func TestProfileSelfService(t *testing.T) {
	api, _, signer := newTestAPI(t)
	handler := api.withAuth(api.mux)

	_, token := seedUser(t, api, signer, "alice")

	rec := doJSON(t, handler, http.MethodGet, "/users/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get profile: status = %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPut, "/users/me", token, map[string]string{
		"phone": "010-9999",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update profile: status = %d, body %s", rec.Code, rec.Body.String())
	}
	if data := dataOf(t, rec); data["phone"] != "010-9999" {
		t.Fatalf("unexpected profile: %v", data)
	}

	rec = doJSON(t, handler, http.MethodDelete, "/users/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete profile: status = %d", rec.Code)
	}

	// The token still verifies, but the account is gone.
	rec = doJSON(t, handler, http.MethodGet, "/users/me", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("deleted profile: status = %d, want 404", rec.Code)
	}
}

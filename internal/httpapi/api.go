package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"grouple.org/api/spec"
	"grouple.org/internal/audit"
	"grouple.org/internal/auth"
	"grouple.org/internal/group"
	"grouple.org/internal/obs"
)

// ReadyProbe reports readiness; with a DB configured it pings it.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config carries the API's collaborators.
type Config struct {
	Auth       *auth.Service
	Tokens     *auth.TokenSigner
	Policy     *auth.Policy
	Groups     *group.Service
	ReadyProbe ReadyProbe
	Version    string
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	auth       *auth.Service
	tokens     *auth.TokenSigner
	policy     *auth.Policy
	groups     *group.Service
	readyProbe ReadyProbe
	version    string
}

func New(cfg Config) *API {
	a := &API{
		mux:        http.NewServeMux(),
		auth:       cfg.Auth,
		tokens:     cfg.Tokens,
		policy:     cfg.Policy,
		groups:     cfg.Groups,
		readyProbe: cfg.ReadyProbe,
		version:    cfg.Version,
	}

	// health/ready/info
	a.mux.HandleFunc("GET /healthz", a.Healthz)
	a.mux.HandleFunc("GET /readyz", a.Ready)
	a.mux.HandleFunc("GET /v1/info", a.Info)
	a.mux.HandleFunc("GET /openapi.yaml", a.OpenAPISpec)
	a.mux.Handle("GET /metrics", obs.Handler())

	// authentication
	a.mux.HandleFunc("POST /auth/register", a.handleRegister)
	a.mux.HandleFunc("POST /auth/login", a.handleLogin)
	a.mux.HandleFunc("POST /auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("GET /auth/check-id", a.handleCheckID)
	a.mux.HandleFunc("GET /auth/me", a.handleMe)

	// profile
	a.mux.HandleFunc("GET /users/me", a.handleGetProfile)
	a.mux.HandleFunc("PUT /users/me", a.handleUpdateProfile)
	a.mux.HandleFunc("DELETE /users/me", a.handleDeleteProfile)

	// organizations
	a.mux.HandleFunc("POST /organizations", a.handleCreateOrg)
	a.mux.HandleFunc("GET /organizations", a.handleListOrgs)
	a.mux.HandleFunc("GET /organizations/{orgID}", a.handleGetOrg)
	a.mux.HandleFunc("PUT /organizations/{orgID}", a.handleUpdateOrg)
	a.mux.HandleFunc("DELETE /organizations/{orgID}", a.handleDeleteOrg)

	// members
	a.mux.HandleFunc("GET /organizations/{orgID}/members", a.handleListMembers)
	a.mux.HandleFunc("DELETE /organizations/{orgID}/members/{userID}", a.handleRemoveMember)

	// join requests
	a.mux.HandleFunc("POST /organizations/{orgID}/join-requests", a.handleCreateJoinRequest)
	a.mux.HandleFunc("GET /organizations/{orgID}/join-requests", a.handleListOrgJoinRequests)
	a.mux.HandleFunc("POST /organizations/{orgID}/join-requests/{reqID}/approve", a.handleApproveJoinRequest)
	a.mux.HandleFunc("POST /organizations/{orgID}/join-requests/{reqID}/reject", a.handleRejectJoinRequest)
	a.mux.HandleFunc("GET /join-requests", a.handleListOwnJoinRequests)

	// documents
	a.mux.HandleFunc("POST /organizations/{orgID}/docs", a.handleCreateDocument)
	a.mux.HandleFunc("GET /organizations/{orgID}/docs", a.handleListDocuments)
	a.mux.HandleFunc("GET /organizations/{orgID}/docs/{docID}", a.handleGetDocument)
	a.mux.HandleFunc("PUT /organizations/{orgID}/docs/{docID}", a.handleUpdateDocument)
	a.mux.HandleFunc("DELETE /organizations/{orgID}/docs/{docID}", a.handleDeleteDocument)

	// receipts
	a.mux.HandleFunc("POST /organizations/{orgID}/receipts", a.handleCreateReceipt)
	a.mux.HandleFunc("GET /organizations/{orgID}/receipts", a.handleListReceipts)
	a.mux.HandleFunc("GET /organizations/{orgID}/receipts/{receiptID}", a.handleGetReceipt)
	a.mux.HandleFunc("PUT /organizations/{orgID}/receipts/{receiptID}", a.handleUpdateReceipt)
	a.mux.HandleFunc("DELETE /organizations/{orgID}/receipts/{receiptID}", a.handleDeleteReceipt)

	// announcements
	a.mux.HandleFunc("POST /organizations/{orgID}/announcements", a.handleCreateAnnouncement)
	a.mux.HandleFunc("GET /organizations/{orgID}/announcements", a.handleListAnnouncements)
	a.mux.HandleFunc("GET /organizations/{orgID}/announcements/starred", a.handleListStarredAnnouncements)
	a.mux.HandleFunc("GET /organizations/{orgID}/announcements/search", a.handleSearchAnnouncements)
	a.mux.HandleFunc("GET /organizations/{orgID}/announcements/{annID}", a.handleGetAnnouncement)
	a.mux.HandleFunc("PUT /organizations/{orgID}/announcements/{annID}", a.handleUpdateAnnouncement)
	a.mux.HandleFunc("PATCH /organizations/{orgID}/announcements/{annID}/star", a.handleStarAnnouncement)
	a.mux.HandleFunc("DELETE /organizations/{orgID}/announcements/{annID}", a.handleDeleteAnnouncement)

	// schedules
	a.mux.HandleFunc("POST /organizations/{orgID}/schedules", a.handleCreateSchedule)
	a.mux.HandleFunc("GET /organizations/{orgID}/schedules", a.handleListSchedules)
	a.mux.HandleFunc("GET /organizations/{orgID}/schedules/{scheduleID}", a.handleGetSchedule)
	a.mux.HandleFunc("PUT /organizations/{orgID}/schedules/{scheduleID}", a.handleUpdateSchedule)
	a.mux.HandleFunc("DELETE /organizations/{orgID}/schedules/{scheduleID}", a.handleDeleteSchedule)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "resource not found")
	})

	return a
}

// Handler returns the full middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- ops handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "grouple-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "grouple-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func (a *API) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(spec.OpenAPI)
}

// audit emits an audit event, never failing the request.
func (a *API) audit(ctx context.Context, event string, fields map[string]any) {
	_ = audit.LogEvent(ctx, event, fields)
}

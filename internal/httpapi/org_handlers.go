package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"grouple.org/internal/group"
)

type orgRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageUrl"`
}

type orgUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	ImageURL    *string `json:"imageUrl"`
}

type orgView struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Code        string    `json:"code,omitempty"`
	OwnerID     int       `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func orgToView(org *group.Organization, includeCode bool) orgView {
	v := orgView{
		ID:          org.ID,
		Name:        org.Name,
		Description: org.Description,
		Category:    org.Category,
		ImageURL:    org.ImageURL,
		OwnerID:     org.OwnerID,
		CreatedAt:   org.CreatedAt,
		UpdatedAt:   org.UpdatedAt,
	}
	if includeCode {
		v.Code = org.Code
	}
	return v
}

// pathInt parses a positive integer path parameter.
func pathInt(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(r.PathValue(name))
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// requireOrgRead enforces the member-or-owner read gate and writes the
// response on denial.
func (a *API) requireOrgRead(w http.ResponseWriter, r *http.Request, orgID int) bool {
	isMember, err := a.policy.CanReadOrg(r.Context(), orgID)
	if err != nil {
		handleDomainError(w, err)
		return false
	}
	if isMember {
		return true
	}
	isOwner, err := a.policy.CanManageOrg(r.Context(), orgID)
	if err != nil {
		handleDomainError(w, err)
		return false
	}
	if !isOwner {
		writeError(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}

// requireOrgManage enforces the owner gate.
func (a *API) requireOrgManage(w http.ResponseWriter, r *http.Request, orgID int) bool {
	ok, err := a.policy.CanManageOrg(r.Context(), orgID)
	if err != nil {
		handleDomainError(w, err)
		return false
	}
	if !ok {
		writeError(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}

// requireModify enforces the owner-or-author gate for an existing resource.
func (a *API) requireModify(w http.ResponseWriter, r *http.Request, orgID, authorID int) bool {
	ok, err := a.policy.CanModifyResource(r.Context(), orgID, authorID)
	if err != nil {
		handleDomainError(w, err)
		return false
	}
	if !ok {
		writeError(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}

// --- organizations ---

func (a *API) handleCreateOrg(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req orgRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	org, err := a.groups.CreateOrganization(r.Context(), principal.ID, group.OrgInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	a.audit(r.Context(), "org.create", map[string]any{"org_id": org.ID, "name": org.Name})
	w.Header().Set("Location", "/organizations/"+strconv.Itoa(org.ID))
	writeData(w, http.StatusCreated, orgToView(org, true))
}

func (a *API) handleListOrgs(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	orgs, err := a.groups.ListOrganizations(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	views := make([]orgView, 0, len(orgs))
	for _, org := range orgs {
		views = append(views, orgToView(org, false))
	}
	writeData(w, http.StatusOK, views)
}

func (a *API) handleGetOrg(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	orgID, ok := pathInt(r, "orgID")
	if !ok {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	org, err := a.groups.GetOrganization(r.Context(), orgID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	// Only the owner sees the invite code.
	writeData(w, http.StatusOK, orgToView(org, org.OwnerID == principal.ID))
}

func (a *API) handleUpdateOrg(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	orgID, ok := pathInt(r, "orgID")
	if !ok {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	if !a.requireOrgManage(w, r, orgID) {
		return
	}
	var req orgUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	org, err := a.groups.UpdateOrganization(r.Context(), orgID, group.OrgUpdate{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, orgToView(org, true))
}

func (a *API) handleDeleteOrg(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	orgID, ok := pathInt(r, "orgID")
	if !ok {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	if !a.requireOrgManage(w, r, orgID) {
		return
	}
	if err := a.groups.DeleteOrganization(r.Context(), orgID); err != nil {
		handleDomainError(w, err)
		return
	}
	a.audit(r.Context(), "org.delete", map[string]any{"org_id": orgID})
	writeMessage(w, http.StatusOK, "organization deleted")
}

// --- members ---

type memberView struct {
	UserID   int       `json:"userId"`
	Username string    `json:"username"`
	Email    string    `json:"email,omitempty"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

func (a *API) handleListMembers(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	orgID, ok := pathInt(r, "orgID")
	if !ok {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	if !a.requireOrgRead(w, r, orgID) {
		return
	}
	members, err := a.groups.ListMembers(r.Context(), orgID, r.URL.Query().Get("role"))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	views := make([]memberView, 0, len(members))
	for _, m := range members {
		views = append(views, memberView{
			UserID:   m.UserID,
			Username: m.Username,
			Email:    m.Email,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		})
	}
	writeData(w, http.StatusOK, views)
}

func (a *API) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	orgID, ok := pathInt(r, "orgID")
	if !ok {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	userID, ok := pathInt(r, "userID")
	if !ok {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	// Owners remove anyone; everyone else may only remove themselves (leave).
	if userID != principal.ID && !a.requireOrgManage(w, r, orgID) {
		return
	}

	if err := a.groups.RemoveMember(r.Context(), orgID, userID); err != nil {
		handleDomainError(w, err)
		return
	}
	a.audit(r.Context(), "org.member.remove", map[string]any{"org_id": orgID, "member_id": userID})
	writeMessage(w, http.StatusOK, "member removed")
}

// --- join requests ---

type joinRequestView struct {
	ID        int        `json:"id"`
	OrgID     int        `json:"orgId"`
	UserID    int        `json:"userId"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	DecidedAt *time.Time `json:"decidedAt,omitempty"`
}

func joinRequestToView(req *group.JoinRequest) joinRequestView {
	return joinRequestView{
		ID:        req.ID,
		OrgID:     req.OrgID,
		UserID:    req.UserID,
		Status:    req.Status,
		CreatedAt: req.CreatedAt,
		DecidedAt: req.DecidedAt,
	}
}

func (a *API) handleCreateJoinRequest(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	orgID, ok := pathInt(r, "orgID")
	if !ok {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	req, err := a.groups.RequestJoin(r.Context(), orgID, principal.ID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	a.audit(r.Context(), "org.join.request", map[string]any{"org_id": orgID, "request_id": req.ID})
	writeData(w, http.StatusCreated, joinRequestToView(req))
}

func (a *API) handleListOrgJoinRequests(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	orgID, ok := pathInt(r, "orgID")
	if !ok {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	if !a.requireOrgManage(w, r, orgID) {
		return
	}
	reqs, err := a.groups.ListOrgJoinRequests(r.Context(), orgID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	views := make([]joinRequestView, 0, len(reqs))
	for _, req := range reqs {
		views = append(views, joinRequestToView(req))
	}
	writeData(w, http.StatusOK, views)
}

func (a *API) handleListOwnJoinRequests(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	reqs, err := a.groups.ListUserJoinRequests(r.Context(), principal.ID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	views := make([]joinRequestView, 0, len(reqs))
	for _, req := range reqs {
		views = append(views, joinRequestToView(req))
	}
	writeData(w, http.StatusOK, views)
}

func (a *API) handleApproveJoinRequest(w http.ResponseWriter, r *http.Request) {
	a.decideJoinRequest(w, r, true)
}

func (a *API) handleRejectJoinRequest(w http.ResponseWriter, r *http.Request) {
	a.decideJoinRequest(w, r, false)
}

func (a *API) decideJoinRequest(w http.ResponseWriter, r *http.Request, approve bool) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	orgID, ok := pathInt(r, "orgID")
	if !ok {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	reqID, ok := pathInt(r, "reqID")
	if !ok {
		writeError(w, http.StatusNotFound, "join request not found")
		return
	}
	if !a.requireOrgManage(w, r, orgID) {
		return
	}

	var (
		req   *group.JoinRequest
		err   error
		event string
	)
	if approve {
		req, err = a.groups.ApproveJoinRequest(r.Context(), orgID, reqID)
		event = "org.join.approve"
	} else {
		req, err = a.groups.RejectJoinRequest(r.Context(), orgID, reqID)
		event = "org.join.reject"
	}
	if err != nil {
		handleDomainError(w, err)
		return
	}
	a.audit(r.Context(), event, map[string]any{"org_id": orgID, "request_id": reqID, "user_id": req.UserID})
	writeData(w, http.StatusOK, joinRequestToView(req))
}

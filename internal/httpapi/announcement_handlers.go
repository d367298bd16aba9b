package httpapi

import (
	"net/http"
	"time"

	"grouple.org/internal/group"
)

type announcementRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type announcementUpdateRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type announcementView struct {
	ID        int       `json:"id"`
	OrgID     int       `json:"orgId"`
	AuthorID  int       `json:"authorId"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	Starred   bool      `json:"starred"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func announcementToView(ann *group.Announcement) announcementView {
	return announcementView{
		ID:        ann.ID,
		OrgID:     ann.OrgID,
		AuthorID:  ann.AuthorID,
		Title:     ann.Title,
		Content:   ann.Content,
		Starred:   ann.Starred,
		CreatedAt: ann.CreatedAt,
		UpdatedAt: ann.UpdatedAt,
	}
}

func writeAnnouncementList(w http.ResponseWriter, anns []*group.Announcement) {
	views := make([]announcementView, 0, len(anns))
	for _, ann := range anns {
		views = append(views, announcementToView(ann))
	}
	writeData(w, http.StatusOK, views)
}

func (a *API) handleCreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
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
	var req announcementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ann, err := a.groups.CreateAnnouncement(r.Context(), orgID, principal.ID, group.AnnouncementInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusCreated, announcementToView(ann))
}

func (a *API) handleListAnnouncements(w http.ResponseWriter, r *http.Request) {
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
	anns, err := a.groups.ListAnnouncements(r.Context(), orgID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeAnnouncementList(w, anns)
}

func (a *API) handleListStarredAnnouncements(w http.ResponseWriter, r *http.Request) {
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
	anns, err := a.groups.ListStarredAnnouncements(r.Context(), orgID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeAnnouncementList(w, anns)
}

func (a *API) handleSearchAnnouncements(w http.ResponseWriter, r *http.Request) {
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
	anns, err := a.groups.SearchAnnouncements(r.Context(), orgID, r.URL.Query().Get("q"))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeAnnouncementList(w, anns)
}

func (a *API) handleGetAnnouncement(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	orgID, ok := pathInt(r, "orgID")
	if !ok {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	annID, ok := pathInt(r, "annID")
	if !ok {
		writeError(w, http.StatusNotFound, "announcement not found")
		return
	}
	if !a.requireOrgRead(w, r, orgID) {
		return
	}
	ann, err := a.groups.GetAnnouncement(r.Context(), orgID, annID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, announcementToView(ann))
}

func (a *API) handleUpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	orgID, ok := pathInt(r, "orgID")
	if !ok {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	annID, ok := pathInt(r, "annID")
	if !ok {
		writeError(w, http.StatusNotFound, "announcement not found")
		return
	}
	ann, err := a.groups.GetAnnouncement(r.Context(), orgID, annID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if !a.requireModify(w, r, orgID, ann.AuthorID) {
		return
	}
	var req announcementUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := a.groups.UpdateAnnouncement(r.Context(), orgID, annID, group.AnnouncementUpdate{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, announcementToView(updated))
}

func (a *API) handleStarAnnouncement(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	orgID, ok := pathInt(r, "orgID")
	if !ok {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	annID, ok := pathInt(r, "annID")
	if !ok {
		writeError(w, http.StatusNotFound, "announcement not found")
		return
	}
	ann, err := a.groups.GetAnnouncement(r.Context(), orgID, annID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if !a.requireModify(w, r, orgID, ann.AuthorID) {
		return
	}
	updated, err := a.groups.ToggleAnnouncementStar(r.Context(), orgID, annID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, announcementToView(updated))
}

func (a *API) handleDeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	orgID, ok := pathInt(r, "orgID")
	if !ok {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	annID, ok := pathInt(r, "annID")
	if !ok {
		writeError(w, http.StatusNotFound, "announcement not found")
		return
	}
	ann, err := a.groups.GetAnnouncement(r.Context(), orgID, annID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if !a.requireModify(w, r, orgID, ann.AuthorID) {
		return
	}
	if err := a.groups.DeleteAnnouncement(r.Context(), orgID, annID); err != nil {
		handleDomainError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "announcement deleted")
}

package httpapi

import (
	"net/http"
	"time"

	"grouple.org/internal/group"
)

type documentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type documentView struct {
	ID        int       `json:"id"`
	OrgID     int       `json:"orgId"`
	AuthorID  int       `json:"authorId"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func documentToView(d *group.Document) documentView {
	return documentView{
		ID:        d.ID,
		OrgID:     d.OrgID,
		AuthorID:  d.AuthorID,
		Title:     d.Title,
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (a *API) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
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
	var req documentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	doc, err := a.groups.CreateDocument(r.Context(), orgID, principal.ID, group.DocumentInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusCreated, documentToView(doc))
}

func (a *API) handleListDocuments(w http.ResponseWriter, r *http.Request) {
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
	docs, err := a.groups.ListDocuments(r.Context(), orgID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	views := make([]documentView, 0, len(docs))
	for _, d := range docs {
		views = append(views, documentToView(d))
	}
	writeData(w, http.StatusOK, views)
}

func (a *API) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	orgID, ok := pathInt(r, "orgID")
	if !ok {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	docID, ok := pathInt(r, "docID")
	if !ok {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if !a.requireOrgRead(w, r, orgID) {
		return
	}
	doc, err := a.groups.GetDocument(r.Context(), orgID, docID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, documentToView(doc))
}

func (a *API) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	orgID, ok := pathInt(r, "orgID")
	if !ok {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	docID, ok := pathInt(r, "docID")
	if !ok {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	doc, err := a.groups.GetDocument(r.Context(), orgID, docID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if !a.requireModify(w, r, orgID, doc.AuthorID) {
		return
	}
	var req documentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := a.groups.UpdateDocument(r.Context(), orgID, docID, group.DocumentInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, documentToView(updated))
}

func (a *API) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	orgID, ok := pathInt(r, "orgID")
	if !ok {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	docID, ok := pathInt(r, "docID")
	if !ok {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	doc, err := a.groups.GetDocument(r.Context(), orgID, docID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if !a.requireModify(w, r, orgID, doc.AuthorID) {
		return
	}
	if err := a.groups.DeleteDocument(r.Context(), orgID, docID); err != nil {
		handleDomainError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "document deleted")
}

package httpapi

import (
	"net/http"
	"time"

	"grouple.org/internal/group"
)

type receiptRequest struct {
	Title  string    `json:"title"`
	Amount int64     `json:"amount"`
	UsedAt time.Time `json:"usedAt"`
	Memo   string    `json:"memo"`
}

type receiptView struct {
	ID        int       `json:"id"`
	OrgID     int       `json:"orgId"`
	AuthorID  int       `json:"authorId"`
	Title     string    `json:"title"`
	Amount    int64     `json:"amount"`
	UsedAt    time.Time `json:"usedAt"`
	Memo      string    `json:"memo,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func receiptToView(rec *group.Receipt) receiptView {
	return receiptView{
		ID:        rec.ID,
		OrgID:     rec.OrgID,
		AuthorID:  rec.AuthorID,
		Title:     rec.Title,
		Amount:    rec.Amount,
		UsedAt:    rec.UsedAt,
		Memo:      rec.Memo,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func (a *API) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
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
	var req receiptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := a.groups.CreateReceipt(r.Context(), orgID, principal.ID, group.ReceiptInput{
		Title:  req.Title,
		Amount: req.Amount,
		UsedAt: req.UsedAt,
		Memo:   req.Memo,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusCreated, receiptToView(rec))
}

func (a *API) handleListReceipts(w http.ResponseWriter, r *http.Request) {
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
	recs, err := a.groups.ListReceipts(r.Context(), orgID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	views := make([]receiptView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, receiptToView(rec))
	}
	writeData(w, http.StatusOK, views)
}

func (a *API) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	orgID, ok := pathInt(r, "orgID")
	if !ok {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	receiptID, ok := pathInt(r, "receiptID")
	if !ok {
		writeError(w, http.StatusNotFound, "receipt not found")
		return
	}
	if !a.requireOrgRead(w, r, orgID) {
		return
	}
	rec, err := a.groups.GetReceipt(r.Context(), orgID, receiptID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, receiptToView(rec))
}

func (a *API) handleUpdateReceipt(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	orgID, ok := pathInt(r, "orgID")
	if !ok {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	receiptID, ok := pathInt(r, "receiptID")
	if !ok {
		writeError(w, http.StatusNotFound, "receipt not found")
		return
	}
	rec, err := a.groups.GetReceipt(r.Context(), orgID, receiptID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if !a.requireModify(w, r, orgID, rec.AuthorID) {
		return
	}
	var req receiptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := a.groups.UpdateReceipt(r.Context(), orgID, receiptID, group.ReceiptInput{
		Title:  req.Title,
		Amount: req.Amount,
		UsedAt: req.UsedAt,
		Memo:   req.Memo,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, receiptToView(updated))
}

func (a *API) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	orgID, ok := pathInt(r, "orgID")
	if !ok {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	receiptID, ok := pathInt(r, "receiptID")
	if !ok {
		writeError(w, http.StatusNotFound, "receipt not found")
		return
	}
	rec, err := a.groups.GetReceipt(r.Context(), orgID, receiptID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if !a.requireModify(w, r, orgID, rec.AuthorID) {
		return
	}
	if err := a.groups.DeleteReceipt(r.Context(), orgID, receiptID); err != nil {
		handleDomainError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "receipt deleted")
}

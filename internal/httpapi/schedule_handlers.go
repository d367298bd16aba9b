package httpapi

import (
	"net/http"
	"time"

	"grouple.org/internal/group"
)

type scheduleRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
}

type scheduleUpdateRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	StartsAt    *time.Time `json:"startsAt"`
	EndsAt      *time.Time `json:"endsAt"`
}

type scheduleView struct {
	ID          int       `json:"id"`
	OrgID       int       `json:"orgId"`
	AuthorID    int       `json:"authorId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func scheduleToView(sched *group.Schedule) scheduleView {
	return scheduleView{
		ID:          sched.ID,
		OrgID:       sched.OrgID,
		AuthorID:    sched.AuthorID,
		Title:       sched.Title,
		Description: sched.Description,
		StartsAt:    sched.StartsAt,
		EndsAt:      sched.EndsAt,
		CreatedAt:   sched.CreatedAt,
		UpdatedAt:   sched.UpdatedAt,
	}
}

func (a *API) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
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
	var req scheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sched, err := a.groups.CreateSchedule(r.Context(), orgID, principal.ID, group.ScheduleInput{
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusCreated, scheduleToView(sched))
}

func (a *API) handleListSchedules(w http.ResponseWriter, r *http.Request) {
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
	scheds, err := a.groups.ListSchedules(r.Context(), orgID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	views := make([]scheduleView, 0, len(scheds))
	for _, sched := range scheds {
		views = append(views, scheduleToView(sched))
	}
	writeData(w, http.StatusOK, views)
}

func (a *API) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	orgID, ok := pathInt(r, "orgID")
	if !ok {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	scheduleID, ok := pathInt(r, "scheduleID")
	if !ok {
		writeError(w, http.StatusNotFound, "schedule not found")
		return
	}
	if !a.requireOrgRead(w, r, orgID) {
		return
	}
	sched, err := a.groups.GetSchedule(r.Context(), orgID, scheduleID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, scheduleToView(sched))
}

func (a *API) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	orgID, ok := pathInt(r, "orgID")
	if !ok {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	scheduleID, ok := pathInt(r, "scheduleID")
	if !ok {
		writeError(w, http.StatusNotFound, "schedule not found")
		return
	}
	sched, err := a.groups.GetSchedule(r.Context(), orgID, scheduleID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if !a.requireModify(w, r, orgID, sched.AuthorID) {
		return
	}
	var req scheduleUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := a.groups.UpdateSchedule(r.Context(), orgID, scheduleID, group.ScheduleUpdate{
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, scheduleToView(updated))
}

func (a *API) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	orgID, ok := pathInt(r, "orgID")
	if !ok {
		writeError(w, http.StatusNotFound, "organization not found")
		return
	}
	scheduleID, ok := pathInt(r, "scheduleID")
	if !ok {
		writeError(w, http.StatusNotFound, "schedule not found")
		return
	}
	sched, err := a.groups.GetSchedule(r.Context(), orgID, scheduleID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if !a.requireModify(w, r, orgID, sched.AuthorID) {
		return
	}
	if err := a.groups.DeleteSchedule(r.Context(), orgID, scheduleID); err != nil {
		handleDomainError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "schedule deleted")
}

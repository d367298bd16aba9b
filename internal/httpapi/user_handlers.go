package httpapi

import (
	"net/http"

	"grouple.org/internal/auth"
)

type profileUpdateRequest struct {
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
}

// requireSelf runs the self-edit predicate and writes the response on denial.
func (a *API) requireSelf(w http.ResponseWriter, r *http.Request, targetUserID int) bool {
	ok, err := a.policy.CanEditUser(r.Context(), targetUserID)
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

func (a *API) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if !a.requireSelf(w, r, principal.ID) {
		return
	}
	user, err := a.auth.GetUser(r.Context(), principal.ID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, userView{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Phone:     user.Phone,
		CreatedAt: user.CreatedAt,
	})
}

func (a *API) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if !a.requireSelf(w, r, principal.ID) {
		return
	}

	var req profileUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.auth.UpdateProfile(r.Context(), principal.ID, auth.ProfileUpdate{
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, userView{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Phone:     user.Phone,
		CreatedAt: user.CreatedAt,
	})
}

func (a *API) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if !a.requireSelf(w, r, principal.ID) {
		return
	}
	if err := a.auth.DeleteUser(r.Context(), principal.ID); err != nil {
		handleDomainError(w, err)
		return
	}
	a.audit(r.Context(), "user.delete", map[string]any{"user_id": principal.ID})
	writeMessage(w, http.StatusOK, "account deleted")
}

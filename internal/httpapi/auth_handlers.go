package httpapi

import (
	"net/http"
	"strings"
	"time"

	"grouple.org/internal/obs"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// userView is the public projection of a user; the password hash never
// leaves the service.
type userView struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.auth.Register(r.Context(), req.Username, req.Password, req.Email, req.Phone)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	a.audit(r.Context(), "auth.register", map[string]any{"user_id": user.ID, "username": user.Username})
	writeData(w, http.StatusCreated, userView{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Phone:     user.Phone,
		CreatedAt: user.CreatedAt,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := a.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		obs.LoginAttempt("failure")
		handleDomainError(w, err)
		return
	}

	obs.LoginAttempt("success")
	a.audit(r.Context(), "auth.login", map[string]any{"username": strings.TrimSpace(req.Username)})
	writeData(w, http.StatusOK, pair)
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		writeError(w, http.StatusBadRequest, "refreshToken is required")
		return
	}

	pair, err := a.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	a.audit(r.Context(), "auth.refresh", nil)
	writeData(w, http.StatusOK, pair)
}

func (a *API) handleCheckID(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	available, err := a.auth.UsernameAvailable(r.Context(), username)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"available": available})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"id":       principal.ID,
		"username": principal.Username,
	})
}

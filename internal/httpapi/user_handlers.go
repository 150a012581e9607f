package httpapi

import (
	"errors"
	"net/http"
	"time"

	"budgetwise.org/internal/audit"
	"budgetwise.org/internal/auth"
	"budgetwise.org/internal/budget"
	"budgetwise.org/internal/ids"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := budget.ValidateRegistration(req.Username, req.Email, req.Password); err != nil {
		var verr *budget.ValidationError
		if errors.As(err, &verr) && verr.MissingFields() {
			writeError(w, r, http.StatusNotFound, "required fields missing")
			return
		}
		handleStoreError(w, r, err)
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	user := &budget.User{
		ID:       ids.New(),
		Username: req.Username,
		Email:    req.Email,
		Password: hash,
		Role:     budget.RoleUser,
	}
	if err := a.store.Users().Create(r.Context(), user); err != nil {
		if errors.Is(err, budget.ErrConflict) {
			writeError(w, r, http.StatusBadRequest, "username or email already taken")
			return
		}
		handleStoreError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "user_registered", map[string]any{"username": user.Username})
	writeJSON(w, http.StatusCreated, map[string]string{"message": "user registered"})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := budget.ValidateLogin(req.Username, req.Password); err != nil {
		handleStoreError(w, r, err)
		return
	}
	user, err := a.store.Users().FindByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, budget.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "user not found")
			return
		}
		handleStoreError(w, r, err)
		return
	}
	if err := auth.VerifyPassword(user.Password, req.Password); err != nil {
		audit.LogEvent(r.Context(), "login_rejected", map[string]any{"username": user.Username})
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}
	sessionID, err := a.sessions.Create(r.Context(), user.Username)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	token, err := a.tokens.Issue(sessionID, user.Username)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	// Last-login bookkeeping must not fail the login.
	if err := a.store.Users().RecordLogin(r.Context(), user.Username, time.Now().UTC()); err != nil {
		audit.LogEvent(r.Context(), "record_login_failed", map[string]any{"error": err.Error()})
	}
	audit.LogEvent(r.Context(), "user_login", map[string]any{"username": user.Username})
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "login successful",
		"token":   token,
	})
}

type profileRequest struct {
	Phone    *string `json:"phone"`
	Currency *string `json:"currency"`
	Language *string `json:"language"`
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		user, ok := a.actingUser(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPut:
		identity, _ := auth.IdentityFromContext(r.Context())
		var req profileRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if req.Phone == nil && req.Currency == nil && req.Language == nil {
			writeError(w, r, http.StatusBadRequest, "no fields to update")
			return
		}
		user, err := a.store.Users().UpdateProfile(r.Context(), identity.Username, budget.ProfileUpdate{
			Phone:    req.Phone,
			Currency: req.Currency,
			Language: req.Language,
		})
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

// handleLogout revokes the session named by the presented token. The token
// itself carries no expiry, so deleting the session is the only way to kill
// it. GET is the historical verb; POST is accepted too.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		return
	}
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authorization token required")
		return
	}
	if err := a.sessions.Delete(r.Context(), identity.SessionID); err != nil {
		handleStoreError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "user_logout", map[string]any{"username": identity.Username})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

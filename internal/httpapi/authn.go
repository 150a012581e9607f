package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"budgetwise.org/internal/audit"
	"budgetwise.org/internal/auth"
	"budgetwise.org/internal/budget"
	"budgetwise.org/internal/session"
)

// requireAuth authenticates the request before the wrapped handler runs.
// The token must parse and carry a valid signature, and the session it
// names must still be present in the registry; a session that has been
// deleted or expired ends the request here.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "authorization token required")
			return
		}
		claims, err := a.tokens.Verify(raw)
		if err != nil {
			writeError(w, r, http.StatusForbidden, "invalid token")
			return
		}
		username, err := a.sessions.Lookup(r.Context(), claims.SessionID)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				writeError(w, r, http.StatusUnauthorized, "session expired")
				return
			}
			handleStoreError(w, r, err)
			return
		}
		if username != claims.Subject {
			writeError(w, r, http.StatusUnauthorized, "session expired")
			return
		}
		ctx := auth.ContextWithIdentity(r.Context(), auth.Identity{
			Username:  username,
			SessionID: claims.SessionID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole gates a handler on the acting user's stored role. It composes
// after requireAuth and re-reads the user so a role change takes effect on
// the next request, not the next login.
func (a *API) requireRole(role string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "authorization token required")
			return
		}
		user, err := a.store.Users().FindByUsername(r.Context(), identity.Username)
		if err != nil {
			if errors.Is(err, budget.ErrNotFound) {
				writeError(w, r, http.StatusNotFound, "user not found")
				return
			}
			handleStoreError(w, r, err)
			return
		}
		if user.Role != role {
			audit.LogEvent(r.Context(), "role_denied", map[string]any{
				"required": role,
				"actual":   user.Role,
			})
			writeError(w, r, http.StatusForbidden, "insufficient privileges")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

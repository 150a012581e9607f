package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"budgetwise.org/internal/audit"
	"budgetwise.org/internal/auth"
	"budgetwise.org/internal/budget"
	"budgetwise.org/internal/cache"
	"budgetwise.org/internal/obs"
	"budgetwise.org/internal/session"
)

// Options tunes the outer middleware; zero values mean sensible defaults.
type Options struct {
	// EnableTestEndpoints mounts the destructive /test/cleanup route.
	EnableTestEndpoints bool
	// RatePerSecond and RateBurst shape the per-IP token bucket.
	RatePerSecond float64
	RateBurst     int
	// MaxBodyBytes caps request bodies. Default 1 MiB.
	MaxBodyBytes int64
	// ReadyProbe is polled by /readyz in addition to the session registry.
	ReadyProbe func(ctx context.Context) error
}

// API owns the HTTP surface: routing, middleware, and the handler set over
// the store, session registry, and listing cache.
type API struct {
	mux      *http.ServeMux
	store    budget.Store
	sessions *session.Registry
	listings *cache.Listings
	tokens   *auth.Tokens
	opts     Options
}

// New wires every route onto a fresh mux.
func New(store budget.Store, sessions *session.Registry, listings *cache.Listings, tokens *auth.Tokens, opts Options) *API {
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 50
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 100
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	a := &API{
		mux:      http.NewServeMux(),
		store:    store,
		sessions: sessions,
		listings: listings,
		tokens:   tokens,
		opts:     opts,
	}
	a.routes()
	return a
}

func (a *API) routes() {
	a.mux.HandleFunc("/healthz", a.handleHealthz)
	a.mux.HandleFunc("/readyz", a.handleReadyz)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/users/register", a.handleRegister)
	a.mux.HandleFunc("/users/login", a.handleLogin)
	a.mux.Handle("/users/me", a.requireAuth(http.HandlerFunc(a.handleMe)))
	a.mux.Handle("/users/logout", a.requireAuth(http.HandlerFunc(a.handleLogout)))

	a.mux.Handle("/goals/", a.requireAuth(http.HandlerFunc(a.handleGoals)))
	a.mux.Handle("/notes/", a.requireAuth(http.HandlerFunc(a.handleNotes)))
	a.mux.Handle("/transactions/", a.requireAuth(http.HandlerFunc(a.handleTransactions)))

	if a.opts.EnableTestEndpoints {
		a.mux.Handle("/test/cleanup",
			a.requireAuth(a.requireRole(budget.RoleAdmin, http.HandlerFunc(a.handleCleanup))))
	}
}

// Handler returns the full middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = MaxBodyBytes(a.opts.MaxBodyBytes)(h)
	h = RateLimit(a.opts.RatePerSecond, a.opts.RateBurst)(h)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz reports readiness only when the session registry (and any
// extra probe, normally the database) answers.
func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.sessions.Ping(ctx); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "session registry unavailable")
		return
	}
	if a.opts.ReadyProbe != nil {
		if err := a.opts.ReadyProbe(ctx); err != nil {
			writeError(w, r, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleCleanup wipes every collection and flushes the listing cache.
// Mounted only when test endpoints are enabled, behind the admin gate.
func (a *API) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if err := a.store.Cleanup(r.Context()); err != nil {
		handleStoreError(w, r, err)
		return
	}
	if err := a.listings.Flush(r.Context()); err != nil {
		handleStoreError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "test_cleanup", nil)
	writeJSON(w, http.StatusOK, map[string]string{"message": "all records removed"})
}

// actingUser resolves the authenticated identity to its stored user record.
func (a *API) actingUser(w http.ResponseWriter, r *http.Request) (*budget.User, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authorization token required")
		return nil, false
	}
	user, err := a.store.Users().FindByUsername(r.Context(), identity.Username)
	if err != nil {
		if errors.Is(err, budget.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "user not found")
			return nil, false
		}
		handleStoreError(w, r, err)
		return nil, false
	}
	return user, true
}

// splitResourcePath decomposes "/goals/edit/abc" relative to its prefix into
// an action and trailing ID. A bare "/goals/abc" yields action "" and ID.
func splitResourcePath(path, prefix string) (action, id string) {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return "", ""
	}
	parts := strings.SplitN(rest, "/", 2)
	switch parts[0] {
	case "all", "new", "edit", "delete", "complete":
		action = parts[0]
		if len(parts) == 2 {
			id = parts[1]
		}
		return action, id
	}
	if len(parts) == 2 {
		// Unknown action segment; let the handler 404 it.
		return parts[0], parts[1]
	}
	return "", parts[0]
}

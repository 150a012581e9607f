package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"budgetwise.org/internal/auth"
	"budgetwise.org/internal/budget"
	"budgetwise.org/internal/cache"
	"budgetwise.org/internal/session"
)

const testSecret = "test-signing-secret"

type testServer struct {
	t        *testing.T
	srv      *httptest.Server
	store    *budget.InMemory
	redis    *miniredis.Miniredis
	sessions *session.Registry
	tokens   *auth.Tokens
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := budget.NewInMemory()
	tokens, err := auth.NewTokens(testSecret)
	require.NoError(t, err)
	sessions := session.NewRegistry(client, time.Hour)
	listings := cache.NewListings(client, time.Hour)

	api := New(store, sessions, listings, tokens, Options{
		EnableTestEndpoints: true,
		RatePerSecond:       10000,
		RateBurst:           10000,
	})
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &testServer{
		t:        t,
		srv:      srv,
		store:    store,
		redis:    mr,
		sessions: sessions,
		tokens:   tokens,
	}
}

// do issues a request and decodes the JSON object response, if any.
func (ts *testServer) do(method, path, token string, body any) (*http.Response, map[string]any) {
	ts.t.Helper()
	resp, raw := ts.doRaw(method, path, token, body)
	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(ts.t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func (ts *testServer) doRaw(method, path, token string, body any) (*http.Response, []byte) {
	ts.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	require.NoError(ts.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.srv.Client().Do(req)
	require.NoError(ts.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(ts.t, err)
	return resp, raw
}

func (ts *testServer) register(username, email, password string) *http.Response {
	ts.t.Helper()
	resp, _ := ts.do(http.MethodPost, "/users/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	return resp
}

func (ts *testServer) login(username, password string) (*http.Response, string) {
	ts.t.Helper()
	resp, body := ts.do(http.MethodPost, "/users/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	token, _ := body["token"].(string)
	return resp, token
}

// obtainToken registers a fresh user and logs in, returning a live token.
func (ts *testServer) obtainToken(username string) string {
	ts.t.Helper()
	resp := ts.register(username, username+"@example.com", "hunter22")
	require.Equal(ts.t, http.StatusCreated, resp.StatusCode)
	resp, token := ts.login(username, "hunter22")
	require.Equal(ts.t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(ts.t, token)
	return token
}

// seedAdmin creates an admin account directly in the store and logs in.
func (ts *testServer) seedAdmin(username string) string {
	ts.t.Helper()
	hash, err := auth.HashPassword("hunter22")
	require.NoError(ts.t, err)
	err = ts.store.Users().Create(context.Background(), &budget.User{
		Username: username,
		Email:    username + "@example.com",
		Password: hash,
		Role:     budget.RoleAdmin,
	})
	require.NoError(ts.t, err)
	resp, token := ts.login(username, "hunter22")
	require.Equal(ts.t, http.StatusOK, resp.StatusCode)
	return token
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])
}

func TestReadyz(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ready", body["status"])

	ts.redis.SetError("connection refused")
	resp, _ = ts.do(http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRequestIDPropagates(t *testing.T) {
	ts := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, ts.srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "fixed-id-123")
	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "fixed-id-123", resp.Header.Get("X-Request-Id"))

	// And one gets minted when the client sends none.
	resp, _ = ts.do(http.MethodGet, "/healthz", "", nil)
	require.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestUnknownRouteUnderResourcePrefix(t *testing.T) {
	ts := newTestServer(t)
	token := ts.obtainToken("wanderer")
	resp, _ := ts.do(http.MethodGet, "/goals/frobnicate/xyz", token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, ts.srv.URL+"/users/login", nil)
	require.NoError(t, err)
	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"budgetwise.org/internal/budget"
)

func (ts *testServer) createGoal(token, name string, target int64) string {
	ts.t.Helper()
	resp, body := ts.do(http.MethodPost, "/goals/new", token, map[string]any{
		"name":          name,
		"target_amount": target,
	})
	require.Equal(ts.t, http.StatusCreated, resp.StatusCode)
	id, _ := body["id"].(string)
	require.NotEmpty(ts.t, id)
	return id
}

func (ts *testServer) listGoals(token string) []budget.Goal {
	ts.t.Helper()
	resp, raw := ts.doRaw(http.MethodGet, "/goals/all", token, nil)
	require.Equal(ts.t, http.StatusOK, resp.StatusCode)
	var goals []budget.Goal
	require.NoError(ts.t, json.Unmarshal(raw, &goals))
	return goals
}

func TestGoalLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := ts.obtainToken("mia")

	id := ts.createGoal(token, "new laptop", 120000)

	resp, body := ts.do(http.MethodGet, "/goals/"+id, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "new laptop", body["name"])
	require.Equal(t, false, body["completed"])

	resp, body = ts.do(http.MethodPut, "/goals/edit/"+id, token, map[string]any{
		"saved_amount": 45000,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(45000), body["saved_amount"])
	require.Equal(t, "new laptop", body["name"])

	resp, body = ts.do(http.MethodPut, "/goals/complete/"+id, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["completed"])

	resp, _ = ts.do(http.MethodDelete, "/goals/delete/"+id, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(http.MethodGet, "/goals/"+id, token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGoalValidation(t *testing.T) {
	ts := newTestServer(t)
	token := ts.obtainToken("nina")

	resp, body := ts.do(http.MethodPost, "/goals/new", token, map[string]any{
		"name":          "",
		"target_amount": -5,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotEmpty(t, body["fields"])

	// Unknown body fields are rejected outright.
	resp, _ = ts.do(http.MethodPost, "/goals/new", token, map[string]any{
		"name": "x", "target_amount": 100, "bogus": true,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGoalOwnership(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.obtainToken("alice")
	mallory := ts.obtainToken("mallory")

	id := ts.createGoal(alice, "vacation", 300000)

	// Another user can neither read nor mutate the record, and the listing
	// never shows it.
	resp, _ := ts.do(http.MethodGet, "/goals/"+id, mallory, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = ts.do(http.MethodPut, "/goals/edit/"+id, mallory, map[string]any{"saved_amount": 1})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = ts.do(http.MethodDelete, "/goals/delete/"+id, mallory, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	require.Empty(t, ts.listGoals(mallory))
	require.Len(t, ts.listGoals(alice), 1)

	// The failed foreign mutations must not have touched the record.
	resp, body := ts.do(http.MethodGet, "/goals/"+id, alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(0), body["saved_amount"])
}

func TestGoalListCaching(t *testing.T) {
	ts := newTestServer(t)
	token := ts.obtainToken("oscar")
	ts.createGoal(token, "first", 1000)

	// First listing fills the cache.
	require.Len(t, ts.listGoals(token), 1)

	// A write that sneaks past the API goes unseen: the listing is served
	// from cache until an API mutation or the TTL invalidates it.
	user, err := ts.store.Users().FindByUsername(context.Background(), "oscar")
	require.NoError(t, err)
	err = ts.store.Goals().Create(context.Background(), &budget.Goal{
		UserID: user.ID, Name: "sneaky", TargetAmount: 1,
	})
	require.NoError(t, err)
	require.Len(t, ts.listGoals(token), 1)

	// An API mutation drops the cached listing; the next read is fresh.
	ts.createGoal(token, "second", 2000)
	require.Len(t, ts.listGoals(token), 3)
}

func TestGoalCacheScopedPerUser(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.obtainToken("alice")
	bob := ts.obtainToken("bob")

	ts.createGoal(alice, "hers", 1000)
	require.Len(t, ts.listGoals(alice), 1)

	// Bob's cold listing must not see Alice's cached payload.
	require.Empty(t, ts.listGoals(bob))

	// Bob's mutation invalidates only his own entry.
	ts.createGoal(bob, "his", 2000)
	require.Len(t, ts.listGoals(alice), 1)
	require.Len(t, ts.listGoals(bob), 1)
}

func TestGoalDeleteInvalidatesCache(t *testing.T) {
	ts := newTestServer(t)
	token := ts.obtainToken("pam")
	id := ts.createGoal(token, "doomed", 500)

	require.Len(t, ts.listGoals(token), 1)

	resp, _ := ts.do(http.MethodDelete, "/goals/delete/"+id, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, ts.listGoals(token))
}

package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"budgetwise.org/internal/budget"
)

func TestTransactionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := ts.obtainToken("uma")

	occurred := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	resp, body := ts.do(http.MethodPost, "/transactions/new", token, map[string]any{
		"kind":        "expense",
		"amount":      2599,
		"category":    "food",
		"description": "lunch",
		"occurred_at": occurred,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := body["id"].(string)
	require.Equal(t, "expense", body["kind"])

	resp, body = ts.do(http.MethodPut, "/transactions/edit/"+id, token, map[string]any{
		"amount": 2799,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(2799), body["amount"])
	require.Equal(t, "food", body["category"])

	resp, raw := ts.doRaw(http.MethodGet, "/transactions/all", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var txns []budget.Transaction
	require.NoError(t, json.Unmarshal(raw, &txns))
	require.Len(t, txns, 1)
	require.True(t, txns[0].OccurredAt.Equal(occurred))

	resp, _ = ts.do(http.MethodDelete, "/transactions/delete/"+id, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, mustListTransactions(ts, token))
}

func mustListTransactions(ts *testServer, token string) []budget.Transaction {
	ts.t.Helper()
	resp, raw := ts.doRaw(http.MethodGet, "/transactions/all", token, nil)
	require.Equal(ts.t, http.StatusOK, resp.StatusCode)
	var txns []budget.Transaction
	require.NoError(ts.t, json.Unmarshal(raw, &txns))
	return txns
}

func TestTransactionValidation(t *testing.T) {
	ts := newTestServer(t)
	token := ts.obtainToken("vera")

	resp, body := ts.do(http.MethodPost, "/transactions/new", token, map[string]any{
		"kind": "borrow", "amount": 100, "category": "misc",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotEmpty(t, body["fields"])

	resp, _ = ts.do(http.MethodPost, "/transactions/new", token, map[string]any{
		"kind": "income", "amount": 0, "category": "salary",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTransactionUpdateRevalidatesMergedState(t *testing.T) {
	ts := newTestServer(t)
	token := ts.obtainToken("wes")

	_, body := ts.do(http.MethodPost, "/transactions/new", token, map[string]any{
		"kind": "income", "amount": 5000, "category": "salary",
	})
	id := body["id"].(string)

	// Patching a single field must not let the merged record go invalid.
	resp, _ := ts.do(http.MethodPut, "/transactions/edit/"+id, token, map[string]any{
		"kind": "loan",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTransactionOwnership(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.obtainToken("xena")
	intruder := ts.obtainToken("yuri")

	_, body := ts.do(http.MethodPost, "/transactions/new", owner, map[string]any{
		"kind": "expense", "amount": 999, "category": "rent",
	})
	id := body["id"].(string)

	resp, _ := ts.do(http.MethodDelete, "/transactions/delete/"+id, intruder, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	require.Len(t, mustListTransactions(ts, owner), 1)
}

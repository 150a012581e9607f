package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"budgetwise.org/internal/budget"
)

func TestNoteLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := ts.obtainToken("quinn")

	resp, body := ts.do(http.MethodPost, "/notes/new", token, map[string]any{
		"title": "groceries",
		"body":  "milk, eggs",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := body["id"].(string)

	resp, body = ts.do(http.MethodPut, "/notes/edit/"+id, token, map[string]any{
		"body": "milk, eggs, coffee",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "groceries", body["title"])
	require.Equal(t, "milk, eggs, coffee", body["body"])

	resp, raw := ts.doRaw(http.MethodGet, "/notes/all", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var notes []budget.Note
	require.NoError(t, json.Unmarshal(raw, &notes))
	require.Len(t, notes, 1)

	resp, _ = ts.do(http.MethodDelete, "/notes/delete/"+id, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(http.MethodGet, "/notes/"+id, token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNoteValidation(t *testing.T) {
	ts := newTestServer(t)
	token := ts.obtainToken("rita")
	resp, _ := ts.do(http.MethodPost, "/notes/new", token, map[string]any{"title": ""})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNoteOwnership(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.obtainToken("sara")
	intruder := ts.obtainToken("tom")

	_, body := ts.do(http.MethodPost, "/notes/new", owner, map[string]any{"title": "private"})
	id := body["id"].(string)

	resp, _ := ts.do(http.MethodGet, "/notes/"+id, intruder, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

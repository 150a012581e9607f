package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"budgetwise.org/internal/budget"
	"budgetwise.org/internal/ids"
	"budgetwise.org/internal/obs"
)

func (a *API) handleNotes(w http.ResponseWriter, r *http.Request) {
	user, ok := a.actingUser(w, r)
	if !ok {
		return
	}
	action, id := splitResourcePath(r.URL.Path, "/notes/")
	switch {
	case action == "all" && id == "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.listNotes(w, r, user)
	case action == "new" && id == "":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.createNote(w, r, user)
	case action == "" && id != "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getNote(w, r, user, id)
	case action == "edit" && id != "":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		a.updateNote(w, r, user, id)
	case action == "delete" && id != "":
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		a.deleteNote(w, r, user, id)
	default:
		writeError(w, r, http.StatusNotFound, "not found")
	}
}

func (a *API) listNotes(w http.ResponseWriter, r *http.Request, user *budget.User) {
	if payload, hit, err := a.listings.Get(r.Context(), budget.ResourceNotes, user.ID); err == nil && hit {
		writeRaw(w, http.StatusOK, payload)
		return
	}
	notes, err := a.store.Notes().ListByOwner(r.Context(), user.ID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	payload, err := json.Marshal(notes)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if err := a.listings.Set(r.Context(), budget.ResourceNotes, user.ID, payload); err != nil {
		obs.LogRequest(map[string]any{
			"level": "warn", "msg": "cache_set_failed",
			"resource": budget.ResourceNotes, "error": err.Error(),
		})
	}
	writeRaw(w, http.StatusOK, payload)
}

type noteRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (a *API) createNote(w http.ResponseWriter, r *http.Request, user *budget.User) {
	var req noteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := budget.ValidateNote(req.Title, req.Body); err != nil {
		handleStoreError(w, r, err)
		return
	}
	note := &budget.Note{
		ID:     ids.New(),
		UserID: user.ID,
		Title:  req.Title,
		Body:   req.Body,
	}
	if err := a.store.Notes().Create(r.Context(), note); err != nil {
		handleStoreError(w, r, err)
		return
	}
	a.invalidateListing(r, budget.ResourceNotes, user.ID)
	writeJSON(w, http.StatusCreated, note)
}

func (a *API) fetchOwnedNote(w http.ResponseWriter, r *http.Request, user *budget.User, id string) (*budget.Note, bool) {
	note, err := a.store.Notes().Find(r.Context(), id)
	if err != nil {
		if errors.Is(err, budget.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "note not found")
			return nil, false
		}
		handleStoreError(w, r, err)
		return nil, false
	}
	if note.UserID != user.ID {
		writeError(w, r, http.StatusForbidden, "not your note")
		return nil, false
	}
	return note, true
}

func (a *API) getNote(w http.ResponseWriter, r *http.Request, user *budget.User, id string) {
	note, ok := a.fetchOwnedNote(w, r, user, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, note)
}

type noteUpdateRequest struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
}

func (a *API) updateNote(w http.ResponseWriter, r *http.Request, user *budget.User, id string) {
	note, ok := a.fetchOwnedNote(w, r, user, id)
	if !ok {
		return
	}
	var req noteUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Title == nil && req.Body == nil {
		writeError(w, r, http.StatusBadRequest, "no fields to update")
		return
	}
	title, body := note.Title, note.Body
	if req.Title != nil {
		title = *req.Title
	}
	if req.Body != nil {
		body = *req.Body
	}
	if err := budget.ValidateNote(title, body); err != nil {
		handleStoreError(w, r, err)
		return
	}
	updated, err := a.store.Notes().Update(r.Context(), id, budget.NoteUpdate{
		Title: req.Title,
		Body:  req.Body,
	})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	a.invalidateListing(r, budget.ResourceNotes, note.UserID)
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteNote(w http.ResponseWriter, r *http.Request, user *budget.User, id string) {
	note, ok := a.fetchOwnedNote(w, r, user, id)
	if !ok {
		return
	}
	if err := a.store.Notes().Delete(r.Context(), id); err != nil {
		handleStoreError(w, r, err)
		return
	}
	a.invalidateListing(r, budget.ResourceNotes, note.UserID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "note deleted"})
}

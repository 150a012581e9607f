package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"budgetwise.org/internal/budget"
	"budgetwise.org/internal/ids"
	"budgetwise.org/internal/obs"
)

func (a *API) handleTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := a.actingUser(w, r)
	if !ok {
		return
	}
	action, id := splitResourcePath(r.URL.Path, "/transactions/")
	switch {
	case action == "all" && id == "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.listTransactions(w, r, user)
	case action == "new" && id == "":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.createTransaction(w, r, user)
	case action == "" && id != "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getTransaction(w, r, user, id)
	case action == "edit" && id != "":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		a.updateTransaction(w, r, user, id)
	case action == "delete" && id != "":
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		a.deleteTransaction(w, r, user, id)
	default:
		writeError(w, r, http.StatusNotFound, "not found")
	}
}

func (a *API) listTransactions(w http.ResponseWriter, r *http.Request, user *budget.User) {
	if payload, hit, err := a.listings.Get(r.Context(), budget.ResourceTransactions, user.ID); err == nil && hit {
		writeRaw(w, http.StatusOK, payload)
		return
	}
	txns, err := a.store.Transactions().ListByOwner(r.Context(), user.ID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	payload, err := json.Marshal(txns)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if err := a.listings.Set(r.Context(), budget.ResourceTransactions, user.ID, payload); err != nil {
		obs.LogRequest(map[string]any{
			"level": "warn", "msg": "cache_set_failed",
			"resource": budget.ResourceTransactions, "error": err.Error(),
		})
	}
	writeRaw(w, http.StatusOK, payload)
}

type transactionRequest struct {
	Kind        string     `json:"kind"`
	Amount      int64      `json:"amount"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	OccurredAt  *time.Time `json:"occurred_at"`
}

func (a *API) createTransaction(w http.ResponseWriter, r *http.Request, user *budget.User) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := budget.ValidateTransaction(req.Kind, req.Amount, req.Category); err != nil {
		handleStoreError(w, r, err)
		return
	}
	txn := &budget.Transaction{
		ID:          ids.New(),
		UserID:      user.ID,
		Kind:        req.Kind,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
	}
	if req.OccurredAt != nil {
		txn.OccurredAt = *req.OccurredAt
	}
	if err := a.store.Transactions().Create(r.Context(), txn); err != nil {
		handleStoreError(w, r, err)
		return
	}
	a.invalidateListing(r, budget.ResourceTransactions, user.ID)
	writeJSON(w, http.StatusCreated, txn)
}

func (a *API) fetchOwnedTransaction(w http.ResponseWriter, r *http.Request, user *budget.User, id string) (*budget.Transaction, bool) {
	txn, err := a.store.Transactions().Find(r.Context(), id)
	if err != nil {
		if errors.Is(err, budget.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "transaction not found")
			return nil, false
		}
		handleStoreError(w, r, err)
		return nil, false
	}
	if txn.UserID != user.ID {
		writeError(w, r, http.StatusForbidden, "not your transaction")
		return nil, false
	}
	return txn, true
}

func (a *API) getTransaction(w http.ResponseWriter, r *http.Request, user *budget.User, id string) {
	txn, ok := a.fetchOwnedTransaction(w, r, user, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

type transactionUpdateRequest struct {
	Kind        *string    `json:"kind"`
	Amount      *int64     `json:"amount"`
	Category    *string    `json:"category"`
	Description *string    `json:"description"`
	OccurredAt  *time.Time `json:"occurred_at"`
}

func (a *API) updateTransaction(w http.ResponseWriter, r *http.Request, user *budget.User, id string) {
	txn, ok := a.fetchOwnedTransaction(w, r, user, id)
	if !ok {
		return
	}
	var req transactionUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Kind == nil && req.Amount == nil && req.Category == nil &&
		req.Description == nil && req.OccurredAt == nil {
		writeError(w, r, http.StatusBadRequest, "no fields to update")
		return
	}
	kind, amount, category := txn.Kind, txn.Amount, txn.Category
	if req.Kind != nil {
		kind = *req.Kind
	}
	if req.Amount != nil {
		amount = *req.Amount
	}
	if req.Category != nil {
		category = *req.Category
	}
	if err := budget.ValidateTransaction(kind, amount, category); err != nil {
		handleStoreError(w, r, err)
		return
	}
	updated, err := a.store.Transactions().Update(r.Context(), id, budget.TransactionUpdate{
		Kind:        req.Kind,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		OccurredAt:  req.OccurredAt,
	})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	a.invalidateListing(r, budget.ResourceTransactions, txn.UserID)
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteTransaction(w http.ResponseWriter, r *http.Request, user *budget.User, id string) {
	txn, ok := a.fetchOwnedTransaction(w, r, user, id)
	if !ok {
		return
	}
	if err := a.store.Transactions().Delete(r.Context(), id); err != nil {
		handleStoreError(w, r, err)
		return
	}
	a.invalidateListing(r, budget.ResourceTransactions, txn.UserID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "transaction deleted"})
}

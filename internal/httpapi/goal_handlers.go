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

func (a *API) handleGoals(w http.ResponseWriter, r *http.Request) {
	user, ok := a.actingUser(w, r)
	if !ok {
		return
	}
	action, id := splitResourcePath(r.URL.Path, "/goals/")
	switch {
	case action == "all" && id == "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.listGoals(w, r, user)
	case action == "new" && id == "":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.createGoal(w, r, user)
	case action == "" && id != "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getGoal(w, r, user, id)
	case action == "edit" && id != "":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		a.updateGoal(w, r, user, id)
	case action == "complete" && id != "":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		a.completeGoal(w, r, user, id)
	case action == "delete" && id != "":
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		a.deleteGoal(w, r, user, id)
	default:
		writeError(w, r, http.StatusNotFound, "not found")
	}
}

// listGoals serves the owner's listing from cache when present and fills the
// cache on a miss. A dead cache degrades to a plain store read.
func (a *API) listGoals(w http.ResponseWriter, r *http.Request, user *budget.User) {
	if payload, hit, err := a.listings.Get(r.Context(), budget.ResourceGoals, user.ID); err == nil && hit {
		writeRaw(w, http.StatusOK, payload)
		return
	}
	goals, err := a.store.Goals().ListByOwner(r.Context(), user.ID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	payload, err := json.Marshal(goals)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if err := a.listings.Set(r.Context(), budget.ResourceGoals, user.ID, payload); err != nil {
		obs.LogRequest(map[string]any{
			"level": "warn", "msg": "cache_set_failed",
			"resource": budget.ResourceGoals, "error": err.Error(),
		})
	}
	writeRaw(w, http.StatusOK, payload)
}

type goalRequest struct {
	Name         string     `json:"name"`
	TargetAmount int64      `json:"target_amount"`
	SavedAmount  int64      `json:"saved_amount"`
	Deadline     *time.Time `json:"deadline"`
}

func (a *API) createGoal(w http.ResponseWriter, r *http.Request, user *budget.User) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := budget.ValidateGoal(req.Name, req.TargetAmount, req.SavedAmount, req.Deadline); err != nil {
		handleStoreError(w, r, err)
		return
	}
	goal := &budget.Goal{
		ID:           ids.New(),
		UserID:       user.ID,
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		SavedAmount:  req.SavedAmount,
		Deadline:     req.Deadline,
	}
	if err := a.store.Goals().Create(r.Context(), goal); err != nil {
		handleStoreError(w, r, err)
		return
	}
	a.invalidateListing(r, budget.ResourceGoals, user.ID)
	writeJSON(w, http.StatusCreated, goal)
}

// fetchOwnedGoal loads the goal and enforces ownership: an absent record is a
// 404, someone else's record a 403. The order means a foreign ID never leaks
// whether it exists.
func (a *API) fetchOwnedGoal(w http.ResponseWriter, r *http.Request, user *budget.User, id string) (*budget.Goal, bool) {
	goal, err := a.store.Goals().Find(r.Context(), id)
	if err != nil {
		if errors.Is(err, budget.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "goal not found")
			return nil, false
		}
		handleStoreError(w, r, err)
		return nil, false
	}
	if goal.UserID != user.ID {
		writeError(w, r, http.StatusForbidden, "not your goal")
		return nil, false
	}
	return goal, true
}

func (a *API) getGoal(w http.ResponseWriter, r *http.Request, user *budget.User, id string) {
	goal, ok := a.fetchOwnedGoal(w, r, user, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

type goalUpdateRequest struct {
	Name         *string    `json:"name"`
	TargetAmount *int64     `json:"target_amount"`
	SavedAmount  *int64     `json:"saved_amount"`
	Completed    *bool      `json:"completed"`
	Deadline     *time.Time `json:"deadline"`
}

func (a *API) updateGoal(w http.ResponseWriter, r *http.Request, user *budget.User, id string) {
	goal, ok := a.fetchOwnedGoal(w, r, user, id)
	if !ok {
		return
	}
	var req goalUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == nil && req.TargetAmount == nil && req.SavedAmount == nil &&
		req.Completed == nil && req.Deadline == nil {
		writeError(w, r, http.StatusBadRequest, "no fields to update")
		return
	}
	merged := applyGoalUpdate(goal, req)
	if err := budget.ValidateGoal(merged.Name, merged.TargetAmount, merged.SavedAmount, merged.Deadline); err != nil {
		handleStoreError(w, r, err)
		return
	}
	updated, err := a.store.Goals().Update(r.Context(), id, budget.GoalUpdate{
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		SavedAmount:  req.SavedAmount,
		Completed:    req.Completed,
		Deadline:     req.Deadline,
	})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	a.invalidateListing(r, budget.ResourceGoals, goal.UserID)
	writeJSON(w, http.StatusOK, updated)
}

// applyGoalUpdate merges a partial update onto the stored record so the whole
// resulting state can be validated, not just the changed fields.
func applyGoalUpdate(goal *budget.Goal, req goalUpdateRequest) budget.Goal {
	merged := *goal
	if req.Name != nil {
		merged.Name = *req.Name
	}
	if req.TargetAmount != nil {
		merged.TargetAmount = *req.TargetAmount
	}
	if req.SavedAmount != nil {
		merged.SavedAmount = *req.SavedAmount
	}
	if req.Completed != nil {
		merged.Completed = *req.Completed
	}
	if req.Deadline != nil {
		merged.Deadline = req.Deadline
	}
	return merged
}

func (a *API) completeGoal(w http.ResponseWriter, r *http.Request, user *budget.User, id string) {
	goal, ok := a.fetchOwnedGoal(w, r, user, id)
	if !ok {
		return
	}
	completed := true
	updated, err := a.store.Goals().Update(r.Context(), id, budget.GoalUpdate{Completed: &completed})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	a.invalidateListing(r, budget.ResourceGoals, goal.UserID)
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteGoal(w http.ResponseWriter, r *http.Request, user *budget.User, id string) {
	goal, ok := a.fetchOwnedGoal(w, r, user, id)
	if !ok {
		return
	}
	if err := a.store.Goals().Delete(r.Context(), id); err != nil {
		handleStoreError(w, r, err)
		return
	}
	a.invalidateListing(r, budget.ResourceGoals, goal.UserID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "goal deleted"})
}

// invalidateListing drops the owner's cached listing after a mutation. The key
// is always the mutated record's owner. Failure is logged, not surfaced; the
// entry still expires on its own TTL.
func (a *API) invalidateListing(r *http.Request, resource, ownerID string) {
	if err := a.listings.Invalidate(r.Context(), resource, ownerID); err != nil {
		obs.LogRequest(map[string]any{
			"level": "warn", "msg": "cache_invalidate_failed",
			"resource": resource, "error": err.Error(),
			"request_id": RequestIDFromContext(r.Context()),
		})
	}
}

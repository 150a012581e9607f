package budget

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"budgetwise.org/internal/ids"
)

// InMemory implements Store with in-process concurrency safety. The HTTP layer
// tests run against it; production uses the Postgres store.
type InMemory struct {
	mu    sync.RWMutex
	users map[string]*User // keyed by username
	goals map[string]*Goal
	notes map[string]*Note
	txs   map[string]*Transaction
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		users: make(map[string]*User),
		goals: make(map[string]*Goal),
		notes: make(map[string]*Note),
		txs:   make(map[string]*Transaction),
	}
}

func (s *InMemory) Users() UserStore               { return (*memUsers)(s) }
func (s *InMemory) Goals() GoalStore               { return (*memGoals)(s) }
func (s *InMemory) Notes() NoteStore               { return (*memNotes)(s) }
func (s *InMemory) Transactions() TransactionStore { return (*memTxs)(s) }

func (s *InMemory) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]*User)
	s.goals = make(map[string]*Goal)
	s.notes = make(map[string]*Note)
	s.txs = make(map[string]*Transaction)
	return nil
}

// Users ---------------------------------------------------------------------

type memUsers InMemory

func (s *memUsers) Create(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return ErrConflict
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrConflict
		}
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	s.users[u.Username] = &cp
	return nil
}

func (s *memUsers) FindByUsername(ctx context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memUsers) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memUsers) UpdateProfile(ctx context.Context, username string, upd ProfileUpdate) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	if upd.Currency != nil {
		u.Currency = *upd.Currency
	}
	if upd.Language != nil {
		u.Language = *upd.Language
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

func (s *memUsers) RecordLogin(ctx context.Context, username string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return ErrNotFound
	}
	u.LastLoginAt = &at
	u.UpdatedAt = at
	return nil
}

// Goals ---------------------------------------------------------------------

type memGoals InMemory

func (s *memGoals) Create(ctx context.Context, g *Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == "" {
		g.ID = ids.New()
	}
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	cp := *g
	s.goals[g.ID] = &cp
	return nil
}

func (s *memGoals) Find(ctx context.Context, id string) (*Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *memGoals) ListByOwner(ctx context.Context, userID string) ([]Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Goal, 0)
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memGoals) Update(ctx context.Context, id string, upd GoalUpdate) (*Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		g.Name = *upd.Name
	}
	if upd.TargetAmount != nil {
		g.TargetAmount = *upd.TargetAmount
	}
	if upd.SavedAmount != nil {
		g.SavedAmount = *upd.SavedAmount
	}
	if upd.Completed != nil {
		g.Completed = *upd.Completed
	}
	if upd.Deadline != nil {
		g.Deadline = upd.Deadline
	}
	g.UpdatedAt = time.Now().UTC()
	cp := *g
	return &cp, nil
}

func (s *memGoals) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[id]; !ok {
		return ErrNotFound
	}
	delete(s.goals, id)
	return nil
}

// Notes ---------------------------------------------------------------------

type memNotes InMemory

func (s *memNotes) Create(ctx context.Context, n *Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		n.ID = ids.New()
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	cp := *n
	s.notes[n.ID] = &cp
	return nil
}

func (s *memNotes) Find(ctx context.Context, id string) (*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (s *memNotes) ListByOwner(ctx context.Context, userID string) ([]Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Note, 0)
	for _, n := range s.notes {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memNotes) Update(ctx context.Context, id string, upd NoteUpdate) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Title != nil {
		n.Title = *upd.Title
	}
	if upd.Body != nil {
		n.Body = *upd.Body
	}
	n.UpdatedAt = time.Now().UTC()
	cp := *n
	return &cp, nil
}

func (s *memNotes) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[id]; !ok {
		return ErrNotFound
	}
	delete(s.notes, id)
	return nil
}

// Transactions --------------------------------------------------------------

type memTxs InMemory

func (s *memTxs) Create(ctx context.Context, tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.ID == "" {
		tx.ID = ids.New()
	}
	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = now
	}
	cp := *tx
	s.txs[tx.ID] = &cp
	return nil
}

func (s *memTxs) Find(ctx context.Context, id string) (*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.txs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (s *memTxs) ListByOwner(ctx context.Context, userID string) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Transaction, 0)
	for _, tx := range s.txs {
		if tx.UserID == userID {
			out = append(out, *tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memTxs) Update(ctx context.Context, id string, upd TransactionUpdate) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Kind != nil {
		tx.Kind = *upd.Kind
	}
	if upd.Amount != nil {
		tx.Amount = *upd.Amount
	}
	if upd.Category != nil {
		tx.Category = *upd.Category
	}
	if upd.Description != nil {
		tx.Description = *upd.Description
	}
	if upd.OccurredAt != nil {
		tx.OccurredAt = *upd.OccurredAt
	}
	tx.UpdatedAt = time.Now().UTC()
	cp := *tx
	return &cp, nil
}

func (s *memTxs) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[id]; !ok {
		return ErrNotFound
	}
	delete(s.txs, id)
	return nil
}

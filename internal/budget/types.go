package budget

import (
	"context"
	"errors"
	"time"
)

// Roles recognized by the role gate.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Transaction kinds.
const (
	KindIncome  = "income"
	KindExpense = "expense"
)

// Cache resource types, shared between routers and the listing cache.
const (
	ResourceGoals        = "goals"
	ResourceNotes        = "notes"
	ResourceTransactions = "transactions"
)

var (
	ErrNotFound = errors.New("budget: not found")
	ErrConflict = errors.New("budget: already exists")
)

// User is a registered account. The password hash never serializes.
type User struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Password    string     `json:"-"`
	Role        string     `json:"role"`
	Phone       string     `json:"phone,omitempty"`
	Currency    string     `json:"currency"`
	Verified    bool       `json:"verified"`
	Language    string     `json:"language"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Goal is a savings target owned by a single user. Amounts are minor units.
type Goal struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Name         string     `json:"name"`
	TargetAmount int64      `json:"target_amount"`
	SavedAmount  int64      `json:"saved_amount"`
	Completed    bool       `json:"completed"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Note is a free-form text record owned by a single user.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transaction is a single income or expense record. Amounts are minor units.
type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Kind        string    `json:"kind"`
	Amount      int64     `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileUpdate carries the mutable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Phone    *string
	Currency *string
	Language *string
}

// GoalUpdate carries the mutable goal fields. Nil means unchanged.
type GoalUpdate struct {
	Name         *string
	TargetAmount *int64
	SavedAmount  *int64
	Completed    *bool
	Deadline     *time.Time
}

// NoteUpdate carries the mutable note fields. Nil means unchanged.
type NoteUpdate struct {
	Title *string
	Body  *string
}

// TransactionUpdate carries the mutable transaction fields. Nil means unchanged.
type TransactionUpdate struct {
	Kind        *string
	Amount      *int64
	Category    *string
	Description *string
	OccurredAt  *time.Time
}

// Store bundles the persistence operations the routers need.
type Store interface {
	Users() UserStore
	Goals() GoalStore
	Notes() NoteStore
	Transactions() TransactionStore
	// Cleanup wipes every collection. Test environments only.
	Cleanup(ctx context.Context) error
}

// UserStore manages user records.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, username string, upd ProfileUpdate) (*User, error)
	RecordLogin(ctx context.Context, username string, at time.Time) error
}

// GoalStore manages savings goals.
type GoalStore interface {
	Create(ctx context.Context, g *Goal) error
	Find(ctx context.Context, id string) (*Goal, error)
	ListByOwner(ctx context.Context, userID string) ([]Goal, error)
	Update(ctx context.Context, id string, upd GoalUpdate) (*Goal, error)
	Delete(ctx context.Context, id string) error
}

// NoteStore manages notes.
type NoteStore interface {
	Create(ctx context.Context, n *Note) error
	Find(ctx context.Context, id string) (*Note, error)
	ListByOwner(ctx context.Context, userID string) ([]Note, error)
	Update(ctx context.Context, id string, upd NoteUpdate) (*Note, error)
	Delete(ctx context.Context, id string) error
}

// TransactionStore manages income/expense records.
type TransactionStore interface {
	Create(ctx context.Context, tx *Transaction) error
	Find(ctx context.Context, id string) (*Transaction, error)
	ListByOwner(ctx context.Context, userID string) ([]Transaction, error)
	Update(ctx context.Context, id string, upd TransactionUpdate) (*Transaction, error)
	Delete(ctx context.Context, id string) error
}

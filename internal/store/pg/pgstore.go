package pg

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"budgetwise.org/internal/budget"
)

// Store implements budget.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ budget.Store = (*Store)(nil)

// Open connects to PostgreSQL and tunes the pool.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// New wraps an existing connection, used by tests and the migrate command.
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Users() budget.UserStore               { return &userStore{db: s.db} }
func (s *Store) Goals() budget.GoalStore               { return &goalStore{db: s.db} }
func (s *Store) Notes() budget.NoteStore               { return &noteStore{db: s.db} }
func (s *Store) Transactions() budget.TransactionStore { return &txStore{db: s.db} }

// Cleanup truncates every collection. Wired to the maintenance endpoint and
// therefore never reachable unless test endpoints are enabled.
func (s *Store) Cleanup(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `truncate table transactions, notes, goals, users`)
	return err
}

package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"budgetwise.org/internal/budget"
	"budgetwise.org/internal/ids"
)

type userStore struct{ db *sql.DB }

const userColumns = `id, username, email, password_hash, role, phone, currency, verified, language, last_login_at, created_at, updated_at`

func (s *userStore) Create(ctx context.Context, u *budget.User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	if u.Role == "" {
		u.Role = budget.RoleUser
	}
	row := s.db.QueryRowContext(ctx, `
		insert into users(id, username, email, password_hash, role, phone, currency, verified, language)
		values($1,$2,$3,$4,$5,$6,$7,$8,$9)
		returning created_at, updated_at
	`, u.ID, u.Username, u.Email, u.Password, u.Role, u.Phone, u.Currency, u.Verified, u.Language)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return budget.ErrConflict
		}
		return err
	}
	return nil
}

func (s *userStore) FindByUsername(ctx context.Context, username string) (*budget.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where username=$1`, username)
	return scanUser(row)
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*budget.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where lower(email)=lower($1)`, email)
	return scanUser(row)
}

func (s *userStore) UpdateProfile(ctx context.Context, username string, upd budget.ProfileUpdate) (*budget.User, error) {
	row := s.db.QueryRowContext(ctx, `
		update users set
			phone      = coalesce($2, phone),
			currency   = coalesce($3, currency),
			language   = coalesce($4, language),
			updated_at = now()
		where username=$1
		returning `+userColumns,
		username, upd.Phone, upd.Currency, upd.Language)
	return scanUser(row)
}

func (s *userStore) RecordLogin(ctx context.Context, username string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`update users set last_login_at=$2, updated_at=$2 where username=$1`, username, at)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return budget.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*budget.User, error) {
	var (
		u         budget.User
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.Role, &u.Phone,
		&u.Currency, &u.Verified, &u.Language, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, budget.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

package pg

import (
	"context"
	"database/sql"
	"errors"

	"budgetwise.org/internal/budget"
	"budgetwise.org/internal/ids"
)

type noteStore struct{ db *sql.DB }

const noteColumns = `id, user_id, title, body, created_at, updated_at`

func (s *noteStore) Create(ctx context.Context, n *budget.Note) error {
	if n.ID == "" {
		n.ID = ids.New()
	}
	row := s.db.QueryRowContext(ctx, `
		insert into notes(id, user_id, title, body)
		values($1,$2,$3,$4)
		returning created_at, updated_at
	`, n.ID, n.UserID, n.Title, n.Body)
	return row.Scan(&n.CreatedAt, &n.UpdatedAt)
}

func (s *noteStore) Find(ctx context.Context, id string) (*budget.Note, error) {
	row := s.db.QueryRowContext(ctx, `select `+noteColumns+` from notes where id=$1`, id)
	return scanNote(row)
}

func (s *noteStore) ListByOwner(ctx context.Context, userID string) ([]budget.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+noteColumns+` from notes where user_id=$1 order by created_at asc, id asc`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]budget.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (s *noteStore) Update(ctx context.Context, id string, upd budget.NoteUpdate) (*budget.Note, error) {
	row := s.db.QueryRowContext(ctx, `
		update notes set
			title      = coalesce($2, title),
			body       = coalesce($3, body),
			updated_at = now()
		where id=$1
		returning `+noteColumns,
		id, upd.Title, upd.Body)
	return scanNote(row)
}

func (s *noteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from notes where id=$1`, id)
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

func scanNote(row rowScanner) (*budget.Note, error) {
	var n budget.Note
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, budget.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

package pg

import (
	"context"
	"database/sql"
	"errors"

	"budgetwise.org/internal/budget"
	"budgetwise.org/internal/ids"
)

type txStore struct{ db *sql.DB }

const txColumns = `id, user_id, kind, amount, category, description, occurred_at, created_at, updated_at`

func (s *txStore) Create(ctx context.Context, tx *budget.Transaction) error {
	if tx.ID == "" {
		tx.ID = ids.New()
	}
	if tx.OccurredAt.IsZero() {
		row := s.db.QueryRowContext(ctx, `
			insert into transactions(id, user_id, kind, amount, category, description)
			values($1,$2,$3,$4,$5,$6)
			returning occurred_at, created_at, updated_at
		`, tx.ID, tx.UserID, tx.Kind, tx.Amount, tx.Category, tx.Description)
		return row.Scan(&tx.OccurredAt, &tx.CreatedAt, &tx.UpdatedAt)
	}
	row := s.db.QueryRowContext(ctx, `
		insert into transactions(id, user_id, kind, amount, category, description, occurred_at)
		values($1,$2,$3,$4,$5,$6,$7)
		returning created_at, updated_at
	`, tx.ID, tx.UserID, tx.Kind, tx.Amount, tx.Category, tx.Description, tx.OccurredAt)
	return row.Scan(&tx.CreatedAt, &tx.UpdatedAt)
}

func (s *txStore) Find(ctx context.Context, id string) (*budget.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `select `+txColumns+` from transactions where id=$1`, id)
	return scanTx(row)
}

func (s *txStore) ListByOwner(ctx context.Context, userID string) ([]budget.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+txColumns+` from transactions where user_id=$1 order by occurred_at desc, id asc`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]budget.Transaction, 0)
	for rows.Next() {
		tx, err := scanTx(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *tx)
	}
	return out, rows.Err()
}

func (s *txStore) Update(ctx context.Context, id string, upd budget.TransactionUpdate) (*budget.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		update transactions set
			kind        = coalesce($2, kind),
			amount      = coalesce($3, amount),
			category    = coalesce($4, category),
			description = coalesce($5, description),
			occurred_at = coalesce($6, occurred_at),
			updated_at  = now()
		where id=$1
		returning `+txColumns,
		id, upd.Kind, upd.Amount, upd.Category, upd.Description, upd.OccurredAt)
	return scanTx(row)
}

func (s *txStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from transactions where id=$1`, id)
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

func scanTx(row rowScanner) (*budget.Transaction, error) {
	var tx budget.Transaction
	err := row.Scan(&tx.ID, &tx.UserID, &tx.Kind, &tx.Amount, &tx.Category,
		&tx.Description, &tx.OccurredAt, &tx.CreatedAt, &tx.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, budget.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

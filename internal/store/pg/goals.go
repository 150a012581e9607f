package pg

import (
	"context"
	"database/sql"
	"errors"

	"budgetwise.org/internal/budget"
	"budgetwise.org/internal/ids"
)

type goalStore struct{ db *sql.DB }

const goalColumns = `id, user_id, name, target_amount, saved_amount, completed, deadline, created_at, updated_at`

func (s *goalStore) Create(ctx context.Context, g *budget.Goal) error {
	if g.ID == "" {
		g.ID = ids.New()
	}
	row := s.db.QueryRowContext(ctx, `
		insert into goals(id, user_id, name, target_amount, saved_amount, completed, deadline)
		values($1,$2,$3,$4,$5,$6,$7)
		returning created_at, updated_at
	`, g.ID, g.UserID, g.Name, g.TargetAmount, g.SavedAmount, g.Completed, g.Deadline)
	return row.Scan(&g.CreatedAt, &g.UpdatedAt)
}

func (s *goalStore) Find(ctx context.Context, id string) (*budget.Goal, error) {
	row := s.db.QueryRowContext(ctx, `select `+goalColumns+` from goals where id=$1`, id)
	return scanGoal(row)
}

func (s *goalStore) ListByOwner(ctx context.Context, userID string) ([]budget.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+goalColumns+` from goals where user_id=$1 order by created_at asc, id asc`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]budget.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (s *goalStore) Update(ctx context.Context, id string, upd budget.GoalUpdate) (*budget.Goal, error) {
	row := s.db.QueryRowContext(ctx, `
		update goals set
			name          = coalesce($2, name),
			target_amount = coalesce($3, target_amount),
			saved_amount  = coalesce($4, saved_amount),
			completed     = coalesce($5, completed),
			deadline      = coalesce($6, deadline),
			updated_at    = now()
		where id=$1
		returning `+goalColumns,
		id, upd.Name, upd.TargetAmount, upd.SavedAmount, upd.Completed, upd.Deadline)
	return scanGoal(row)
}

func (s *goalStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from goals where id=$1`, id)
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

func scanGoal(row rowScanner) (*budget.Goal, error) {
	var (
		g        budget.Goal
		deadline sql.NullTime
	)
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.SavedAmount,
		&g.Completed, &deadline, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, budget.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if deadline.Valid {
		t := deadline.Time
		g.Deadline = &t
	}
	return &g, nil
}

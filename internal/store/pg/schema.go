package pg

import "context"

var schema = []string{
	`create table if not exists users (
		id            text primary key,
		username      text not null unique,
		email         text not null unique,
		password_hash text not null,
		role          text not null default 'user',
		phone         text not null default '',
		currency      text not null default 'USD',
		verified      boolean not null default false,
		language      text not null default 'en',
		last_login_at timestamptz,
		created_at    timestamptz not null default now(),
		updated_at    timestamptz not null default now()
	)`,
	`create table if not exists goals (
		id            text primary key,
		user_id       text not null references users(id),
		name          text not null,
		target_amount bigint not null,
		saved_amount  bigint not null default 0,
		completed     boolean not null default false,
		deadline      timestamptz,
		created_at    timestamptz not null default now(),
		updated_at    timestamptz not null default now()
	)`,
	`create index if not exists goals_user_idx on goals(user_id)`,
	`create table if not exists notes (
		id         text primary key,
		user_id    text not null references users(id),
		title      text not null,
		body       text not null default '',
		created_at timestamptz not null default now(),
		updated_at timestamptz not null default now()
	)`,
	`create index if not exists notes_user_idx on notes(user_id)`,
	`create table if not exists transactions (
		id          text primary key,
		user_id     text not null references users(id),
		kind        text not null,
		amount      bigint not null,
		category    text not null,
		description text not null default '',
		occurred_at timestamptz not null default now(),
		created_at  timestamptz not null default now(),
		updated_at  timestamptz not null default now()
	)`,
	`create index if not exists transactions_user_idx on transactions(user_id)`,
}

// Migrate applies the schema. Statements are idempotent, so repeated runs are
// safe.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

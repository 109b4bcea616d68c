package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied on startup. Every statement is idempotent, so restarts
// against an already-migrated database are safe.
//
// Ordering matters: users and events must exist before memberships, and
// categories before expenses, because of the foreign key constraints.
const schema = `
CREATE EXTENSION IF NOT EXISTS pgcrypto;

CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	password_hash TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS user_profiles (
	user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	slug TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS events (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	slug TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS memberships (
	event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	admin BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (event_id, user_id)
);

CREATE TABLE IF NOT EXISTS categories (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS expenses (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	category_id UUID REFERENCES categories(id) ON DELETE SET NULL,
	name TEXT NOT NULL,
	amount NUMERIC(12, 2) NOT NULL,
	portion_type TEXT NOT NULL,
	purchased_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS expense_payments (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	expense_id UUID NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	portion_type TEXT NOT NULL,
	portion NUMERIC(12, 2)
);

CREATE TABLE IF NOT EXISTS category_hints (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	pattern TEXT NOT NULL UNIQUE,
	category_name TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_memberships_user_id ON memberships(user_id);
CREATE INDEX IF NOT EXISTS idx_expenses_event_id ON expenses(event_id);
CREATE INDEX IF NOT EXISTS idx_expense_payments_expense_id ON expense_payments(expense_id);
CREATE INDEX IF NOT EXISTS idx_expense_payments_user_id ON expense_payments(user_id);
`

func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}

	return nil
}

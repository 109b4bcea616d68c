package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kittyapp/kitty/internal/user"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectUserColumns = `
	u.id, u.username, u.email, u.first_name, u.last_name, u.password_hash, u.created_at
`

func scanUser(s scanner) (*user.User, error) {
	var u user.User

	var firstName, lastName, passwordHash sql.NullString

	if err := s.Scan(
		&u.ID, &u.Username, &u.Email, &firstName, &lastName, &passwordHash, &u.CreatedAt,
	); err != nil {
		return nil, err
	}

	u.FirstName = firstName.String
	u.LastName = lastName.String
	u.PasswordHash = passwordHash.String

	return &u, nil
}

// CreateUser inserts the user and its profile atomically.
func (s *Store) CreateUser(ctx context.Context, u *user.User, p *user.Profile) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	userQuery := `
		INSERT INTO users (username, email, first_name, last_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NOW())
		RETURNING id, created_at
	`

	err = dbTx.QueryRowContext(ctx, userQuery,
		u.Username,
		u.Email,
		u.FirstName,
		u.LastName,
		u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "users_username_key" {
				return user.ErrUsernameTaken
			}

			return user.ErrEmailTaken
		}

		return fmt.Errorf("inserting user: %w", err)
	}

	profileQuery := `
		INSERT INTO user_profiles (user_id, slug)
		VALUES ($1, $2)
	`

	p.UserID = u.ID

	if _, err := dbTx.ExecContext(ctx, profileQuery, p.UserID, p.Slug); err != nil {
		return fmt.Errorf("inserting profile: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `SELECT ` + selectUserColumns + ` FROM users u WHERE u.id = $1`

	u, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound
		}

		return nil, fmt.Errorf("getting user: %w", err)
	}

	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + selectUserColumns + ` FROM users u WHERE u.email = $1`

	u, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound
		}

		return nil, fmt.Errorf("getting user by email: %w", err)
	}

	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users
		SET username = $1, first_name = $2, last_name = $3, password_hash = NULLIF($4, '')
		WHERE id = $5
	`

	_, err := s.db.ExecContext(ctx, query,
		u.Username,
		u.FirstName,
		u.LastName,
		u.PasswordHash,
		u.ID,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}

	return nil
}

// DeleteUser removes the user; profile, memberships and expense payments go
// with it via FK cascade.
func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	return nil
}

func (s *Store) ProfileSlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool

	query := `SELECT EXISTS (SELECT 1 FROM user_profiles WHERE slug = $1)`
	if err := s.db.QueryRowContext(ctx, query, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking profile slug: %w", err)
	}

	return exists, nil
}

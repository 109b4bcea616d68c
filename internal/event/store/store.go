package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kittyapp/kitty/internal/event"
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

const selectEventColumns = `e.id, e.name, e.description, e.slug, e.created_at`

func scanEvent(s scanner) (*event.Event, error) {
	var e event.Event

	if err := s.Scan(&e.ID, &e.Name, &e.Description, &e.Slug, &e.CreatedAt); err != nil {
		return nil, err
	}

	return &e, nil
}

// CreateEvent inserts the event plus the creator's admin membership in one
// transaction: either both rows persist or neither does.
func (s *Store) CreateEvent(ctx context.Context, e *event.Event, creatorID uuid.UUID) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	eventQuery := `
		INSERT INTO events (name, description, slug, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`

	err = dbTx.QueryRowContext(ctx, eventQuery, e.Name, e.Description, e.Slug).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}

	memberQuery := `
		INSERT INTO memberships (event_id, user_id, admin)
		VALUES ($1, $2, TRUE)
	`

	if _, err := dbTx.ExecContext(ctx, memberQuery, e.ID, creatorID); err != nil {
		return fmt.Errorf("inserting creator membership: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) EventByID(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	query := `SELECT ` + selectEventColumns + ` FROM events e WHERE e.id = $1`

	e, err := scanEvent(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrNotFound
		}

		return nil, fmt.Errorf("getting event: %w", err)
	}

	return e, nil
}

func (s *Store) EventBySlug(ctx context.Context, slug string) (*event.Event, error) {
	query := `SELECT ` + selectEventColumns + ` FROM events e WHERE e.slug = $1`

	e, err := scanEvent(s.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrNotFound
		}

		return nil, fmt.Errorf("getting event by slug: %w", err)
	}

	return e, nil
}

func (s *Store) ListEvents(ctx context.Context) ([]*event.Event, error) {
	query := `SELECT ` + selectEventColumns + ` FROM events e ORDER BY e.created_at DESC`

	return s.queryEvents(ctx, query)
}

func (s *Store) ListEventsForUser(ctx context.Context, userID uuid.UUID) ([]*event.Event, error) {
	query := `SELECT ` + selectEventColumns + `
		FROM events e
		JOIN memberships m ON m.event_id = e.id
		WHERE m.user_id = $1
		ORDER BY e.created_at DESC`

	return s.queryEvents(ctx, query, userID)
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]*event.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []*event.Event

	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}

		events = append(events, e)
	}

	return events, rows.Err()
}

// DeleteEvent removes the event; expenses, expense payments and memberships
// are removed by FK cascade.
func (s *Store) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return event.ErrNotFound
	}

	return nil
}

// AddMember is idempotent: re-attaching an existing member is a no-op.
func (s *Store) AddMember(ctx context.Context, eventID, userID uuid.UUID) error {
	query := `
		INSERT INTO memberships (event_id, user_id, admin)
		VALUES ($1, $2, FALSE)
		ON CONFLICT (event_id, user_id) DO NOTHING
	`

	if _, err := s.db.ExecContext(ctx, query, eventID, userID); err != nil {
		return fmt.Errorf("adding member: %w", err)
	}

	return nil
}

func (s *Store) Members(ctx context.Context, eventID uuid.UUID) ([]*user.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.created_at
		FROM users u
		JOIN memberships m ON m.user_id = u.id
		WHERE m.event_id = $1
		ORDER BY u.username ASC
	`

	rows, err := s.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	var members []*user.User

	for rows.Next() {
		var u user.User

		var firstName, lastName sql.NullString

		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &firstName, &lastName, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}

		u.FirstName = firstName.String
		u.LastName = lastName.String

		members = append(members, &u)
	}

	return members, rows.Err()
}

func (s *Store) IsMember(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	var exists bool

	query := `SELECT EXISTS (SELECT 1 FROM memberships WHERE event_id = $1 AND user_id = $2)`
	if err := s.db.QueryRowContext(ctx, query, eventID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking membership: %w", err)
	}

	return exists, nil
}

func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool

	query := `SELECT EXISTS (SELECT 1 FROM events WHERE slug = $1)`
	if err := s.db.QueryRowContext(ctx, query, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking slug: %w", err)
	}

	return exists, nil
}

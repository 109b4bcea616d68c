package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// FindHint returns the category learned for the closest matching pattern.
// Longer patterns are more specific and win; ties go to the most recently
// learned hint.
func (s *Store) FindHint(ctx context.Context, expenseName string) (string, error) {
	query := `
		SELECT category_name
		FROM category_hints
		WHERE $1 ILIKE '%' || pattern || '%'
		ORDER BY LENGTH(pattern) DESC, created_at DESC
		LIMIT 1
	`

	var categoryName string

	err := s.db.QueryRowContext(ctx, query, expenseName).Scan(&categoryName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}

		return "", fmt.Errorf("finding hint: %w", err)
	}

	return categoryName, nil
}

// CreateHint stores the pattern. Relearning an existing pattern replaces
// its category instead of stacking a second hint for the same text.
func (s *Store) CreateHint(ctx context.Context, pattern, categoryName string) error {
	query := `
		INSERT INTO category_hints (pattern, category_name, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (pattern) DO UPDATE
		SET category_name = EXCLUDED.category_name, created_at = NOW()
	`

	if _, err := s.db.ExecContext(ctx, query, pattern, categoryName); err != nil {
		return fmt.Errorf("creating hint: %w", err)
	}

	return nil
}

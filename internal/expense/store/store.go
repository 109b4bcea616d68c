package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kittyapp/kitty/internal/expense"
	"github.com/kittyapp/kitty/internal/portion"
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

const selectExpenseColumns = `
	x.id, x.event_id, x.category_id, c.name AS category_name,
	x.name, x.amount, x.portion_type, x.purchased_at
`

func scanExpense(s scanner) (*expense.Expense, error) {
	var e expense.Expense

	var typeStr string

	var categoryID *uuid.UUID

	var categoryName sql.NullString

	if err := s.Scan(
		&e.ID, &e.EventID, &categoryID, &categoryName,
		&e.Name, &e.Amount, &typeStr, &e.PurchasedAt,
	); err != nil {
		return nil, err
	}

	e.PortionType = portion.Type(typeStr)
	e.CategoryID = categoryID

	if categoryID != nil && categoryName.Valid {
		e.Category = &expense.Category{ID: *categoryID, Name: categoryName.String}
	}

	return &e, nil
}

func (s *Store) ExpenseByID(ctx context.Context, id uuid.UUID) (*expense.Expense, error) {
	query := `SELECT ` + selectExpenseColumns + `
		FROM expenses x
		LEFT JOIN categories c ON x.category_id = c.id
		WHERE x.id = $1`

	e, err := scanExpense(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, expense.ErrNotFound
		}

		return nil, fmt.Errorf("getting expense: %w", err)
	}

	if err := s.attachPayments(ctx, []*expense.Expense{e}); err != nil {
		return nil, err
	}

	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context, eventID uuid.UUID) ([]*expense.Expense, error) {
	query := `SELECT ` + selectExpenseColumns + `
		FROM expenses x
		LEFT JOIN categories c ON x.category_id = c.id
		WHERE x.event_id = $1
		ORDER BY x.purchased_at ASC`

	rows, err := s.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*expense.Expense

	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}

		expenses = append(expenses, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachPayments(ctx, expenses); err != nil {
		return nil, err
	}

	return expenses, nil
}

// attachPayments loads the payment sets for the given expenses in one query.
func (s *Store) attachPayments(ctx context.Context, expenses []*expense.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*expense.Expense, len(expenses))
	placeholders := make([]string, 0, len(expenses))
	args := make([]any, 0, len(expenses))

	for i, e := range expenses {
		byID[e.ID] = e
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, e.ID)
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.expense_id, p.user_id, u.username, p.portion_type, p.portion
		FROM expense_payments p
		JOIN users u ON u.id = p.user_id
		WHERE p.expense_id IN (%s)
		ORDER BY u.username ASC
	`, strings.Join(placeholders, ", "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p expense.Payment

		var typeStr string

		var declared decimal.NullDecimal

		if err := rows.Scan(&p.ID, &p.ExpenseID, &p.UserID, &p.Username, &typeStr, &declared); err != nil {
			return fmt.Errorf("scanning payment: %w", err)
		}

		p.PortionType = portion.Type(typeStr)
		if declared.Valid {
			p.Portion = &declared.Decimal
		}

		if e, ok := byID[p.ExpenseID]; ok {
			e.Payments = append(e.Payments, &p)
		}
	}

	return rows.Err()
}

// DeleteExpense removes the expense; its payments go with it via FK cascade.
func (s *Store) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return expense.ErrNotFound
	}

	return nil
}

func (s *Store) Categories(ctx context.Context) ([]*expense.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []*expense.Category

	for rows.Next() {
		var c expense.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}

		categories = append(categories, &c)
	}

	return categories, rows.Err()
}

func (s *Store) CategoryByID(ctx context.Context, id uuid.UUID) (*expense.Category, error) {
	var c expense.Category

	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, expense.ErrCategoryNotFound
		}

		return nil, fmt.Errorf("getting category: %w", err)
	}

	return &c, nil
}

func (s *Store) MemberUsernames(ctx context.Context, eventID uuid.UUID) ([]string, error) {
	query := `
		SELECT u.username
		FROM users u
		JOIN memberships m ON m.user_id = u.id
		WHERE m.event_id = $1
		ORDER BY u.username ASC
	`

	rows, err := s.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("listing member usernames: %w", err)
	}
	defer rows.Close()

	var usernames []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning username: %w", err)
		}

		usernames = append(usernames, name)
	}

	return usernames, rows.Err()
}

func (s *Store) SumExpenseAmounts(ctx context.Context, eventID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal

	query := `SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE event_id = $1`
	if err := s.db.QueryRowContext(ctx, query, eventID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("summing expenses: %w", err)
	}

	return total, nil
}

// BeginWrite opens the transaction covering one ledger write.
func (s *Store) BeginWrite(ctx context.Context) (expense.WriteTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return &writeTx{tx: dbTx}, nil
}

type writeTx struct {
	tx *sql.Tx
}

// GetOrCreateCategory resolves a category by exact name, creating it if
// missing. The unique constraint plus re-select closes the concurrent
// create race without duplicate rows.
func (t *writeTx) GetOrCreateCategory(ctx context.Context, name string) (*expense.Category, error) {
	insert := `
		INSERT INTO categories (name)
		VALUES ($1)
		ON CONFLICT (name) DO NOTHING
		RETURNING id
	`

	var c expense.Category

	c.Name = name

	err := t.tx.QueryRowContext(ctx, insert, name).Scan(&c.ID)
	if err == nil {
		return &c, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("inserting category: %w", err)
	}

	// Lost the race or the category already existed; fetch the winner.
	err = t.tx.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = $1`, name).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("selecting category: %w", err)
	}

	return &c, nil
}

func (t *writeTx) InsertExpense(ctx context.Context, e *expense.Expense) error {
	query := `
		INSERT INTO expenses (event_id, category_id, name, amount, portion_type, purchased_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
		RETURNING id, purchased_at
	`

	var purchasedAt sql.NullTime
	if !e.PurchasedAt.IsZero() {
		purchasedAt = sql.NullTime{Time: e.PurchasedAt, Valid: true}
	}

	err := t.tx.QueryRowContext(ctx, query,
		e.EventID,
		e.CategoryID,
		e.Name,
		e.Amount,
		string(e.PortionType),
		purchasedAt,
	).Scan(&e.ID, &e.PurchasedAt)
	if err != nil {
		return fmt.Errorf("inserting expense: %w", err)
	}

	return nil
}

func (t *writeTx) UpdateExpense(ctx context.Context, e *expense.Expense) error {
	query := `
		UPDATE expenses
		SET category_id = $1, name = $2, amount = $3, portion_type = $4
		WHERE id = $5
	`

	res, err := t.tx.ExecContext(ctx, query,
		e.CategoryID,
		e.Name,
		e.Amount,
		string(e.PortionType),
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating expense: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return expense.ErrNotFound
	}

	return nil
}

// ReplacePayments swaps the expense's payment set for the given one.
func (t *writeTx) ReplacePayments(ctx context.Context, expenseID uuid.UUID, payments []*expense.Payment) error {
	if _, err := t.tx.ExecContext(ctx,
		`DELETE FROM expense_payments WHERE expense_id = $1`, expenseID); err != nil {
		return fmt.Errorf("clearing payments: %w", err)
	}

	query := `
		INSERT INTO expense_payments (expense_id, user_id, portion_type, portion)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	for _, p := range payments {
		declared := decimal.NullDecimal{}
		if p.Portion != nil {
			declared = decimal.NullDecimal{Decimal: *p.Portion, Valid: true}
		}

		err := t.tx.QueryRowContext(ctx, query,
			expenseID,
			p.UserID,
			string(p.PortionType),
			declared,
		).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("inserting payment: %w", err)
		}
	}

	return nil
}

func (t *writeTx) Commit() error {
	return t.tx.Commit()
}

func (t *writeTx) Rollback() error {
	return t.tx.Rollback()
}

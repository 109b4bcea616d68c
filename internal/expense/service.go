package expense

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kittyapp/kitty/internal/portion"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=expense
type Repository interface {
	ExpenseByID(ctx context.Context, id uuid.UUID) (*Expense, error)
	ListExpenses(ctx context.Context, eventID uuid.UUID) ([]*Expense, error)
	DeleteExpense(ctx context.Context, id uuid.UUID) error

	Categories(ctx context.Context) ([]*Category, error)
	CategoryByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// MemberUsernames lists the usernames of every member of the event,
	// including members with no payments.
	MemberUsernames(ctx context.Context, eventID uuid.UUID) ([]string, error)
	SumExpenseAmounts(ctx context.Context, eventID uuid.UUID) (decimal.Decimal, error)

	BeginWrite(ctx context.Context) (WriteTx, error)
}

// WriteTx covers one ledger write: the expense, its category binding and its
// payment set persist together or not at all.
type WriteTx interface {
	GetOrCreateCategory(ctx context.Context, name string) (*Category, error)
	InsertExpense(ctx context.Context, e *Expense) error
	UpdateExpense(ctx context.Context, e *Expense) error
	ReplacePayments(ctx context.Context, expenseID uuid.UUID, payments []*Payment) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Share declares one responsible user and their portion of an expense.
type Share struct {
	UserID  uuid.UUID
	Portion *decimal.Decimal
}

type CreateParams struct {
	EventID     uuid.UUID
	Name        string
	Amount      decimal.Decimal
	PortionType portion.Type

	// NewCategoryName, when set, is resolved by lookup-or-create and
	// overrides CategoryID.
	CategoryID      *uuid.UUID
	NewCategoryName string

	// PurchasedAt is optional; the store stamps the current time when zero.
	PurchasedAt time.Time

	Shares []Share
}

// Create writes the expense together with one payment per share in a single
// transaction. The event binding comes from EventID, supplied by the
// caller's routing context.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Expense, error) {
	if err := validate(params.Name, params.Amount, params.PortionType, params.Shares); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginWrite(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin write: %w", err)
	}
	defer tx.Rollback()

	e := &Expense{
		EventID:     params.EventID,
		CategoryID:  params.CategoryID,
		Name:        params.Name,
		Amount:      params.Amount,
		PortionType: params.PortionType,
		PurchasedAt: params.PurchasedAt,
	}

	if err := s.bindCategory(ctx, tx, e, params.NewCategoryName); err != nil {
		return nil, err
	}

	if err := tx.InsertExpense(ctx, e); err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}

	e.Payments = paymentsFromShares(e, params.Shares)
	if err := tx.ReplacePayments(ctx, e.ID, e.Payments); err != nil {
		return nil, fmt.Errorf("insert payments: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit write: %w", err)
	}

	return e, nil
}

type UpdateParams struct {
	Name            string
	Amount          decimal.Decimal
	PortionType     portion.Type
	CategoryID      *uuid.UUID
	NewCategoryName string
	Shares          []Share
}

// Update replaces the expense's full field set and its payment set in one
// transaction. There is no partial patch; the event binding is immutable.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Expense, error) {
	if err := validate(params.Name, params.Amount, params.PortionType, params.Shares); err != nil {
		return nil, err
	}

	e, err := s.repo.ExpenseByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginWrite(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin write: %w", err)
	}
	defer tx.Rollback()

	e.Name = params.Name
	e.Amount = params.Amount
	e.PortionType = params.PortionType
	e.CategoryID = params.CategoryID
	e.Category = nil

	if err := s.bindCategory(ctx, tx, e, params.NewCategoryName); err != nil {
		return nil, err
	}

	if err := tx.UpdateExpense(ctx, e); err != nil {
		return nil, fmt.Errorf("update expense: %w", err)
	}

	e.Payments = paymentsFromShares(e, params.Shares)
	if err := tx.ReplacePayments(ctx, e.ID, e.Payments); err != nil {
		return nil, fmt.Errorf("replace payments: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit write: %w", err)
	}

	return e, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Expense, error) {
	return s.repo.ExpenseByID(ctx, id)
}

func (s *Service) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*Expense, error) {
	return s.repo.ListExpenses(ctx, eventID)
}

// Delete removes the expense; its payments go with it via FK cascade.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteExpense(ctx, id)
}

func (s *Service) Categories(ctx context.Context) ([]*Category, error) {
	return s.repo.Categories(ctx)
}

// EventBalances computes what each member of the event owes across all of
// the event's expenses. Every declared portion is normalized into a
// currency amount before summing, so amount- and percentage-type splits
// aggregate consistently. A member with no payments at all maps to nil:
// absence, not zero.
func (s *Service) EventBalances(ctx context.Context, eventID uuid.UUID) (map[string]*decimal.Decimal, error) {
	members, err := s.repo.MemberUsernames(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}

	expenses, err := s.repo.ListExpenses(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}

	balances := make(map[string]*decimal.Decimal, len(members))
	for _, m := range members {
		balances[m] = nil
	}

	for _, e := range expenses {
		for _, p := range e.Payments {
			prev, ok := balances[p.Username]
			if !ok {
				// Payments by users no longer in the event are not part
				// of the member balance table.
				continue
			}

			owed := p.Owed(e)
			if prev != nil {
				owed = prev.Add(owed)
			}

			balances[p.Username] = &owed
		}
	}

	return balances, nil
}

// TotalAmount is the unweighted sum of the event's expense amounts,
// independent of how they are split.
func (s *Service) TotalAmount(ctx context.Context, eventID uuid.UUID) (decimal.Decimal, error) {
	return s.repo.SumExpenseAmounts(ctx, eventID)
}

// bindCategory resolves the expense's category: a free-text new-category
// name wins over a separately selected existing category.
func (s *Service) bindCategory(ctx context.Context, tx WriteTx, e *Expense, newName string) error {
	name := strings.TrimSpace(newName)
	if name == "" {
		return nil
	}

	c, err := tx.GetOrCreateCategory(ctx, name)
	if err != nil {
		return fmt.Errorf("resolving category %q: %w", name, err)
	}

	e.CategoryID = &c.ID
	e.Category = c

	return nil
}

func paymentsFromShares(e *Expense, shares []Share) []*Payment {
	payments := make([]*Payment, len(shares))
	for i, sh := range shares {
		payments[i] = &Payment{
			ExpenseID:   e.ID,
			UserID:      sh.UserID,
			PortionType: e.PortionType,
			Portion:     sh.Portion,
		}
	}

	return payments
}

func validate(name string, amount decimal.Decimal, typ portion.Type, shares []Share) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}

	if !amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}

	if amount.Exponent() < -2 {
		return &ValidationError{Field: "amount", Reason: "at most 2 decimal places"}
	}

	if !typ.Valid() {
		return &ValidationError{Field: "portion_type", Reason: "must be amount or percentage"}
	}

	if len(shares) == 0 {
		return &ValidationError{Field: "shares", Reason: "at least one responsible user required"}
	}

	return nil
}

package export

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kittyapp/kitty/internal/expense"
	"github.com/kittyapp/kitty/internal/portion"
)

// Mock Ledger
type mockLedger struct {
	listFunc     func(ctx context.Context, eventID uuid.UUID) ([]*expense.Expense, error)
	balancesFunc func(ctx context.Context, eventID uuid.UUID) (map[string]*decimal.Decimal, error)
	totalFunc    func(ctx context.Context, eventID uuid.UUID) (decimal.Decimal, error)
}

func (m *mockLedger) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*expense.Expense, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, eventID)
	}

	return nil, nil
}

func (m *mockLedger) EventBalances(ctx context.Context, eventID uuid.UUID) (map[string]*decimal.Decimal, error) {
	if m.balancesFunc != nil {
		return m.balancesFunc(ctx, eventID)
	}

	return nil, nil
}

func (m *mockLedger) TotalAmount(ctx context.Context, eventID uuid.UUID) (decimal.Decimal, error) {
	if m.totalFunc != nil {
		return m.totalFunc(ctx, eventID)
	}

	return decimal.Zero, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestService_WriteCSV(t *testing.T) {
	eventID := uuid.New()
	date := time.Date(2026, 7, 12, 0, 0, 0, 0, time.UTC)

	split := dec("50.00")
	half := dec("50")

	dinner := &expense.Expense{
		ID:          uuid.New(),
		EventID:     eventID,
		Category:    &expense.Category{ID: uuid.New(), Name: "Food"},
		Name:        "Dinner",
		Amount:      dec("100.00"),
		PortionType: portion.TypePercentage,
		PurchasedAt: date,
	}
	dinner.Payments = []*expense.Payment{
		{ID: uuid.New(), ExpenseID: dinner.ID, Username: "alice", PortionType: portion.TypePercentage, Portion: &half},
		{ID: uuid.New(), ExpenseID: dinner.ID, Username: "bob", PortionType: portion.TypeAmount, Portion: &split},
	}

	unsplit := &expense.Expense{
		ID:          uuid.New(),
		EventID:     eventID,
		Name:        "Taxi",
		Amount:      dec("18.00"),
		PortionType: portion.TypeAmount,
		PurchasedAt: date,
	}

	ledger := &mockLedger{
		listFunc: func(ctx context.Context, id uuid.UUID) ([]*expense.Expense, error) {
			if id != eventID {
				t.Fatalf("unexpected event id %s", id)
			}

			return []*expense.Expense{dinner, unsplit}, nil
		},
	}

	var buf bytes.Buffer
	if err := NewService(ledger).WriteCSV(context.Background(), eventID, &buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines:\n%s", len(lines), buf.String())
	}

	if lines[0] != "date,expense,category,amount,split,member,portion,owed" {
		t.Errorf("unexpected header: %s", lines[0])
	}

	// Percentage payment resolves against the expense total.
	if lines[1] != "2026-07-12,Dinner,Food,100.00,percentage,alice,50.00,50.00" {
		t.Errorf("unexpected alice row: %s", lines[1])
	}

	// Per-payment portion type governs, not the expense's.
	if lines[2] != "2026-07-12,Dinner,Food,100.00,percentage,bob,50.00,50.00" {
		t.Errorf("unexpected bob row: %s", lines[2])
	}

	if lines[3] != "2026-07-12,Taxi,,18.00,amount,,," {
		t.Errorf("unexpected unsplit row: %s", lines[3])
	}
}

func TestService_Summary(t *testing.T) {
	eventID := uuid.New()
	owed := dec("45.50")

	ledger := &mockLedger{
		balancesFunc: func(ctx context.Context, id uuid.UUID) (map[string]*decimal.Decimal, error) {
			return map[string]*decimal.Decimal{
				"bob":   &owed,
				"alice": nil,
			}, nil
		},
		totalFunc: func(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
			return dec("45.50"), nil
		},
	}

	got, err := NewService(ledger).Summary(context.Background(), eventID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	want := "* alice | -\n* bob | 45.50\nTotal | 45.50\n"
	if got != want {
		t.Errorf("unexpected summary:\ngot:  %q\nwant: %q", got, want)
	}
}

package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kittyapp/kitty/internal/expense"
)

// Ledger is the slice of the expense service the exporter needs.
type Ledger interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*expense.Expense, error)
	EventBalances(ctx context.Context, eventID uuid.UUID) (map[string]*decimal.Decimal, error)
	TotalAmount(ctx context.Context, eventID uuid.UUID) (decimal.Decimal, error)
}

// Service writes an event's ledger out as CSV, one row per payment so the
// file can be filtered by member in a spreadsheet.
type Service struct {
	ledger Ledger
}

func NewService(ledger Ledger) *Service {
	return &Service{ledger: ledger}
}

var csvHeader = []string{"date", "expense", "category", "amount", "split", "member", "portion", "owed"}

// WriteCSV streams the event's expenses to w. Expenses without payments
// still get a row, with the member columns empty.
func (s *Service) WriteCSV(ctx context.Context, eventID uuid.UUID, w io.Writer) error {
	expenses, err := s.ledger.ListByEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("listing expenses: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, x := range expenses {
		category := ""
		if x.Category != nil {
			category = x.Category.Name
		}

		base := []string{
			x.PurchasedAt.Format("2006-01-02"),
			x.Name,
			category,
			x.Amount.StringFixed(2),
			string(x.PortionType),
		}

		if len(x.Payments) == 0 {
			if err := cw.Write(append(base, "", "", "")); err != nil {
				return fmt.Errorf("writing row: %w", err)
			}

			continue
		}

		for _, p := range x.Payments {
			declared := ""
			if p.Portion != nil {
				declared = p.Portion.StringFixed(2)
			}

			row := append(base[:5:5], p.Username, declared, p.Owed(x).StringFixed(2))
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("writing row: %w", err)
			}
		}
	}

	cw.Flush()

	return cw.Error()
}

// Summary renders a plain-text balance overview, one line per member.
// Members with no payments show a dash instead of an amount.
func (s *Service) Summary(ctx context.Context, eventID uuid.UUID) (string, error) {
	balances, err := s.ledger.EventBalances(ctx, eventID)
	if err != nil {
		return "", fmt.Errorf("aggregating balances: %w", err)
	}

	total, err := s.ledger.TotalAmount(ctx, eventID)
	if err != nil {
		return "", fmt.Errorf("summing expenses: %w", err)
	}

	usernames := make([]string, 0, len(balances))
	for username := range balances {
		usernames = append(usernames, username)
	}

	sort.Strings(usernames)

	var sb strings.Builder

	for _, username := range usernames {
		owed := "-"
		if b := balances[username]; b != nil {
			owed = b.StringFixed(2)
		}

		sb.WriteString(fmt.Sprintf("* %s | %s\n", username, owed))
	}

	sb.WriteString(fmt.Sprintf("Total | %s\n", total.StringFixed(2)))

	return sb.String(), nil
}

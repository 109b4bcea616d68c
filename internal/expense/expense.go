package expense

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kittyapp/kitty/internal/portion"
)

var (
	ErrNotFound         = errors.New("expense not found")
	ErrCategoryNotFound = errors.New("category not found")
)

// ValidationError reports a missing or malformed required field. The write
// is aborted as a whole; nothing is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// Category is a label shared across all events. Names are unique; the store
// resolves concurrent get-or-create races against the constraint.
type Category struct {
	ID   uuid.UUID
	Name string
}

// Expense is a cost incurred within exactly one event, split among the
// users in Payments. The event binding is set from the caller's routing
// context and never from editable form fields.
type Expense struct {
	ID          uuid.UUID
	EventID     uuid.UUID
	CategoryID  *uuid.UUID
	Category    *Category // Loaded via JOIN
	Name        string
	Amount      decimal.Decimal
	PortionType portion.Type
	PurchasedAt time.Time
	Payments    []*Payment
}

// Payment is one user's declared share of an expense. PortionType is stored
// per payment, mirrored from the expense at write time. Portion is the
// declared value (amount or percentage) and may be absent; the owed amount
// is always derived on read, never cached.
type Payment struct {
	ID          uuid.UUID
	ExpenseID   uuid.UUID
	UserID      uuid.UUID
	Username    string // Loaded via JOIN
	PortionType portion.Type
	Portion     *decimal.Decimal
}

// ImportEntry is one expense parsed out of an uploaded sheet, before it is
// bound to an event and split among members.
type ImportEntry struct {
	Name        string
	Amount      decimal.Decimal
	Category    string
	PurchasedAt time.Time
}

// Owed resolves the payment's declared portion into the actual owed amount
// against the parent expense's total.
func (p *Payment) Owed(e *Expense) decimal.Decimal {
	if p.Portion == nil {
		return decimal.Zero
	}

	return portion.Resolve(e.Amount, p.PortionType, *p.Portion)
}

package expense

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kittyapp/kitty/internal/expense"
	"github.com/kittyapp/kitty/internal/portion"
)

type categoryResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type paymentResponse struct {
	ID          uuid.UUID        `json:"id"`
	UserID      uuid.UUID        `json:"user_id"`
	Username    string           `json:"username"`
	PortionType portion.Type     `json:"portion_type"`
	Portion     *decimal.Decimal `json:"portion"`
	Owed        decimal.Decimal  `json:"owed"`
}

type expenseResponse struct {
	ID          uuid.UUID         `json:"id"`
	EventID     uuid.UUID         `json:"event_id"`
	Category    *categoryResponse `json:"category,omitempty"`
	Name        string            `json:"name"`
	Amount      decimal.Decimal   `json:"amount"`
	PortionType portion.Type      `json:"portion_type"`
	PurchasedAt time.Time         `json:"purchased_at"`
	Payments    []paymentResponse `json:"payments"`
}

func toResponse(e *expense.Expense) expenseResponse {
	resp := expenseResponse{
		ID:          e.ID,
		EventID:     e.EventID,
		Name:        e.Name,
		Amount:      e.Amount,
		PortionType: e.PortionType,
		PurchasedAt: e.PurchasedAt,
		Payments:    make([]paymentResponse, 0, len(e.Payments)),
	}

	if e.Category != nil {
		resp.Category = &categoryResponse{ID: e.Category.ID, Name: e.Category.Name}
	}

	for _, p := range e.Payments {
		resp.Payments = append(resp.Payments, paymentResponse{
			ID:          p.ID,
			UserID:      p.UserID,
			Username:    p.Username,
			PortionType: p.PortionType,
			Portion:     p.Portion,
			Owed:        p.Owed(e),
		})
	}

	return resp
}

func toResponseList(expenses []*expense.Expense) []expenseResponse {
	resp := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		resp[i] = toResponse(e)
	}

	return resp
}

package expense

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kittyapp/kitty/internal/event"
	"github.com/kittyapp/kitty/internal/expense"
	"github.com/kittyapp/kitty/internal/http/middleware"
	"github.com/kittyapp/kitty/internal/portion"
)

// Handler serves the expense routes nested under an event slug. Every
// request re-checks that the caller is a member of the event.
type Handler struct {
	events   *event.Service
	expenses *expense.Service
}

func NewHandler(events *event.Service, expenses *expense.Service) *Handler {
	return &Handler{events: events, expenses: expenses}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type shareDTO struct {
	UserID  uuid.UUID        `json:"user_id"`
	Portion *decimal.Decimal `json:"portion"`
}

type expenseRequest struct {
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
	PortionType     portion.Type    `json:"portion_type"`
	CategoryID      *uuid.UUID      `json:"category_id,omitempty"`
	NewCategoryName string          `json:"new_category_name,omitempty"`
	Shares          []shareDTO      `json:"shares"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	e, ok := h.memberEvent(w, r)
	if !ok {
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	x, err := h.expenses.Create(r.Context(), expense.CreateParams{
		EventID:         e.ID,
		Name:            req.Name,
		Amount:          req.Amount,
		PortionType:     req.PortionType,
		CategoryID:      req.CategoryID,
		NewCategoryName: req.NewCategoryName,
		Shares:          toShares(req.Shares),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(x)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	e, ok := h.memberEvent(w, r)
	if !ok {
		return
	}

	expenses, err := h.expenses.ListByEvent(r.Context(), e.ID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(expenses)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	e, ok := h.memberEvent(w, r)
	if !ok {
		return
	}

	x, ok := h.eventExpense(w, r, e)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(x)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// update replaces the whole expense form: name, amount, portion type,
// category binding and the complete share set.
func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	e, ok := h.memberEvent(w, r)
	if !ok {
		return
	}

	x, ok := h.eventExpense(w, r, e)
	if !ok {
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.expenses.Update(r.Context(), x.ID, expense.UpdateParams{
		Name:            req.Name,
		Amount:          req.Amount,
		PortionType:     req.PortionType,
		CategoryID:      req.CategoryID,
		NewCategoryName: req.NewCategoryName,
		Shares:          toShares(req.Shares),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(updated)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	e, ok := h.memberEvent(w, r)
	if !ok {
		return
	}

	x, ok := h.eventExpense(w, r, e)
	if !ok {
		return
	}

	if err := h.expenses.Delete(r.Context(), x.ID); err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			http.Error(w, "expense not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) memberEvent(w http.ResponseWriter, r *http.Request) (*event.Event, bool) {
	e, err := h.events.BySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			http.Error(w, "event not found", http.StatusNotFound)
			return nil, false
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return nil, false
	}

	member, err := h.events.IsMember(r.Context(), e.ID, middleware.UserID(r.Context()))
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}

	if !member {
		http.Error(w, "event not found", http.StatusNotFound)
		return nil, false
	}

	return e, true
}

// eventExpense loads the expense from the id URL param and verifies it
// belongs to the given event, so an expense cannot be reached through
// another event's slug.
func (h *Handler) eventExpense(w http.ResponseWriter, r *http.Request, e *event.Event) (*expense.Expense, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return nil, false
	}

	x, err := h.expenses.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			http.Error(w, "expense not found", http.StatusNotFound)
			return nil, false
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return nil, false
	}

	if x.EventID != e.ID {
		http.Error(w, "expense not found", http.StatusNotFound)
		return nil, false
	}

	return x, true
}

func toShares(dtos []shareDTO) []expense.Share {
	shares := make([]expense.Share, len(dtos))
	for i, s := range dtos {
		shares[i] = expense.Share{UserID: s.UserID, Portion: s.Portion}
	}

	return shares
}

func writeServiceError(w http.ResponseWriter, err error) {
	var verr *expense.ValidationError
	if errors.As(err, &verr) {
		http.Error(w, verr.Error(), http.StatusBadRequest)
		return
	}

	switch {
	case errors.Is(err, expense.ErrNotFound):
		http.Error(w, "expense not found", http.StatusNotFound)
	case errors.Is(err, expense.ErrCategoryNotFound):
		http.Error(w, "category not found", http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

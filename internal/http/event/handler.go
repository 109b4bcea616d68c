package event

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/kittyapp/kitty/internal/event"
	"github.com/kittyapp/kitty/internal/expense"
	"github.com/kittyapp/kitty/internal/export"
	"github.com/kittyapp/kitty/internal/http/middleware"
)

type Handler struct {
	events   *event.Service
	expenses *expense.Service
	exporter *export.Service
}

func NewHandler(events *event.Service, expenses *expense.Service, exporter *export.Service) *Handler {
	return &Handler{events: events, expenses: expenses, exporter: exporter}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{slug}", h.get)
	r.Delete("/{slug}", h.delete)
	r.Post("/{slug}/members", h.addMembers)
	r.Get("/{slug}/balances", h.balances)
	r.Get("/{slug}/total", h.total)
	r.Get("/{slug}/export", h.export)
}

type createEventRequest struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	MemberEmails       string `json:"member_emails"`
	NewMemberFirstName string `json:"new_member_first_name"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	e, res, err := h.events.Create(r.Context(), event.CreateParams{
		Name:               req.Name,
		Description:        req.Description,
		CreatorID:          middleware.UserID(r.Context()),
		MemberEmails:       req.MemberEmails,
		NewMemberFirstName: req.NewMemberFirstName,
	})
	if err != nil {
		var verr *event.ValidationError
		if errors.As(err, &verr) {
			http.Error(w, verr.Error(), http.StatusBadRequest)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	resp := createEventResponse{
		Event:   toResponse(e),
		Members: toResolutionResponse(res),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListForUser(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(events)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	e, ok := h.memberEvent(w, r)
	if !ok {
		return
	}

	members, err := h.events.Members(r.Context(), e.ID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	resp := eventDetailResponse{
		Event:   toResponse(e),
		Members: toMemberResponseList(members),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	e, ok := h.memberEvent(w, r)
	if !ok {
		return
	}

	if err := h.events.Delete(r.Context(), e.ID); err != nil {
		if errors.Is(err, event.ErrNotFound) {
			http.Error(w, "event not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type addMembersRequest struct {
	Emails             string `json:"emails"`
	NewMemberFirstName string `json:"new_member_first_name"`
}

func (h *Handler) addMembers(w http.ResponseWriter, r *http.Request) {
	e, ok := h.memberEvent(w, r)
	if !ok {
		return
	}

	var req addMembersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.events.ResolveMembers(r.Context(), e.ID, req.Emails, req.NewMemberFirstName)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResolutionResponse(res)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type balancesResponse struct {
	Balances map[string]*decimal.Decimal `json:"balances"`
}

func (h *Handler) balances(w http.ResponseWriter, r *http.Request) {
	e, ok := h.memberEvent(w, r)
	if !ok {
		return
	}

	balances, err := h.expenses.EventBalances(r.Context(), e.ID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(balancesResponse{Balances: balances}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type totalResponse struct {
	Total decimal.Decimal `json:"total"`
}

func (h *Handler) total(w http.ResponseWriter, r *http.Request) {
	e, ok := h.memberEvent(w, r)
	if !ok {
		return
	}

	total, err := h.expenses.TotalAmount(r.Context(), e.ID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(totalResponse{Total: total}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// export streams the event's ledger as a CSV download.
func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	e, ok := h.memberEvent(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+e.Slug+`.csv"`)

	if err := h.exporter.WriteCSV(r.Context(), e.ID, w); err != nil {
		slog.Error("failed to write export", "event", e.Slug, "error", err)
	}
}

// memberEvent loads the event from the slug URL param and verifies the
// caller belongs to it. Non-members get a 404 rather than a 403 so event
// slugs are not probeable.
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

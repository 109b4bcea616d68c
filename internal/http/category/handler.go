package category

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kittyapp/kitty/internal/categorize"
	"github.com/kittyapp/kitty/internal/expense"
)

type Handler struct {
	expenses *expense.Service
	hints    *categorize.Service
}

func NewHandler(expenses *expense.Service, hints *categorize.Service) *Handler {
	return &Handler{expenses: expenses, hints: hints}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/suggest", h.suggest)
	r.Post("/hints", h.learn)
}

type categoryResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	categories, err := h.expenses.Categories(r.Context())
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, categoryResponse{ID: c.ID, Name: c.Name})
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type suggestResponse struct {
	Category string `json:"category"`
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "name query parameter is required", http.StatusBadRequest)
		return
	}

	category, err := h.hints.Suggest(r.Context(), name)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(suggestResponse{Category: category}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type learnRequest struct {
	Pattern  string `json:"pattern"`
	Category string `json:"category"`
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Pattern == "" || req.Category == "" {
		http.Error(w, "pattern and category are required", http.StatusBadRequest)
		return
	}

	if err := h.hints.Learn(r.Context(), req.Pattern, req.Category); err != nil {
		if errors.Is(err, categorize.ErrEmptyPattern) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package account

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kittyapp/kitty/internal/auth"
	"github.com/kittyapp/kitty/internal/http/middleware"
	"github.com/kittyapp/kitty/internal/user"
)

// Handler serves the authenticated caller's own account.
type Handler struct {
	users *user.Service
	authn *auth.Authenticator
}

func NewHandler(users *user.Service, authn *auth.Authenticator) *Handler {
	return &Handler{users: users, authn: authn}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.show)
	r.Put("/", h.update)
	r.Delete("/", h.delete)
	r.Put("/password", h.setPassword)
}

type accountResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.ByID(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.writeAccount(w, u)
}

type updateRequest struct {
	Username  *string `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	u, err := h.users.Update(r.Context(), middleware.UserID(r.Context()), user.UpdateParams{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUsernameTaken):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, user.ErrNotFound):
			http.Error(w, "account not found", http.StatusNotFound)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	h.writeAccount(w, u)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), middleware.UserID(r.Context())); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type setPasswordRequest struct {
	Password string `json:"password"`
}

func (h *Handler) setPassword(w http.ResponseWriter, r *http.Request) {
	var req setPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.authn.ChangePassword(r.Context(), middleware.UserID(r.Context()), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrWeakPassword):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, user.ErrNotFound):
			http.Error(w, "account not found", http.StatusNotFound)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeAccount(w http.ResponseWriter, u *user.User) {
	w.Header().Set("Content-Type", "application/json")

	resp := accountResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

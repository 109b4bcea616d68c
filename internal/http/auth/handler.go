package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kittyapp/kitty/internal/auth"
	"github.com/kittyapp/kitty/internal/user"
)

type Handler struct {
	authn *auth.Authenticator
	jwt   *auth.JWTManager
}

func NewHandler(authn *auth.Authenticator, jwt *auth.JWTManager) *Handler {
	return &Handler{authn: authn, jwt: jwt}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/claim", h.claim)
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
}

type tokenResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	u, err := h.authn.Register(r.Context(), auth.RegisterParams{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrWeakPassword):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, user.ErrEmailTaken), errors.Is(err, user.ErrUsernameTaken):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	h.writeToken(w, u, http.StatusCreated)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	u, err := h.authn.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	h.writeToken(w, u, http.StatusOK)
}

type claimRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// claim lets a member provisioned during event creation pick a password
// and receive a session, using the email the event admin attached.
func (h *Handler) claim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	u, err := h.authn.Claim(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrWeakPassword):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, auth.ErrAccountClaimed):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, user.ErrNotFound):
			http.Error(w, "account not found", http.StatusNotFound)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	h.writeToken(w, u, http.StatusOK)
}

func (h *Handler) writeToken(w http.ResponseWriter, u *user.User, status int) {
	token, err := h.jwt.Generate(u)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := tokenResponse{
		Token: token,
		User: userResponse{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

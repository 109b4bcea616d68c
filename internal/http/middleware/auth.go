package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kittyapp/kitty/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	userIDKey   contextKey = "user_id"
	usernameKey contextKey = "username"
)

// UserID extracts the authenticated user ID from the context.
// Returns the zero UUID if the request was not authenticated.
func UserID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(userIDKey).(uuid.UUID)
	return id
}

// Username extracts the authenticated username from the context.
func Username(ctx context.Context) string {
	name, _ := ctx.Value(usernameKey).(string)
	return name
}

// RequireAuth validates the bearer token on every request and stores the
// caller's identity in the request context.
func RequireAuth(jwt *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				http.Error(w, auth.ErrMissingToken.Error(), http.StatusUnauthorized)
				return
			}

			parts := strings.Split(header, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, auth.ErrInvalidToken.Error(), http.StatusUnauthorized)
				return
			}

			claims, err := jwt.Validate(parts[1])
			if err != nil {
				http.Error(w, auth.ErrInvalidToken.Error(), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			ctx = context.WithValue(ctx, usernameKey, claims.Username)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

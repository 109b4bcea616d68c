package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")
)

// User is an account known to the system. Members provisioned from a bare
// email address have an empty PasswordHash and cannot log in until a
// password is set.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile is the one-to-one extension of a User holding its URL slug,
// derived from the username.
type Profile struct {
	UserID uuid.UUID
	Slug   string
}

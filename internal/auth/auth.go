package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kittyapp/kitty/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrAccountClaimed     = errors.New("account already has a password")
)

const minPasswordLength = 8

// Directory is the slice of the user service the authenticator needs.
type Directory interface {
	Create(ctx context.Context, params user.CreateParams) (*user.User, error)
	ByEmail(ctx context.Context, email string) (*user.User, error)
	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// Authenticator registers accounts and verifies credentials with bcrypt.
type Authenticator struct {
	users Directory
}

func NewAuthenticator(users Directory) *Authenticator {
	return &Authenticator{users: users}
}

type RegisterParams struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

func (a *Authenticator) Register(ctx context.Context, params RegisterParams) (*user.User, error) {
	if len(params.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	return a.users.Create(ctx, user.CreateParams{
		Username:     params.Username,
		Email:        params.Email,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		PasswordHash: string(hash),
	})
}

// Authenticate verifies the email and password. Provisioned members without
// a stored credential cannot log in.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	u, err := a.users.ByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// ChangePassword replaces the caller's credential.
func (a *Authenticator) ChangePassword(ctx context.Context, id uuid.UUID, password string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return a.users.SetPasswordHash(ctx, id, string(hash))
}

// Claim sets the first password on a provisioned account, turning it into
// one that can log in. Accounts that already hold a credential must not be
// claimable, or anyone knowing an email could take the account over.
func (a *Authenticator) Claim(ctx context.Context, email, password string) (*user.User, error) {
	u, err := a.users.ByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if u.PasswordHash != "" {
		return nil, ErrAccountClaimed
	}

	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	if err := a.users.SetPasswordHash(ctx, u.ID, string(hash)); err != nil {
		return nil, err
	}

	u.PasswordHash = string(hash)

	return u, nil
}

package user

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=user
type Repository interface {
	// CreateUser persists the user and its profile in one transaction.
	CreateUser(ctx context.Context, u *User, p *Profile) error
	UserByID(ctx context.Context, id uuid.UUID) (*User, error)
	UserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, u *User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error

	ProfileSlugExists(ctx context.Context, s string) (bool, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
}

// Create registers a full account. The caller supplies an already-hashed
// password; hashing lives in the auth package.
func (s *Service) Create(ctx context.Context, params CreateParams) (*User, error) {
	if existing, err := s.repo.UserByEmail(ctx, params.Email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	u := &User{
		Username:     params.Username,
		Email:        params.Email,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		PasswordHash: params.PasswordHash,
	}

	profileSlug, err := s.uniqueProfileSlug(ctx, params.Username)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateUser(ctx, u, &Profile{Slug: profileSlug}); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return u, nil
}

// Provision creates a passwordless account for a member identified only by
// email. The email doubles as the username; such accounts cannot
// authenticate until a password is set.
func (s *Service) Provision(ctx context.Context, email, firstName string) (*User, error) {
	u := &User{
		Username:  email,
		Email:     email,
		FirstName: firstName,
	}

	profileSlug, err := s.uniqueProfileSlug(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateUser(ctx, u, &Profile{Slug: profileSlug}); err != nil {
		return nil, fmt.Errorf("provisioning user: %w", err)
	}

	return u, nil
}

func (s *Service) ByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.UserByID(ctx, id)
}

func (s *Service) ByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.UserByEmail(ctx, email)
}

type UpdateParams struct {
	Username  *string
	FirstName *string
	LastName  *string
}

// Update applies account edits. The email is immutable here; it is the
// identifier member resolution keys on.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*User, error) {
	u, err := s.repo.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Username != nil {
		u.Username = *params.Username
	}

	if params.FirstName != nil {
		u.FirstName = *params.FirstName
	}

	if params.LastName != nil {
		u.LastName = *params.LastName
	}

	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}

	return u, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteUser(ctx, id)
}

// SetPasswordHash stores a new credential for the user, turning a
// provisioned account into one that can log in.
func (s *Service) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	u, err := s.repo.UserByID(ctx, id)
	if err != nil {
		return err
	}

	u.PasswordHash = hash

	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("setting password: %w", err)
	}

	return nil
}

// uniqueProfileSlug slugifies the username and appends a short random token
// until the slug is free.
func (s *Service) uniqueProfileSlug(ctx context.Context, username string) (string, error) {
	base := slug.Make(username)

	candidate := base
	for {
		taken, err := s.repo.ProfileSlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("checking profile slug: %w", err)
		}

		if !taken {
			return candidate, nil
		}

		candidate = fmt.Sprintf("%s-%06x", base, rand.Uint32N(1<<24))
	}
}

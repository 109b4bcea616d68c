package event

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/kittyapp/kitty/internal/user"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=event
type Repository interface {
	// CreateEvent persists the event and its creator's admin membership in
	// one transaction.
	CreateEvent(ctx context.Context, e *Event, creatorID uuid.UUID) error
	EventByID(ctx context.Context, id uuid.UUID) (*Event, error)
	EventBySlug(ctx context.Context, slug string) (*Event, error)
	ListEvents(ctx context.Context) ([]*Event, error)
	ListEventsForUser(ctx context.Context, userID uuid.UUID) ([]*Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error

	// AddMember attaches a user to an event; attaching an existing member
	// is a no-op.
	AddMember(ctx context.Context, eventID, userID uuid.UUID) error
	Members(ctx context.Context, eventID uuid.UUID) ([]*user.User, error)
	IsMember(ctx context.Context, eventID, userID uuid.UUID) (bool, error)

	SlugExists(ctx context.Context, slug string) (bool, error)
}

// Directory is the slice of the user service needed to resolve member
// identifiers into accounts.
type Directory interface {
	ByEmail(ctx context.Context, email string) (*user.User, error)
	Provision(ctx context.Context, email, firstName string) (*user.User, error)
}

type Service struct {
	repo  Repository
	users Directory
}

func NewService(repo Repository, users Directory) *Service {
	return &Service{repo: repo, users: users}
}

type CreateParams struct {
	Name               string
	Description        string
	CreatorID          uuid.UUID
	MemberEmails       string
	NewMemberFirstName string
}

// Create builds the event with a unique slug, attaches the creator as admin
// member, and resolves the comma-separated member emails.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Event, *MemberResolution, error) {
	if strings.TrimSpace(params.Name) == "" {
		return nil, nil, &ValidationError{Field: "name", Reason: "required"}
	}

	eventSlug, err := s.uniqueSlug(ctx, params.Name)
	if err != nil {
		return nil, nil, err
	}

	e := &Event{
		Name:        params.Name,
		Description: params.Description,
		Slug:        eventSlug,
	}

	if err := s.repo.CreateEvent(ctx, e, params.CreatorID); err != nil {
		return nil, nil, fmt.Errorf("creating event: %w", err)
	}

	res, err := s.ResolveMembers(ctx, e.ID, params.MemberEmails, params.NewMemberFirstName)
	if err != nil {
		return nil, nil, err
	}

	return e, res, nil
}

// ResolveMembers splits rawEmails on commas and attaches each resolved user
// to the event. Unknown emails provision a new passwordless account, with
// firstName applied to every account created in this call. Malformed
// identifiers are reported in the resolution rather than failing the call.
func (s *Service) ResolveMembers(ctx context.Context, eventID uuid.UUID, rawEmails, firstName string) (*MemberResolution, error) {
	res := &MemberResolution{}

	for _, token := range strings.Split(rawEmails, ",") {
		email := strings.TrimSpace(token)
		if email == "" {
			continue
		}

		if !validEmail(email) {
			res.Skipped = append(res.Skipped, email)
			continue
		}

		u, err := s.users.ByEmail(ctx, email)
		if errors.Is(err, user.ErrNotFound) {
			u, err = s.users.Provision(ctx, email, firstName)
		}

		if err != nil {
			return nil, fmt.Errorf("resolving member %q: %w", email, err)
		}

		if err := s.repo.AddMember(ctx, eventID, u.ID); err != nil {
			return nil, fmt.Errorf("attaching member %q: %w", email, err)
		}

		res.Attached = append(res.Attached, u)
	}

	return res, nil
}

func (s *Service) ByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.repo.EventByID(ctx, id)
}

func (s *Service) BySlug(ctx context.Context, eventSlug string) (*Event, error) {
	return s.repo.EventBySlug(ctx, eventSlug)
}

func (s *Service) List(ctx context.Context) ([]*Event, error) {
	return s.repo.ListEvents(ctx)
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Event, error) {
	return s.repo.ListEventsForUser(ctx, userID)
}

// Delete removes the event; expenses, their payments and memberships cascade.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteEvent(ctx, id)
}

func (s *Service) Members(ctx context.Context, eventID uuid.UUID) ([]*user.User, error) {
	return s.repo.Members(ctx, eventID)
}

func (s *Service) IsMember(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	return s.repo.IsMember(ctx, eventID, userID)
}

// uniqueSlug derives a URL-safe slug from the event name, appending a short
// random token when two events share a name.
func (s *Service) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slug.Make(name)

	candidate := base
	for {
		taken, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("checking slug: %w", err)
		}

		if !taken {
			return candidate, nil
		}

		candidate = fmt.Sprintf("%s-%06x", base, rand.Uint32N(1<<24))
	}
}

// validEmail accepts only a bare address, not the "Name <addr>" form.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)

	return err == nil && addr.Address == s
}

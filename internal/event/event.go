package event

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kittyapp/kitty/internal/user"
)

var ErrNotFound = errors.New("event not found")

// ValidationError reports a missing or malformed required field. Nothing is
// persisted when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// Event groups members and the expenses they split. The slug is the only
// externally addressable identifier and never changes once assigned.
type Event struct {
	ID          uuid.UUID
	Name        string
	Description string
	Slug        string
	CreatedAt   time.Time
}

// Membership links one user to one event. The store enforces at most one
// row per (event, user) pair.
type Membership struct {
	EventID uuid.UUID
	UserID  uuid.UUID
	Admin   bool
}

// MemberResolution reports what happened to each identifier handed to
// ResolveMembers: resolved users are attached, malformed identifiers are
// skipped and returned so callers can surface them.
type MemberResolution struct {
	Attached []*user.User
	Skipped  []string
}

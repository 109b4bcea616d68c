package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/kittyapp/kitty/internal/event"
	"github.com/kittyapp/kitty/internal/user"
)

type eventResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Slug        string    `json:"slug"`
	CreatedAt   time.Time `json:"created_at"`
}

type memberResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
}

type resolutionResponse struct {
	Attached []memberResponse `json:"attached"`
	Skipped  []string         `json:"skipped,omitempty"`
}

type createEventResponse struct {
	Event   eventResponse      `json:"event"`
	Members resolutionResponse `json:"members"`
}

type eventDetailResponse struct {
	Event   eventResponse    `json:"event"`
	Members []memberResponse `json:"members"`
}

func toResponse(e *event.Event) eventResponse {
	return eventResponse{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Slug:        e.Slug,
		CreatedAt:   e.CreatedAt,
	}
}

func toResponseList(events []*event.Event) []eventResponse {
	resp := make([]eventResponse, len(events))
	for i, e := range events {
		resp[i] = toResponse(e)
	}

	return resp
}

func toMemberResponse(u *user.User) memberResponse {
	return memberResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func toMemberResponseList(users []*user.User) []memberResponse {
	resp := make([]memberResponse, len(users))
	for i, u := range users {
		resp[i] = toMemberResponse(u)
	}

	return resp
}

func toResolutionResponse(res *event.MemberResolution) resolutionResponse {
	return resolutionResponse{
		Attached: toMemberResponseList(res.Attached),
		Skipped:  res.Skipped,
	}
}

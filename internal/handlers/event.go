package handlers

import (
	"context"
	"time"

	"github.com/gdg-garage/garage-events-api/internal/auth"
	"github.com/gdg-garage/garage-events-api/internal/core"
	"github.com/gdg-garage/garage-events-api/internal/httperr"
	"github.com/gdg-garage/garage-events-api/internal/models"
)

type EventHandler struct {
	events      *core.EventService
	queries     *core.QueryService
	authHandler *auth.AuthHandler
}

func NewEventHandler(events *core.EventService, queries *core.QueryService, authHandler *auth.AuthHandler) *EventHandler {
	return &EventHandler{events: events, queries: queries, authHandler: authHandler}
}

type EventOutput struct {
	Body *models.Event
}

type ListEventsInput struct {
	Page         int       `query:"page" default:"1" doc:"1-based page number"`
	ItemsPerPage int       `query:"items_per_page" default:"10" doc:"Page size, capped by the server"`
	Search       string    `query:"search" maxLength:"200" doc:"Case-insensitive match on title, description and location"`
	Type         string    `query:"type" doc:"Event type"`
	From         time.Time `query:"from" doc:"Only events on or after this time"`
	To           time.Time `query:"to" doc:"Only events on or before this time"`
	Open         string    `query:"open" enum:"true,false" doc:"Filter by registration window state"`
	OwnerID      string    `query:"owner_id" doc:"Only events owned by this user"`
	Filter       string    `query:"filter" maxLength:"1000" doc:"AIP-160 filter expression"`
}

type ListEventsOutput struct {
	Body core.Page[models.Event]
}

func (h *EventHandler) HandleList(ctx context.Context, input *ListEventsInput) (*ListEventsOutput, error) {
	q := core.EventQuery{
		Page:         input.Page,
		ItemsPerPage: input.ItemsPerPage,
		Search:       input.Search,
		Type:         models.EventType(input.Type),
		OwnerID:      input.OwnerID,
		Filter:       input.Filter,
	}
	if !input.From.IsZero() {
		q.From = &input.From
	}
	if !input.To.IsZero() {
		q.To = &input.To
	}
	if input.Open != "" {
		open := input.Open == "true"
		q.Open = &open
	}

	page, err := h.queries.List(ctx, q)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}
	return &ListEventsOutput{Body: page}, nil
}

type EventTypesOutput struct {
	Body []models.EventType
}

func (h *EventHandler) HandleTypes(ctx context.Context, input *struct{}) (*EventTypesOutput, error) {
	return &EventTypesOutput{Body: h.events.Types()}, nil
}

type EventIDInput struct {
	auth.AuthInput
	ID string `path:"id"`
}

type GetEventInput struct {
	ID string `path:"id"`
}

func (h *EventHandler) HandleGet(ctx context.Context, input *GetEventInput) (*EventOutput, error) {
	event, err := h.events.Get(ctx, input.ID)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}
	return &EventOutput{Body: event}, nil
}

type CreateEventInput struct {
	auth.AuthInput
	Body struct {
		Title              string           `json:"title" maxLength:"200"`
		Description        string           `json:"description,omitempty" maxLength:"5000"`
		Location           string           `json:"location,omitempty" maxLength:"200"`
		Type               models.EventType `json:"type" doc:"One of the values listed by /events/types"`
		Capacity           int              `json:"capacity" doc:"Maximum number of active registrations"`
		EventDate          time.Time        `json:"event_date"`
		RegistrationCutoff time.Time        `json:"registration_cutoff" doc:"Must be before the event date"`
	}
}

func (h *EventHandler) HandleCreate(ctx context.Context, input *CreateEventInput) (*EventOutput, error) {
	caller, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}

	event, err := h.events.Create(ctx, caller, core.EventInput{
		Title:              input.Body.Title,
		Description:        input.Body.Description,
		Location:           input.Body.Location,
		Type:               input.Body.Type,
		Capacity:           input.Body.Capacity,
		EventDate:          input.Body.EventDate,
		RegistrationCutoff: input.Body.RegistrationCutoff,
	})
	if err != nil {
		return nil, httperr.From(ctx, err)
	}
	return &EventOutput{Body: event}, nil
}

type UpdateEventInput struct {
	auth.AuthInput
	ID   string `path:"id"`
	Body struct {
		Title               *string           `json:"title,omitempty" maxLength:"200"`
		Description         *string           `json:"description,omitempty" maxLength:"5000"`
		Location            *string           `json:"location,omitempty" maxLength:"200"`
		Type                *models.EventType `json:"type,omitempty"`
		Capacity            *int              `json:"capacity,omitempty"`
		EventDate           *time.Time        `json:"event_date,omitempty"`
		RegistrationCutoff  *time.Time        `json:"registration_cutoff,omitempty"`
		OpenForRegistration *bool             `json:"open_for_registration,omitempty"`
	}
}

func (h *EventHandler) HandleUpdate(ctx context.Context, input *UpdateEventInput) (*EventOutput, error) {
	caller, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}

	event, err := h.events.Update(ctx, caller, input.ID, core.EventPatch{
		Title:               input.Body.Title,
		Description:         input.Body.Description,
		Location:            input.Body.Location,
		Type:                input.Body.Type,
		Capacity:            input.Body.Capacity,
		EventDate:           input.Body.EventDate,
		RegistrationCutoff:  input.Body.RegistrationCutoff,
		OpenForRegistration: input.Body.OpenForRegistration,
	})
	if err != nil {
		return nil, httperr.From(ctx, err)
	}
	return &EventOutput{Body: event}, nil
}

func (h *EventHandler) HandleDelete(ctx context.Context, input *EventIDInput) (*struct{}, error) {
	caller, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}
	if _, err := h.events.Delete(ctx, caller, input.ID); err != nil {
		return nil, httperr.From(ctx, err)
	}
	return nil, nil
}

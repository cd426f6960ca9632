package handlers

import (
	"context"

	"github.com/gdg-garage/garage-events-api/internal/auth"
	"github.com/gdg-garage/garage-events-api/internal/core"
	"github.com/gdg-garage/garage-events-api/internal/httperr"
	"github.com/gdg-garage/garage-events-api/internal/models"
)

type RegistrationHandler struct {
	registrations *core.RegistrationService
	authHandler   *auth.AuthHandler
}

func NewRegistrationHandler(registrations *core.RegistrationService, authHandler *auth.AuthHandler) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, authHandler: authHandler}
}

// ContactBody holds the attendee contact fields. Omitted or blank fields are
// filled from the caller's profile on registration and left as they are on
// update.
type ContactBody struct {
	Name  *string `json:"name,omitempty" maxLength:"100" doc:"Attendee name"`
	Email *string `json:"email,omitempty" maxLength:"254" doc:"Attendee email"`
	Phone *string `json:"phone,omitempty" maxLength:"32" doc:"Attendee phone number"`
}

func (b ContactBody) input() core.ContactInput {
	return core.ContactInput{Name: b.Name, Email: b.Email, Phone: b.Phone}
}

type RegistrationOutput struct {
	Body *models.Registration
}

type RegistrationListOutput struct {
	Body []models.Registration
}

type RegistrationIDInput struct {
	auth.AuthInput
	ID string `path:"id"`
}

type RegisterInput struct {
	auth.AuthInput
	EventID string `path:"id" doc:"Event to register for"`
	Body    ContactBody
}

func (h *RegistrationHandler) HandleRegister(ctx context.Context, input *RegisterInput) (*RegistrationOutput, error) {
	caller, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}

	reg, err := h.registrations.Register(ctx, caller, input.EventID, input.Body.input())
	if err != nil {
		return nil, httperr.From(ctx, err)
	}
	return &RegistrationOutput{Body: reg}, nil
}

type UpdateRegistrationInput struct {
	auth.AuthInput
	ID   string `path:"id"`
	Body ContactBody
}

func (h *RegistrationHandler) HandleUpdate(ctx context.Context, input *UpdateRegistrationInput) (*RegistrationOutput, error) {
	caller, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}

	reg, err := h.registrations.UpdateContactInfo(ctx, caller, input.ID, input.Body.input())
	if err != nil {
		return nil, httperr.From(ctx, err)
	}
	return &RegistrationOutput{Body: reg}, nil
}

func (h *RegistrationHandler) HandleCancel(ctx context.Context, input *RegistrationIDInput) (*RegistrationOutput, error) {
	caller, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}

	reg, err := h.registrations.Cancel(ctx, caller, input.ID)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}
	return &RegistrationOutput{Body: reg}, nil
}

func (h *RegistrationHandler) HandleGet(ctx context.Context, input *RegistrationIDInput) (*RegistrationOutput, error) {
	caller, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}

	reg, err := h.registrations.Get(ctx, caller, input.ID)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}
	return &RegistrationOutput{Body: reg}, nil
}

func (h *RegistrationHandler) HandleListForEvent(ctx context.Context, input *RegistrationIDInput) (*RegistrationListOutput, error) {
	caller, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}

	regs, err := h.registrations.ListForEvent(ctx, caller, input.ID)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}
	return &RegistrationListOutput{Body: regs}, nil
}

func (h *RegistrationHandler) HandleListForUser(ctx context.Context, input *RegistrationIDInput) (*RegistrationListOutput, error) {
	caller, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}

	regs, err := h.registrations.ListForUser(ctx, caller, input.ID)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}
	return &RegistrationListOutput{Body: regs}, nil
}

func (h *RegistrationHandler) HandleListMine(ctx context.Context, input *auth.AuthInput) (*RegistrationListOutput, error) {
	caller, err := h.authHandler.Authorize(ctx, *input)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}

	regs, err := h.registrations.ListForUser(ctx, caller, caller.UserID)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}
	return &RegistrationListOutput{Body: regs}, nil
}

type HistoryInput struct {
	auth.AuthInput
	ID   string `path:"id"`
	Diff bool   `query:"diff" doc:"Report only the fields changed by each entry"`
}

type HistoryOutput struct {
	Body []core.HistoryEntry
}

func (h *RegistrationHandler) HandleHistory(ctx context.Context, input *HistoryInput) (*HistoryOutput, error) {
	caller, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}

	history, err := h.registrations.History(ctx, caller, input.ID, input.Diff)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}
	return &HistoryOutput{Body: history}, nil
}

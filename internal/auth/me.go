package auth

import (
	"context"
	"strings"

	"github.com/gdg-garage/garage-events-api/internal/httperr"
	"github.com/gdg-garage/garage-events-api/internal/models"
)

type UserResponse struct {
	ID          string      `json:"id"`
	DiscordID   string      `json:"discord_id"`
	Username    string      `json:"username"`
	DisplayName string      `json:"display_name"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	Avatar      string      `json:"avatar"`
	Role        models.Role `json:"role"`
}

type MeOutput struct {
	Body UserResponse
}

func (h *AuthHandler) HandleMe(ctx context.Context, input *AuthInput) (*MeOutput, error) {
	caller, err := h.Authorize(ctx, *input)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, "id = ?", caller.UserID).Error; err != nil {
		return nil, httperr.From(ctx, err)
	}
	return &MeOutput{Body: userResponse(user)}, nil
}

type UpdateMeInput struct {
	AuthInput
	Body struct {
		DisplayName *string `json:"display_name,omitempty" maxLength:"64" doc:"Name shown to other attendees"`
		Phone       *string `json:"phone,omitempty" maxLength:"32" doc:"Contact phone number"`
	}
}

// HandleUpdateMe changes the profile values that registrations are
// backfilled from. Existing registrations keep their snapshots.
func (h *AuthHandler) HandleUpdateMe(ctx context.Context, input *UpdateMeInput) (*MeOutput, error) {
	caller, err := h.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}

	updates := map[string]any{}
	if input.Body.DisplayName != nil {
		updates["display_name"] = strings.TrimSpace(*input.Body.DisplayName)
	}
	if input.Body.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Body.Phone)
	}

	if len(updates) > 0 {
		err := h.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", caller.UserID).Updates(updates).Error
		if err != nil {
			return nil, httperr.From(ctx, err)
		}
	}
	return h.HandleMe(ctx, &input.AuthInput)
}

func userResponse(u models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		DiscordID:   u.DiscordID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Phone:       u.Phone,
		Avatar:      u.Avatar,
		Role:        u.Role,
	}
}

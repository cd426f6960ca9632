package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/garage-events-api/internal/auth"
	"github.com/gdg-garage/garage-events-api/internal/httperr"
	"github.com/gdg-garage/garage-events-api/internal/models"
	"gorm.io/gorm"
)

type APIKeyHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewAPIKeyHandler(db *gorm.DB, authHandler *auth.AuthHandler) *APIKeyHandler {
	return &APIKeyHandler{db: db, authHandler: authHandler}
}

type CreateAPIKeyInput struct {
	auth.AuthInput
	Body struct {
		Name      string     `json:"name" minLength:"1" maxLength:"100"`
		ExpiresAt *time.Time `json:"expires_at,omitempty"`
	}
}

type APIKeyResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Key        string     `json:"key"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

type CreateAPIKeyOutput struct {
	Body APIKeyResponse
}

func (h *APIKeyHandler) HandleCreate(ctx context.Context, input *CreateAPIKeyInput) (*CreateAPIKeyOutput, error) {
	caller, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}

	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate key")
	}

	apiKey := models.APIKey{
		UserID:    caller.UserID,
		Key:       hex.EncodeToString(keyBytes),
		Name:      input.Body.Name,
		ExpiresAt: input.Body.ExpiresAt,
	}
	if err := h.db.WithContext(ctx).Create(&apiKey).Error; err != nil {
		return nil, httperr.From(ctx, err)
	}

	// The full key is only ever shown here.
	return &CreateAPIKeyOutput{Body: apiKeyResponse(apiKey, apiKey.Key)}, nil
}

type ListAPIKeysOutput struct {
	Body []APIKeyResponse
}

func (h *APIKeyHandler) HandleList(ctx context.Context, input *auth.AuthInput) (*ListAPIKeysOutput, error) {
	caller, err := h.authHandler.Authorize(ctx, *input)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}

	var apiKeys []models.APIKey
	if err := h.db.WithContext(ctx).Where("user_id = ?", caller.UserID).Order("created_at").Find(&apiKeys).Error; err != nil {
		return nil, httperr.From(ctx, err)
	}

	response := make([]APIKeyResponse, 0, len(apiKeys))
	for _, k := range apiKeys {
		maskedKey := k.Key
		if len(k.Key) > 4 {
			maskedKey = "..." + k.Key[len(k.Key)-4:]
		}
		response = append(response, apiKeyResponse(k, maskedKey))
	}
	return &ListAPIKeysOutput{Body: response}, nil
}

type DeleteAPIKeyInput struct {
	auth.AuthInput
	ID string `path:"id"`
}

func (h *APIKeyHandler) HandleDelete(ctx context.Context, input *DeleteAPIKeyInput) (*struct{}, error) {
	caller, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, httperr.From(ctx, err)
	}

	result := h.db.WithContext(ctx).Where("id = ? AND user_id = ?", input.ID, caller.UserID).Delete(&models.APIKey{})
	if result.Error != nil {
		return nil, httperr.From(ctx, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, huma.Error404NotFound("API key not found")
	}
	return nil, nil
}

func apiKeyResponse(k models.APIKey, key string) APIKeyResponse {
	return APIKeyResponse{
		ID:         k.ID,
		Name:       k.Name,
		Key:        key,
		CreatedAt:  k.CreatedAt,
		ExpiresAt:  k.ExpiresAt,
		LastUsedAt: k.LastUsedAt,
	}
}

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gdg-garage/garage-events-api/internal/core"
	"github.com/gdg-garage/garage-events-api/internal/models"
	"gorm.io/gorm"
)

// AuthInput carries the credentials a request may present. It is embedded in
// huma operation inputs.
type AuthInput struct {
	Cookie        string `header:"Cookie"`
	Authorization string `header:"Authorization" doc:"Bearer session token"`
	APIKey        string `header:"X-API-KEY" doc:"API key"`
}

// Authorize resolves the caller of a request. The API key wins over a bearer
// token, which wins over the session cookie. The role is read from the user
// record on every call so role changes apply immediately.
func (h *AuthHandler) Authorize(ctx context.Context, in AuthInput) (core.Caller, error) {
	userID, err := h.authenticate(ctx, in)
	if err != nil {
		return core.Caller{}, err
	}

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.Caller{}, core.ErrUnauthorized.WithMessage("unknown user")
		}
		return core.Caller{}, err
	}
	return core.Caller{UserID: user.ID, Role: user.Role}, nil
}

func (h *AuthHandler) authenticate(ctx context.Context, in AuthInput) (string, error) {
	if in.APIKey != "" {
		return h.authenticateAPIKey(ctx, in.APIKey)
	}

	token := bearerToken(in.Authorization)
	if token == "" {
		token = cookieToken(in.Cookie)
	}
	if token == "" {
		return "", core.ErrUnauthorized.WithMessage("no token found")
	}

	claims, err := h.parseToken(token)
	if err != nil {
		return "", core.ErrUnauthorized.WithMessage("invalid token")
	}
	return claims.Subject, nil
}

func (h *AuthHandler) authenticateAPIKey(ctx context.Context, key string) (string, error) {
	var apiKey models.APIKey
	err := h.db.WithContext(ctx).Where("key = ?", key).First(&apiKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", core.ErrUnauthorized.WithMessage("invalid API key")
	}
	if err != nil {
		return "", err
	}

	now := time.Now()
	if apiKey.ExpiresAt != nil && now.After(*apiKey.ExpiresAt) {
		return "", core.ErrUnauthorized.WithMessage("API key expired")
	}
	if err := h.db.WithContext(ctx).Model(&apiKey).Update("last_used_at", now).Error; err != nil {
		slog.WarnContext(ctx, "failed to record API key use", "api_key_id", apiKey.ID, "error", err)
	}
	return apiKey.UserID, nil
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func cookieToken(header string) string {
	if header == "" {
		return ""
	}
	cookies, err := http.ParseCookie(header)
	if err != nil {
		return ""
	}
	for _, c := range cookies {
		if c.Name == CookieName {
			return c.Value
		}
	}
	return ""
}

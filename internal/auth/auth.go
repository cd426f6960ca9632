package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gdg-garage/garage-events-api/internal/config"
	"github.com/gdg-garage/garage-events-api/internal/models"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const (
	DiscordAuthorizeEndpoint = "https://discord.com/api/oauth2/authorize"
	DiscordTokenEndpoint     = "https://discord.com/api/oauth2/token"
	DiscordUserAPI           = "https://discord.com/api/users/@me"
	DiscordUserGuildsAPI     = "https://discord.com/api/users/@me/guilds"
)

type AuthHandler struct {
	oauthConfig *oauth2.Config
	db          *gorm.DB
	cfg         *config.Config
	roles       RoleResolver
}

// NewAuthHandler wires Discord login and caller resolution. roles may be nil,
// in which case stored roles are kept as they are.
func NewAuthHandler(cfg *config.Config, db *gorm.DB, roles RoleResolver) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURL,
			Scopes:       []string{"identify", "email", "guilds"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  DiscordAuthorizeEndpoint,
				TokenURL: DiscordTokenEndpoint,
			},
		},
		db:    db,
		cfg:   cfg,
		roles: roles,
	}
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	url := h.oauthConfig.AuthCodeURL("state", oauth2.AccessTypeOnline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

type discordUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Email      string `json:"email"`
	Avatar     string `json:"avatar"`
}

func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}

	token, err := h.oauthConfig.Exchange(ctx, code)
	if err != nil {
		slog.WarnContext(ctx, "discord token exchange failed", "error", err)
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}
	client := h.oauthConfig.Client(ctx, token)

	if h.cfg.DiscordGuildID != "" {
		member, err := isGuildMember(client, h.cfg.DiscordGuildID)
		if err != nil {
			slog.WarnContext(ctx, "discord guild lookup failed", "error", err)
			http.Error(w, "Failed to get user guilds", http.StatusInternalServerError)
			return
		}
		if !member {
			http.Error(w, "Access denied: You are not a member of the required guild.", http.StatusForbidden)
			return
		}
	}

	var du discordUser
	if err := getJSON(client, DiscordUserAPI, &du); err != nil {
		slog.WarnContext(ctx, "discord user lookup failed", "error", err)
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}

	user, err := h.upsertUser(r, du)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save user", "discord_id", du.ID, "error", err)
		http.Error(w, "Failed to save user", http.StatusInternalServerError)
		return
	}

	jwtToken, err := h.GenerateToken(user.ID)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, sessionCookie(jwtToken))

	slog.InfoContext(ctx, "user logged in", "user_id", user.ID, "role", user.Role)
	http.Redirect(w, r, h.cfg.FrontendURL, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) upsertUser(r *http.Request, du discordUser) (*models.User, error) {
	var user models.User
	if err := h.db.WithContext(r.Context()).FirstOrInit(&user, models.User{DiscordID: du.ID}).Error; err != nil {
		return nil, err
	}
	user.Username = du.Username
	user.Email = du.Email
	user.Avatar = du.Avatar
	if user.DisplayName == "" {
		user.DisplayName = du.GlobalName
	}

	if h.roles != nil {
		role, err := h.roles.ResolveRole(r.Context(), du.ID)
		if err != nil {
			// Keep the stored role when Discord cannot be asked.
			slog.WarnContext(r.Context(), "role lookup failed", "discord_id", du.ID, "error", err)
		} else {
			user.Role = role
		}
	}

	if err := h.db.WithContext(r.Context()).Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func isGuildMember(client *http.Client, guildID string) (bool, error) {
	var guilds []struct {
		ID string `json:"id"`
	}
	if err := getJSON(client, DiscordUserGuildsAPI, &guilds); err != nil {
		return false, err
	}
	for _, g := range guilds {
		if g.ID == guildID {
			return true, nil
		}
	}
	return false, nil
}

func getJSON(client *http.Client, url string, v any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Join(fmt.Errorf("decode %s", url), err)
	}
	return nil
}

func sessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  time.Now().Add(TokenDuration),
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
}

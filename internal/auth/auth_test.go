package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/garage-events-api/internal/config"
	"github.com/gdg-garage/garage-events-api/internal/core"
	"github.com/gdg-garage/garage-events-api/internal/database"
	"github.com/gdg-garage/garage-events-api/internal/models"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestHandleMe(t *testing.T) {
	db := newTestDB(t)

	user := models.User{
		DiscordID: "123456",
		Username:  "testuser",
		Email:     "test@example.com",
		Avatar:    "avatar_url",
	}
	db.Create(&user)

	cfg := &config.Config{JWTSecret: "test-secret"}
	handler := NewAuthHandler(cfg, db, nil)

	t.Run("Authenticated", func(t *testing.T) {
		token, _ := handler.GenerateToken(user.ID)
		input := &AuthInput{
			Cookie: "auth_token=" + token,
		}
		resp, err := handler.HandleMe(context.Background(), input)
		if err != nil {
			t.Fatalf("HandleMe returned error: %v", err)
		}

		if resp.Body.Username != user.Username {
			t.Errorf("expected username %s, got %s", user.Username, resp.Body.Username)
		}
		if resp.Body.Email != user.Email {
			t.Errorf("expected email %s, got %s", user.Email, resp.Body.Email)
		}
		if resp.Body.Role != models.RoleUser {
			t.Errorf("expected default role user, got %s", resp.Body.Role)
		}
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		input := &AuthInput{}
		_, err := handler.HandleMe(context.Background(), input)
		if err == nil {
			t.Fatal("expected error for unauthenticated request, got nil")
		}
	})

	t.Run("UpdateMe", func(t *testing.T) {
		token, _ := handler.GenerateToken(user.ID)
		input := &UpdateMeInput{}
		input.Authorization = "Bearer " + token
		name := "  Test User "
		input.Body.DisplayName = &name

		resp, err := handler.HandleUpdateMe(context.Background(), input)
		if err != nil {
			t.Fatalf("HandleUpdateMe returned error: %v", err)
		}
		if resp.Body.DisplayName != "Test User" {
			t.Errorf("expected display name to be updated, got %q", resp.Body.DisplayName)
		}
		if resp.Body.Email != user.Email {
			t.Errorf("expected email to be kept, got %q", resp.Body.Email)
		}
	})
}

func TestAuthorize(t *testing.T) {
	db := newTestDB(t)
	cfg := &config.Config{JWTSecret: "test-secret"}
	handler := NewAuthHandler(cfg, db, nil)
	ctx := context.Background()

	admin := models.User{DiscordID: "1", Username: "admin", Role: models.RoleAdmin}
	db.Create(&admin)
	token, err := handler.GenerateToken(admin.ID)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	t.Run("Cookie", func(t *testing.T) {
		caller, err := handler.Authorize(ctx, AuthInput{Cookie: "theme=dark; auth_token=" + token})
		if err != nil {
			t.Fatalf("Authorize failed: %v", err)
		}
		if caller.UserID != admin.ID || caller.Role != models.RoleAdmin {
			t.Errorf("unexpected caller %+v", caller)
		}
	})

	t.Run("Bearer", func(t *testing.T) {
		caller, err := handler.Authorize(ctx, AuthInput{Authorization: "Bearer " + token})
		if err != nil {
			t.Fatalf("Authorize failed: %v", err)
		}
		if !caller.IsAdmin() {
			t.Errorf("expected admin caller, got %+v", caller)
		}
	})

	t.Run("RoleReadPerRequest", func(t *testing.T) {
		db.Model(&admin).Update("role", models.RoleUser)
		defer db.Model(&admin).Update("role", models.RoleAdmin)

		caller, err := handler.Authorize(ctx, AuthInput{Authorization: "Bearer " + token})
		if err != nil {
			t.Fatalf("Authorize failed: %v", err)
		}
		if caller.IsAdmin() {
			t.Errorf("expected demoted caller, got %+v", caller)
		}
	})

	t.Run("InvalidToken", func(t *testing.T) {
		other := NewAuthHandler(&config.Config{JWTSecret: "other-secret"}, db, nil)
		forged, _ := other.GenerateToken(admin.ID)
		_, err := handler.Authorize(ctx, AuthInput{Cookie: "auth_token=" + forged})
		if !errors.Is(err, core.ErrUnauthorized) {
			t.Errorf("expected unauthorized, got %v", err)
		}
	})

	t.Run("UnknownUser", func(t *testing.T) {
		ghost, _ := handler.GenerateToken("ghost")
		_, err := handler.Authorize(ctx, AuthInput{Cookie: "auth_token=" + ghost})
		if !errors.Is(err, core.ErrUnauthorized) {
			t.Errorf("expected unauthorized, got %v", err)
		}
	})

	t.Run("Anonymous", func(t *testing.T) {
		for _, in := range []AuthInput{{}, {Cookie: "theme=dark"}, {Authorization: "Basic abc"}} {
			if _, err := handler.Authorize(ctx, in); !errors.Is(err, core.ErrUnauthorized) {
				t.Errorf("expected unauthorized for %+v, got %v", in, err)
			}
		}
	})

	t.Run("APIKey", func(t *testing.T) {
		key := models.APIKey{UserID: admin.ID, Key: "valid-key", Name: "ci"}
		db.Create(&key)

		caller, err := handler.Authorize(ctx, AuthInput{APIKey: "valid-key"})
		if err != nil {
			t.Fatalf("Authorize failed: %v", err)
		}
		if caller.UserID != admin.ID {
			t.Errorf("expected API key owner, got %+v", caller)
		}

		var reloaded models.APIKey
		db.First(&reloaded, "id = ?", key.ID)
		if reloaded.LastUsedAt == nil {
			t.Error("expected last_used_at to be recorded")
		}
	})

	t.Run("ExpiredAPIKey", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		db.Create(&models.APIKey{UserID: admin.ID, Key: "expired-key", ExpiresAt: &past})

		_, err := handler.Authorize(ctx, AuthInput{APIKey: "expired-key"})
		if !errors.Is(err, core.ErrUnauthorized) {
			t.Errorf("expected unauthorized, got %v", err)
		}
		_, err = handler.Authorize(ctx, AuthInput{APIKey: "no-such-key"})
		if !errors.Is(err, core.ErrUnauthorized) {
			t.Errorf("expected unauthorized, got %v", err)
		}
	})
}

type fakeMembers struct {
	roles []string
	err   error
}

func (f fakeMembers) GuildMember(_, _ string, _ ...discordgo.RequestOption) (*discordgo.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &discordgo.Member{Roles: f.roles}, nil
}

func TestDiscordRoles(t *testing.T) {
	ctx := context.Background()
	base := DiscordRoles{
		guildID:     "guild",
		adminRoleID: "orgs",
		cfg:         &config.Config{SuperAdminDiscordIDs: []string{"42"}},
	}

	cases := []struct {
		name    string
		members guildMemberGetter
		id      string
		want    models.Role
		wantErr bool
	}{
		{"SuperAdmin", fakeMembers{}, "42", models.RoleSuperAdmin, false},
		{"Admin", fakeMembers{roles: []string{"x", "orgs"}}, "7", models.RoleAdmin, false},
		{"Member", fakeMembers{roles: []string{"x"}}, "7", models.RoleUser, false},
		{"LookupFails", fakeMembers{err: errors.New("unknown member")}, "7", models.RoleUser, true},
		{"NoSession", nil, "7", models.RoleUser, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := base
			r.members = tc.members
			got, err := r.ResolveRole(ctx, tc.id)
			if (err != nil) != tc.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected role %s, got %s", tc.want, got)
			}
		})
	}

	t.Run("FromConfig", func(t *testing.T) {
		r := NewDiscordRoles(nil, &config.Config{SuperAdminDiscordIDs: []string{"9"}})
		got, err := r.ResolveRole(ctx, "9")
		if err != nil || got != models.RoleSuperAdmin {
			t.Errorf("expected super admin, got %s, %v", got, err)
		}
	})
}

package config

import (
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Port != "8080" {
			t.Errorf("expected default port 8080, got %q", cfg.Port)
		}
		if cfg.MaxItemsPerPage != 100 {
			t.Errorf("expected default max items per page 100, got %d", cfg.MaxItemsPerPage)
		}
		if cfg.OperationTimeout != 10*time.Second {
			t.Errorf("expected default timeout 10s, got %s", cfg.OperationTimeout)
		}
	})

	t.Run("Environment", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("PORT", "9090")
		t.Setenv("MAX_ITEMS_PER_PAGE", "25")
		t.Setenv("OPERATION_TIMEOUT", "3s")
		t.Setenv("SUPER_ADMIN_DISCORD_IDS", "111, 222")
		t.Setenv("TELEGRAM_CHAT_ID", "-100123")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Port != "9090" {
			t.Errorf("expected port 9090, got %q", cfg.Port)
		}
		if cfg.MaxItemsPerPage != 25 {
			t.Errorf("expected 25 items per page, got %d", cfg.MaxItemsPerPage)
		}
		if cfg.OperationTimeout != 3*time.Second {
			t.Errorf("expected 3s timeout, got %s", cfg.OperationTimeout)
		}
		if cfg.TelegramChatID != -100123 {
			t.Errorf("expected telegram chat id -100123, got %d", cfg.TelegramChatID)
		}
		if !cfg.IsSuperAdmin("111") || !cfg.IsSuperAdmin("222") || cfg.IsSuperAdmin("333") {
			t.Errorf("unexpected super admins %v", cfg.SuperAdminDiscordIDs)
		}
	})

	t.Run("MissingSecret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		if _, err := LoadConfig(); err == nil {
			t.Fatal("expected error without JWT_SECRET")
		}
	})
}

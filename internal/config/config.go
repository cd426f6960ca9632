package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port                          string        `mapstructure:"PORT"`
	DatabasePath                  string        `mapstructure:"DATABASE_PATH"`
	DiscordClientID               string        `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret           string        `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURL            string        `mapstructure:"DISCORD_REDIRECT_URL"`
	DiscordGuildID                string        `mapstructure:"DISCORD_GUILD_ID"`
	DiscordBotToken               string        `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string        `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
	DiscordAdminRoleID            string        `mapstructure:"DISCORD_ADMIN_ROLE_ID"`
	SuperAdminDiscordIDs          []string      `mapstructure:"SUPER_ADMIN_DISCORD_IDS"`
	JWTSecret                     string        `mapstructure:"JWT_SECRET"`
	FrontendURL                   string        `mapstructure:"FRONTEND_URL"`
	DefaultEventImageURL          string        `mapstructure:"DEFAULT_EVENT_IMAGE_URL"`
	MaxItemsPerPage               int           `mapstructure:"MAX_ITEMS_PER_PAGE"`
	OperationTimeout              time.Duration `mapstructure:"OPERATION_TIMEOUT"`
	TelegramBotToken              string        `mapstructure:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID                int64         `mapstructure:"TELEGRAM_CHAT_ID"`
	OTelEndpoint                  string        `mapstructure:"OTEL_ENDPOINT"`
	OTelEnabled                   bool          `mapstructure:"OTEL_ENABLED"`
	LogLevel                      string        `mapstructure:"LOG_LEVEL"`
	LogFormat                     string        `mapstructure:"LOG_FORMAT"`
}

var keys = []string{
	"PORT",
	"DATABASE_PATH",
	"DISCORD_CLIENT_ID",
	"DISCORD_CLIENT_SECRET",
	"DISCORD_REDIRECT_URL",
	"DISCORD_GUILD_ID",
	"DISCORD_BOT_TOKEN",
	"DISCORD_NOTIFICATIONS_CHANNEL_ID",
	"DISCORD_ADMIN_ROLE_ID",
	"SUPER_ADMIN_DISCORD_IDS",
	"JWT_SECRET",
	"FRONTEND_URL",
	"DEFAULT_EVENT_IMAGE_URL",
	"MAX_ITEMS_PER_PAGE",
	"OPERATION_TIMEOUT",
	"TELEGRAM_BOT_TOKEN",
	"TELEGRAM_CHAT_ID",
	"OTEL_ENDPOINT",
	"OTEL_ENABLED",
	"LOG_LEVEL",
	"LOG_FORMAT",
}

// LoadConfig reads the configuration from the environment. Variables from a
// .env file in the working directory are loaded first when the file exists;
// variables already set in the environment win.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_PATH", "garage-events.db")
	v.SetDefault("DISCORD_REDIRECT_URL", "http://127.0.0.1:8080/auth/discord/callback")
	v.SetDefault("FRONTEND_URL", "http://127.0.0.1:4000/")
	v.SetDefault("DEFAULT_EVENT_IMAGE_URL", "https://garage-trip.cz/static/event-default.png")
	v.SetDefault("MAX_ITEMS_PER_PAGE", 100)
	v.SetDefault("OPERATION_TIMEOUT", 10*time.Second)
	v.SetDefault("OTEL_ENABLED", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.SuperAdminDiscordIDs = splitList(cfg.SuperAdminDiscordIDs)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	switch {
	case c.JWTSecret == "":
		return errors.New("JWT_SECRET is required")
	case c.MaxItemsPerPage < 1:
		return fmt.Errorf("MAX_ITEMS_PER_PAGE must be positive, got %d", c.MaxItemsPerPage)
	case c.OperationTimeout <= 0:
		return fmt.Errorf("OPERATION_TIMEOUT must be positive, got %s", c.OperationTimeout)
	}
	return nil
}

// IsSuperAdmin reports whether a Discord user is configured as a super-admin.
func (c *Config) IsSuperAdmin(discordID string) bool {
	for _, id := range c.SuperAdminDiscordIDs {
		if id == discordID {
			return true
		}
	}
	return false
}

// splitList trims list entries and splits any that still hold commas.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

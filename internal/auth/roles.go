package auth

import (
	"context"
	"fmt"
	"slices"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/garage-events-api/internal/config"
	"github.com/gdg-garage/garage-events-api/internal/models"
)

// RoleResolver decides the role of a Discord user at login.
type RoleResolver interface {
	ResolveRole(ctx context.Context, discordID string) (models.Role, error)
}

type guildMemberGetter interface {
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
}

// DiscordRoles makes configured Discord ids super-admins and members of the
// guild holding the admin role admins.
type DiscordRoles struct {
	members     guildMemberGetter
	guildID     string
	adminRoleID string
	cfg         *config.Config
}

func NewDiscordRoles(session *discordgo.Session, cfg *config.Config) *DiscordRoles {
	r := &DiscordRoles{
		guildID:     cfg.DiscordGuildID,
		adminRoleID: cfg.DiscordAdminRoleID,
		cfg:         cfg,
	}
	if session != nil {
		r.members = session
	}
	return r
}

func (r *DiscordRoles) ResolveRole(ctx context.Context, discordID string) (models.Role, error) {
	if r.cfg != nil && r.cfg.IsSuperAdmin(discordID) {
		return models.RoleSuperAdmin, nil
	}
	if r.members == nil || r.guildID == "" || r.adminRoleID == "" {
		return models.RoleUser, nil
	}

	member, err := r.members.GuildMember(r.guildID, discordID, discordgo.WithContext(ctx))
	if err != nil {
		return models.RoleUser, fmt.Errorf("get guild member: %w", err)
	}
	if slices.Contains(member.Roles, r.adminRoleID) {
		return models.RoleAdmin, nil
	}
	return models.RoleUser, nil
}

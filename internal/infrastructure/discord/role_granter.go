package discord

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/you/verifybot/domain"
)

// RoleGranterImpl implements domain.RoleGranter against a live Discord
// session.
type RoleGranterImpl struct {
	session *discordgo.Session
}

// NewRoleGranter creates a new Discord role-grant actuator
func NewRoleGranter(session *discordgo.Session) domain.RoleGranter {
	return &RoleGranterImpl{session: session}
}

// Grant implements domain.RoleGranter. A failed role assignment is
// fatal; a failed welcome DM is logged and ignored.
func (g *RoleGranterImpl) Grant(ctx context.Context, grant *domain.RoleGrant) error {
	for _, roleID := range grant.RoleIDs {
		if err := g.session.GuildMemberRoleAdd(grant.GuildID, grant.UserID, roleID); err != nil {
			return fmt.Errorf("%w: role %s for user %s in guild %s: %v",
				domain.ErrRoleGrantFailed, roleID, grant.UserID, grant.GuildID, err)
		}
	}

	if grant.WelcomeMessage != "" {
		if err := g.SendDM(ctx, grant.UserID, grant.WelcomeMessage); err != nil {
			log.Printf("discord: could not send welcome DM to %s: %v", grant.UserID, err)
		}
	}
	return nil
}

// HasRole implements domain.RoleGranter
func (g *RoleGranterImpl) HasRole(ctx context.Context, guildID, userID, roleID string) (bool, error) {
	member, err := g.session.GuildMember(guildID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to fetch member %s in guild %s: %w", userID, guildID, err)
	}
	for _, id := range member.Roles {
		if id == roleID {
			return true, nil
		}
	}
	return false, nil
}

// SendDM implements domain.RoleGranter
func (g *RoleGranterImpl) SendDM(ctx context.Context, userID, message string) error {
	channel, err := g.session.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("failed to open DM channel with %s: %w", userID, err)
	}
	if _, err := g.session.ChannelMessageSend(channel.ID, message); err != nil {
		return fmt.Errorf("failed to send DM to %s: %w", userID, err)
	}
	return nil
}

// NoopRoleGranter is the actuator for web-only deployments without a
// gateway connection: grants are logged for the operator instead of
// applied.
type NoopRoleGranter struct{}

// NewNoopRoleGranter creates a logging-only role granter
func NewNoopRoleGranter() domain.RoleGranter {
	return &NoopRoleGranter{}
}

// Grant implements domain.RoleGranter
func (g *NoopRoleGranter) Grant(ctx context.Context, grant *domain.RoleGrant) error {
	log.Printf("[NOOP GRANT] user %s in guild %s would receive roles %v", grant.UserID, grant.GuildID, grant.RoleIDs)
	return nil
}

// HasRole implements domain.RoleGranter
func (g *NoopRoleGranter) HasRole(ctx context.Context, guildID, userID, roleID string) (bool, error) {
	return false, nil
}

// SendDM implements domain.RoleGranter
func (g *NoopRoleGranter) SendDM(ctx context.Context, userID, message string) error {
	log.Printf("[NOOP DM] To: %s, Message: %s", userID, message)
	return nil
}

package app

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"

	"github.com/you/verifybot/internal/bot"
	"github.com/you/verifybot/internal/config"
	httpx "github.com/you/verifybot/internal/http"
	"github.com/you/verifybot/internal/http/handlers"
	discordinfra "github.com/you/verifybot/internal/infrastructure/discord"
)

const templateGlob = "web/templates/*.html"

// Run starts the full deployment: Discord gateway plus the web
// verification surface.
func Run(cfg *config.Config) error {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	container, err := NewContainer(cfg)
	if err != nil {
		return err
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	granter := discordinfra.NewRoleGranter(session)
	container.BuildVerificationService(granter)

	probes := []bot.HealthProbe{
		{Name: "store", Check: container.StorePing},
		{Name: "redis", Check: container.RedisPing},
		{Name: "discord", Check: func(ctx context.Context) error {
			if session.State == nil || session.State.User == nil {
				return fmt.Errorf("gateway not connected")
			}
			return nil
		}},
	}

	commands := bot.New(session, container.PolicySvc, container.VerificationSvc, granter, cfg.DiscordAppID, cfg.DiscordGuildID, probes)

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}
	defer session.Close()
	log.Printf("discord: connected as %s", session.State.User.Username)

	if err := commands.Register(); err != nil {
		return err
	}
	log.Println("discord: slash commands registered")

	guildName := func(guildID string) string {
		if guild, err := session.State.Guild(guildID); err == nil {
			return guild.Name
		}
		if guild, err := session.Guild(guildID); err == nil {
			return guild.Name
		}
		return ""
	}

	vh := handlers.NewVerifyHandlers(container.VerificationSvc, container.CaptchaSvc, granter, cfg.RecaptchaSiteKey, guildName)
	r := httpx.BuildRouter(vh, templateGlob)

	addr := ":" + cfg.Port
	log.Printf("web: listening on %s", addr)
	return http.ListenAndServe(addr, r)
}

// RunWebOnly starts the web verification surface without a gateway
// connection. Role grants are logged instead of applied; a bot
// deployment elsewhere (or an operator) acts on them.
func RunWebOnly(cfg *config.Config) error {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	container, err := NewContainer(cfg)
	if err != nil {
		return err
	}

	container.BuildVerificationService(discordinfra.NewNoopRoleGranter())

	vh := handlers.NewVerifyHandlers(container.VerificationSvc, container.CaptchaSvc, discordinfra.NewNoopRoleGranter(), cfg.RecaptchaSiteKey, nil)
	r := httpx.BuildRouter(vh, templateGlob)

	addr := ":" + cfg.Port
	log.Printf("web: listening on %s (web-only mode)", addr)
	return http.ListenAndServe(addr, r)
}

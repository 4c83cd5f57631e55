package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/you/verifybot/domain"
)

// HealthProbe checks one backing dependency for the diagnostics command.
type HealthProbe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Bot wires the slash-command surface to the verification services.
// Command handlers are thin adapters: they validate interaction input,
// call a service, and render the outcome as an ephemeral reply.
type Bot struct {
	session         *discordgo.Session
	policySvc       domain.PolicyService
	verificationSvc domain.VerificationService
	granter         domain.RoleGranter
	appID           string
	guildID         string
	probes          []HealthProbe
}

// New creates the command surface. guildID scopes command registration
// to one guild for development; empty registers globally.
func New(
	session *discordgo.Session,
	policySvc domain.PolicyService,
	verificationSvc domain.VerificationService,
	granter domain.RoleGranter,
	appID, guildID string,
	probes []HealthProbe,
) *Bot {
	return &Bot{
		session:         session,
		policySvc:       policySvc,
		verificationSvc: verificationSvc,
		granter:         granter,
		appID:           appID,
		guildID:         guildID,
		probes:          probes,
	}
}

// Register installs the interaction handlers and overwrites the
// application's slash commands.
func (b *Bot) Register() error {
	b.session.AddHandler(b.handleInteraction)
	b.session.AddHandler(b.handleMemberJoin)

	if _, err := b.session.ApplicationCommandBulkOverwrite(b.appID, b.guildID, commandDefinitions()); err != nil {
		return fmt.Errorf("failed to register slash commands: %w", err)
	}
	return nil
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	if i.GuildID == "" {
		b.reply(i, "This command can only be used inside a server.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch i.ApplicationCommandData().Name {
	case "setup":
		b.handleSetup(ctx, i)
	case "verify":
		b.handleVerify(ctx, i)
	case "verification-status":
		b.handleStatus(ctx, i)
	case "diagnostics":
		b.handleDiagnostics(ctx, i)
	}
}

func (b *Bot) handleSetup(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := optionMap(i)

	policy := &domain.ServerPolicy{GuildID: i.GuildID}
	if opt, ok := opts["verified_role"]; ok {
		policy.VerifiedRoleID = opt.RoleValue(b.session, i.GuildID).ID
	}
	if opt, ok := opts["human_role"]; ok {
		policy.HumanRoleID = opt.RoleValue(b.session, i.GuildID).ID
	}
	if opt, ok := opts["require_recaptcha"]; ok {
		policy.RequireRecaptcha = opt.BoolValue()
	}
	if opt, ok := opts["require_sms"]; ok {
		policy.RequireSMS = opt.BoolValue()
	}
	if opt, ok := opts["welcome_message"]; ok {
		policy.WelcomeMessage = opt.StringValue()
	}
	if opt, ok := opts["timeout"]; ok {
		policy.TimeoutMinutes = int(opt.IntValue())
	}

	saved, err := b.policySvc.Setup(ctx, policy)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPolicy):
			b.reply(i, fmt.Sprintf("❌ %s", err.Error()))
		case errors.Is(err, domain.ErrStoreUnavailable):
			log.Printf("bot: setup store error for guild %s: %v", i.GuildID, err)
			b.reply(i, "❌ The verification store is unavailable. Please try again shortly.")
		default:
			log.Printf("bot: setup failed for guild %s: %v", i.GuildID, err)
			b.reply(i, "❌ Setup failed. Please try again later.")
		}
		return
	}

	summary := fmt.Sprintf(
		"✅ Verification configured.\nVerified role: <@&%s>\nreCAPTCHA: %t\nSMS: %t\nLink lifetime: %d minutes",
		saved.VerifiedRoleID, saved.RequireRecaptcha, saved.RequireSMS, saved.TimeoutMinutes,
	)
	if saved.HumanRoleID != "" {
		summary += fmt.Sprintf("\nHuman role: <@&%s>", saved.HumanRoleID)
	}
	b.reply(i, summary)
}

func (b *Bot) handleVerify(ctx context.Context, i *discordgo.InteractionCreate) {
	userID := i.Member.User.ID

	result, err := b.verificationSvc.Start(ctx, userID, i.GuildID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyVerified):
			b.reply(i, "✅ You are already verified!")
		case errors.Is(err, domain.ErrNoPolicy):
			b.reply(i, "❌ This server has no verification configuration. Ask an administrator to run /setup.")
		case errors.Is(err, domain.ErrStoreUnavailable):
			log.Printf("bot: verify store error for user %s in guild %s: %v", userID, i.GuildID, err)
			b.reply(i, "❌ The verification store is unavailable. Please try again shortly.")
		default:
			log.Printf("bot: verify failed for user %s in guild %s: %v", userID, i.GuildID, err)
			b.reply(i, "❌ Could not start verification. Please try again later.")
		}
		return
	}

	dmText := fmt.Sprintf("👋 Hi! Complete your verification here: %s\nThe link expires at %s.",
		result.VerificationURL, result.Record.ExpiresAt.UTC().Format(time.RFC1123))
	if err := b.granter.SendDM(ctx, userID, dmText); err != nil {
		// DMs may be disabled; fall back to showing the link in the
		// ephemeral reply, which only the user can see.
		log.Printf("bot: could not DM verification link to %s: %v", userID, err)
		b.reply(i, fmt.Sprintf("⚠️ I could not send you a DM. Use this link to verify:\n%s", result.VerificationURL))
		return
	}

	b.reply(i, "✅ A verification link has been sent to your DMs.")
}

func (b *Bot) handleStatus(ctx context.Context, i *discordgo.InteractionCreate) {
	userID := i.Member.User.ID

	status, err := b.verificationSvc.Status(ctx, userID, i.GuildID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoPolicy):
			b.reply(i, "❌ This server has no verification configuration. Ask an administrator to run /setup.")
		case errors.Is(err, domain.ErrStoreUnavailable):
			log.Printf("bot: status store error for user %s: %v", userID, err)
			b.reply(i, "❌ The verification store is unavailable. Please try again shortly.")
		default:
			log.Printf("bot: status failed for user %s: %v", userID, err)
			b.reply(i, "❌ Could not fetch your verification status.")
		}
		return
	}

	switch status.State {
	case domain.StateAlreadyVerified, domain.StateCompleted:
		b.reply(i, "✅ You are verified.")
	case domain.StateNotStarted:
		b.reply(i, "You have not started verification. Use /verify to begin.")
	case domain.StateExpired:
		b.reply(i, "⌛ Your verification link expired. Use /verify to get a new one.")
	default:
		b.reply(i, fmt.Sprintf(
			"Verification in progress.\nreCAPTCHA: %s\nSMS: %s\nLink expires: %s",
			checkmark(status.Status.Recaptcha), checkmark(status.Status.SMS),
			status.ExpiresAt.UTC().Format(time.RFC1123),
		))
	}
}

func (b *Bot) handleDiagnostics(ctx context.Context, i *discordgo.InteractionCreate) {
	report := "🩺 Verification system health:"
	for _, probe := range b.probes {
		start := time.Now()
		if err := probe.Check(ctx); err != nil {
			log.Printf("bot: diagnostics probe %s failed: %v", probe.Name, err)
			report += fmt.Sprintf("\n❌ %s: %v", probe.Name, err)
			continue
		}
		report += fmt.Sprintf("\n✅ %s (%dms)", probe.Name, time.Since(start).Milliseconds())
	}
	if len(b.probes) == 0 {
		report += "\n(no probes configured)"
	}
	b.reply(i, report)
}

// handleMemberJoin greets newcomers with a verification prompt when the
// guild has a policy. Best effort only.
func (b *Bot) handleMemberJoin(s *discordgo.Session, event *discordgo.GuildMemberAdd) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := b.policySvc.Get(ctx, event.GuildID); err != nil {
		if !errors.Is(err, domain.ErrNoPolicy) {
			log.Printf("bot: member-join policy lookup failed for guild %s: %v", event.GuildID, err)
		}
		return
	}

	message := "👋 Welcome! This server requires verification. Use the /verify command in the server to get started."
	if err := b.granter.SendDM(ctx, event.User.ID, message); err != nil {
		log.Printf("bot: could not greet new member %s: %v", event.User.ID, err)
	}
}

func (b *Bot) reply(i *discordgo.InteractionCreate, content string) {
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("bot: could not respond to interaction: %v", err)
	}
}

func checkmark(done bool) string {
	if done {
		return "✅ done"
	}
	return "⬜ pending"
}

package bot

import "github.com/bwmarrin/discordgo"

var adminPermission int64 = discordgo.PermissionAdministrator

const (
	minTimeoutMinutes = 5
	maxTimeoutMinutes = 1440
)

func commandDefinitions() []*discordgo.ApplicationCommand {
	minTimeout := float64(minTimeoutMinutes)
	maxTimeout := float64(maxTimeoutMinutes)

	return []*discordgo.ApplicationCommand{
		{
			Name:                     "setup",
			Description:              "Configure the verification system for this server",
			DefaultMemberPermissions: &adminPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "verified_role",
					Description: "Role granted after verification (do not pick @everyone)",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "require_recaptcha",
					Description: "Require reCAPTCHA verification",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "require_sms",
					Description: "Require SMS verification",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "human_role",
					Description: "Extra role granted after SMS verification (do not pick @everyone)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "welcome_message",
					Description: "Message sent to users after successful verification",
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "timeout",
					Description: "Verification link lifetime in minutes",
					MinValue:    &minTimeout,
					MaxValue:    maxTimeout,
				},
			},
		},
		{
			Name:        "verify",
			Description: "Start the verification process",
		},
		{
			Name:        "verification-status",
			Description: "Check your verification progress",
		},
		{
			Name:                     "diagnostics",
			Description:              "Check the health of the verification system",
			DefaultMemberPermissions: &adminPermission,
		},
	}
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

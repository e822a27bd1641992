package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/usecases"
)

var manageMessages int64 = discordgo.PermissionManageMessages

// Commands returns all slash commands for the music player module.
func Commands() []*discordgo.ApplicationCommand {
	voteKindChoices := []*discordgo.ApplicationCommandOptionChoice{
		{Name: "Skip", Value: usecases.VoteKindSkip.String()},
		{Name: "Clear", Value: usecases.VoteKindClear.String()},
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "play",
			Description: "Play a track from URL or search",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "query",
					Description:  "URL or search term",
					Required:     true,
					Autocomplete: true,
				},
			},
		},
		{
			Name:        "pause",
			Description: "Pause playback",
		},
		{
			Name:        "resume",
			Description: "Resume playback",
		},
		{
			Name:        "skip",
			Description: "Vote to skip the current track",
		},
		{
			Name:        "clear",
			Description: "Vote to clear the queue",
		},
		{
			Name:        "unvote",
			Description: "Withdraw your vote",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "kind",
					Description: "Which vote to withdraw",
					Required:    true,
					Choices:     voteKindChoices,
				},
			},
		},
		{
			Name:        "queue",
			Description: "Show the current queue",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "page",
					Description: "Page number",
					Required:    false,
					MinValue:    floatPtr(1),
				},
			},
		},
		{
			Name:                     "settings",
			Description:              "View or change music settings",
			DefaultMemberPermissions: &manageMessages,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "setting",
					Description:  "Setting to view or change",
					Required:     false,
					Autocomplete: true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "value",
					Description: "New value",
					Required:    false,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "true", Value: "true"},
						{Name: "false", Value: "false"},
					},
				},
			},
		},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}

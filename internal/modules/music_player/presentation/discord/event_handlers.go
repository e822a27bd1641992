package discord

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/usecases"
)

// EventHandlers handles Discord gateway events for the music player.
type EventHandlers struct {
	botID        snowflake.ID
	voiceChannel *usecases.VoiceChannelService
	presence     *usecases.PresenceService
}

// NewEventHandlers creates a new EventHandlers.
func NewEventHandlers(
	botID snowflake.ID,
	voiceChannel *usecases.VoiceChannelService,
	presence *usecases.PresenceService,
) *EventHandlers {
	return &EventHandlers{
		botID:        botID,
		voiceChannel: voiceChannel,
		presence:     presence,
	}
}

// HandleVoiceStateUpdate turns a voice state update into either a bot voice
// change or a member presence transition.
// discordgo updates its state cache before handlers run, so listener counts
// taken while handling already include this update.
func (h *EventHandlers) HandleVoiceStateUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	ctx := context.Background()

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	toChannelID, err := parseOptionalID(event.ChannelID)
	if err != nil {
		slog.Error("failed to parse channel ID in voice state update", "error", err)
		return
	}

	if event.UserID == h.botID.String() {
		var newChannelID *snowflake.ID
		if toChannelID != 0 {
			newChannelID = &toChannelID
		}

		if err := h.voiceChannel.HandleBotVoiceStateChange(ctx, usecases.BotVoiceStateChangeInput{
			GuildID:      guildID,
			NewChannelID: newChannelID,
		}); err != nil {
			slog.Error("failed to handle bot voice state change", "guild", guildID, "error", err)
		}
		return
	}

	transition, ok := presenceTransition(guildID, toChannelID, event)
	if !ok {
		return
	}

	if err := h.presence.HandleTransition(ctx, transition); err != nil {
		slog.Error("failed to handle presence transition", "guild", guildID, "error", err)
	}
}

// presenceTransition builds the transition for a member's voice state update.
// Updates that do not change the member's channel (mute, deafen) are dropped.
func presenceTransition(
	guildID, toChannelID snowflake.ID,
	event *discordgo.VoiceStateUpdate,
) (usecases.PresenceTransition, bool) {
	userID, err := snowflake.Parse(event.UserID)
	if err != nil {
		slog.Error("failed to parse user ID in voice state update", "error", err)
		return usecases.PresenceTransition{}, false
	}

	var fromChannelID snowflake.ID
	if event.BeforeUpdate != nil {
		fromChannelID, err = parseOptionalID(event.BeforeUpdate.ChannelID)
		if err != nil {
			slog.Error("failed to parse previous channel ID in voice state update", "error", err)
			return usecases.PresenceTransition{}, false
		}
	}

	if fromChannelID == toChannelID {
		return usecases.PresenceTransition{}, false
	}

	isBot := event.Member != nil && event.Member.User != nil && event.Member.User.Bot

	return usecases.PresenceTransition{
		GuildID:       guildID,
		UserID:        userID,
		IsBot:         isBot,
		FromChannelID: fromChannelID,
		ToChannelID:   toChannelID,
	}, true
}

func parseOptionalID(s string) (snowflake.ID, error) {
	if s == "" {
		return 0, nil
	}
	return snowflake.Parse(s)
}

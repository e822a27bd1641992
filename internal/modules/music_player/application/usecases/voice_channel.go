package usecases

import (
	"context"
	"errors"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/session"
	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

// BotVoiceStateChangeInput contains the input for handling bot voice state changes.
type BotVoiceStateChangeInput struct {
	GuildID      snowflake.ID
	NewChannelID *snowflake.ID // nil means disconnected
}

// VoiceChannelService keeps sessions in line with the bot's own voice state.
type VoiceChannelService struct {
	store      *session.Store
	departures ports.DepartureTracker
}

// NewVoiceChannelService creates a new VoiceChannelService.
func NewVoiceChannelService(
	store *session.Store,
	departures ports.DepartureTracker,
) *VoiceChannelService {
	return &VoiceChannelService{
		store:      store,
		departures: departures,
	}
}

// HandleBotVoiceStateChange handles external voice state changes (bot moved or disconnected).
// A disconnected bot ends the session; a moved bot takes the session with it.
//
// The disconnect that follows a drained session's own leave belongs to that
// session, not to whichever session the guild has now, and is ignored.
func (v *VoiceChannelService) HandleBotVoiceStateChange(ctx context.Context, input BotVoiceStateChangeInput) error {
	if input.NewChannelID == nil && v.departures.ConsumeDeparture(input.GuildID) {
		slog.Debug("ignored disconnect from a requested leave", "guild", input.GuildID)
		return nil
	}

	err := v.store.Update(ctx, input.GuildID, func(_ context.Context, s *domain.Session, _ ports.Dispatcher) error {
		if input.NewChannelID == nil {
			count := s.Clear()
			slog.Info("bot disconnected from voice, ending session",
				"guild", input.GuildID,
				"dropped", count,
			)
			return nil
		}

		if *input.NewChannelID != s.VoiceChannelID() {
			s.SetVoiceChannelID(*input.NewChannelID)
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

// GuildSettingsRepository stores per-guild feature flags.
type GuildSettingsRepository interface {
	// Get returns the settings for the guild, or defaults if none were saved.
	Get(ctx context.Context, guildID snowflake.ID) (domain.GuildSettings, error)

	// Save replaces the settings for the guild.
	Save(ctx context.Context, guildID snowflake.ID, settings domain.GuildSettings) error
}

package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

// Dispatcher streams audio for exactly one session.
// A Dispatcher is owned by one session and never shared.
type Dispatcher interface {
	// Play starts streaming the given song, replacing whatever was playing.
	Play(ctx context.Context, song domain.Song) error

	// Pause pauses the current stream.
	Pause(ctx context.Context) error

	// Resume resumes the paused stream.
	Resume(ctx context.Context) error

	// Stop stops the current stream without releasing the voice connection.
	Stop(ctx context.Context) error

	// Close stops streaming and leaves the voice channel.
	Close(ctx context.Context) error
}

// DepartureTracker tells a voice disconnect the bot asked for apart from
// one done to it.
type DepartureTracker interface {
	// ConsumeDeparture reports whether the latest disconnect in guildID
	// followed a dispatcher's own Close, and forgets it.
	ConsumeDeparture(guildID snowflake.ID) bool
}

// DispatcherFactory creates the dispatcher for a new session.
type DispatcherFactory interface {
	NewDispatcher(guildID, voiceChannelID snowflake.ID) Dispatcher
}

package ports

import (
	"context"

	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

// EventSubscriber defines the interface for subscribing to events.
// Handlers are registered with the subscriber and invoked when events occur.
type EventSubscriber interface {
	OnTrackEnded(handler func(context.Context, domain.TrackEndedEvent))
	OnPlaybackStarted(handler func(context.Context, domain.PlaybackStartedEvent))
	OnStatus(handler func(context.Context, domain.StatusEvent))
}

package ports

import "github.com/sglre6355/machobot/internal/modules/music_player/domain"

// EventPublisher defines the interface for publishing events asynchronously.
// Publishing never blocks the caller.
type EventPublisher interface {
	PublishTrackEnded(event domain.TrackEndedEvent)
	PublishPlaybackStarted(event domain.PlaybackStartedEvent)
	PublishStatus(event domain.StatusEvent)
}

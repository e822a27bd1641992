package application

import (
	"context"
	"log/slog"

	"github.com/sglre6355/machobot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

// PlaybackEventHandler advances the queue when the audio backend reports a finished track.
type PlaybackEventHandler struct {
	queue      *usecases.QueueService
	subscriber ports.EventSubscriber
}

// NewPlaybackEventHandler creates a new PlaybackEventHandler.
func NewPlaybackEventHandler(
	queue *usecases.QueueService,
	subscriber ports.EventSubscriber,
) *PlaybackEventHandler {
	return &PlaybackEventHandler{
		queue:      queue,
		subscriber: subscriber,
	}
}

// Start registers event handlers with the subscriber.
func (h *PlaybackEventHandler) Start() {
	h.subscriber.OnTrackEnded(h.handleTrackEnded)

	slog.Debug("playback event handlers properly registered")
}

func (h *PlaybackEventHandler) handleTrackEnded(ctx context.Context, event domain.TrackEndedEvent) {
	// Only advance queue for certain end reasons
	if !event.Reason.ShouldAdvanceQueue() {
		return
	}

	slog.Debug(
		"track ended, advancing queue",
		"guild", event.GuildID,
		"reason", event.Reason,
	)

	err := h.queue.Advance(ctx, usecases.AdvanceInput{
		GuildID:   event.GuildID,
		SourceRef: event.SourceRef,
	})
	if err != nil && usecases.Classify(err) != usecases.KindNotFound {
		slog.Error(
			"failed to advance queue",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

// NotificationEventHandler sends status and "Now Playing" messages.
// Failures are logged and never affect session state.
type NotificationEventHandler struct {
	subscriber       ports.EventSubscriber
	notifier         ports.NotificationSender
	userInfoProvider ports.UserInfoProvider
}

// NewNotificationEventHandler creates a new NotificationEventHandler.
func NewNotificationEventHandler(
	subscriber ports.EventSubscriber,
	notifier ports.NotificationSender,
	userInfoProvider ports.UserInfoProvider,
) *NotificationEventHandler {
	return &NotificationEventHandler{
		subscriber:       subscriber,
		notifier:         notifier,
		userInfoProvider: userInfoProvider,
	}
}

// Start registers event handlers with the subscriber.
func (h *NotificationEventHandler) Start() {
	h.subscriber.OnPlaybackStarted(h.handlePlaybackStarted)
	h.subscriber.OnStatus(h.handleStatus)

	slog.Debug("notification event handlers properly registered")
}

func (h *NotificationEventHandler) handlePlaybackStarted(
	_ context.Context,
	event domain.PlaybackStartedEvent,
) {
	if event.TextChannelID == 0 {
		return
	}

	song := event.Song
	info := &ports.NowPlayingInfo{
		Title:       song.Title,
		Artist:      song.Artist,
		Duration:    song.FormattedDuration(),
		URI:         song.URI,
		ArtworkURL:  song.ArtworkURL,
		IsStream:    song.IsStream,
		RequesterID: song.RequesterID,
		EnqueuedAt:  song.EnqueuedAt,
	}

	if h.userInfoProvider != nil {
		userInfo, err := h.userInfoProvider.GetUserInfo(event.GuildID, song.RequesterID)
		if err != nil {
			slog.Debug(
				"failed to fetch requester info",
				"guild", event.GuildID,
				"error", err,
			)
		} else {
			info.RequesterName = userInfo.DisplayName
			info.RequesterAvatarURL = userInfo.AvatarURL
		}
	}

	if err := h.notifier.SendNowPlaying(event.TextChannelID, info); err != nil {
		slog.Warn(
			"failed to send now playing notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handleStatus(_ context.Context, event domain.StatusEvent) {
	if event.TextChannelID == 0 {
		return
	}

	if err := h.notifier.SendStatus(event.TextChannelID, event.Message); err != nil {
		slog.Warn(
			"failed to send status notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

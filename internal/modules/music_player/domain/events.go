package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// TrackEndReason represents why a track ended.
type TrackEndReason string

const (
	TrackEndFinished   TrackEndReason = "finished"
	TrackEndLoadFailed TrackEndReason = "load_failed"
	TrackEndStopped    TrackEndReason = "stopped"
	TrackEndReplaced   TrackEndReason = "replaced"
	TrackEndCleanup    TrackEndReason = "cleanup"
)

// ShouldAdvanceQueue returns true if this end reason should advance the queue.
// Stopped and replaced tracks were ended by the session itself.
func (r TrackEndReason) ShouldAdvanceQueue() bool {
	return r == TrackEndFinished || r == TrackEndLoadFailed
}

// TrackEndedEvent is published when the audio backend reports a track end.
type TrackEndedEvent struct {
	GuildID   snowflake.ID
	SourceRef string
	Reason    TrackEndReason
}

// PlaybackStartedEvent is published when a song starts streaming.
type PlaybackStartedEvent struct {
	GuildID       snowflake.ID
	TextChannelID snowflake.ID
	Song          Song
}

// StatusEvent carries a status notification for a session's text channel.
type StatusEvent struct {
	GuildID       snowflake.ID
	TextChannelID snowflake.ID
	Message       string
}

// Status messages sent by the presence policy.
const (
	StatusAutoPaused  = "⏸ Since everyone has left the voice channel, I've paused the music."
	StatusAutoResumed = "▶ Resumed the music for you!"
)

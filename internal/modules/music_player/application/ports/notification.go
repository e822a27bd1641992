package ports

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// NotificationSender defines the interface for sending notifications to Discord channels.
type NotificationSender interface {
	// SendStatus sends a plain status line to the channel.
	SendStatus(channelID snowflake.ID, message string) error

	// SendNowPlaying sends a "Now Playing" embed to the channel.
	SendNowPlaying(channelID snowflake.ID, info *NowPlayingInfo) error
}

// NowPlayingInfo describes the song that just started playing.
type NowPlayingInfo struct {
	Title              string
	Artist             string
	Duration           string // preformatted; empty for streams
	URI                string
	ArtworkURL         string
	IsStream           bool
	RequesterID        snowflake.ID
	RequesterName      string
	RequesterAvatarURL string
	EnqueuedAt         time.Time
}

package infrastructure

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/ports"
	"golang.org/x/time/rate"
)

// Embed colors.
const (
	colorNowPlaying = 0x08c404
)

// Default notification throttle.
const (
	DefaultNotifyRate  = 1.0
	DefaultNotifyBurst = 3
)

// ErrNotificationThrottled is returned when a channel exceeded its notification budget.
var ErrNotificationThrottled = errors.New("notification throttled")

// channelSender is the subset of *discordgo.Session used by Notifier.
type channelSender interface {
	ChannelMessageSend(
		channelID string,
		content string,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
	ChannelMessageSendEmbed(
		channelID string,
		embed *discordgo.MessageEmbed,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
}

// Notifier sends notifications to Discord channels.
// Each channel gets its own token bucket; a message over budget is dropped.
type Notifier struct {
	sender channelSender
	limit  rate.Limit
	burst  int

	mu       sync.Mutex
	limiters map[snowflake.ID]*rate.Limiter
}

// NotifierConfig controls the per-channel throttle.
type NotifierConfig struct {
	Rate  float64 // messages per second
	Burst int
}

// NewNotifier creates a new Notifier.
func NewNotifier(session *discordgo.Session, config NotifierConfig) *Notifier {
	return newNotifier(session, config)
}

func newNotifier(sender channelSender, config NotifierConfig) *Notifier {
	if config.Rate <= 0 {
		config.Rate = DefaultNotifyRate
	}
	if config.Burst <= 0 {
		config.Burst = DefaultNotifyBurst
	}

	return &Notifier{
		sender:   sender,
		limit:    rate.Limit(config.Rate),
		burst:    config.Burst,
		limiters: make(map[snowflake.ID]*rate.Limiter),
	}
}

// SendStatus sends a plain status line to the channel.
func (n *Notifier) SendStatus(channelID snowflake.ID, message string) error {
	if !n.allow(channelID) {
		return ErrNotificationThrottled
	}

	if _, err := n.sender.ChannelMessageSend(channelID.String(), message); err != nil {
		return fmt.Errorf("failed to send status: %w", err)
	}
	return nil
}

// SendNowPlaying sends a "Now Playing" embed to the channel.
func (n *Notifier) SendNowPlaying(channelID snowflake.ID, info *ports.NowPlayingInfo) error {
	if !n.allow(channelID) {
		return ErrNotificationThrottled
	}

	if _, err := n.sender.ChannelMessageSendEmbed(channelID.String(), nowPlayingEmbed(info)); err != nil {
		return fmt.Errorf("failed to send now playing: %w", err)
	}
	return nil
}

func (n *Notifier) allow(channelID snowflake.ID) bool {
	n.mu.Lock()
	limiter, ok := n.limiters[channelID]
	if !ok {
		limiter = rate.NewLimiter(n.limit, n.burst)
		n.limiters[channelID] = limiter
	}
	n.mu.Unlock()

	return limiter.Allow()
}

func nowPlayingEmbed(info *ports.NowPlayingInfo) *discordgo.MessageEmbed {
	artist := info.Artist
	if artist == "" {
		artist = "Unknown"
	}

	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name: "Now Playing",
		},
		Title: info.Title,
		URL:   info.URI,
		Color: colorNowPlaying,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Artist",
				Value:  artist,
				Inline: true,
			},
		},
	}

	if !info.EnqueuedAt.IsZero() {
		embed.Timestamp = info.EnqueuedAt.UTC().Format(time.RFC3339)
	}

	// Only show duration for non-stream tracks
	if !info.IsStream {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Duration",
			Value:  info.Duration,
			Inline: true,
		})
	}

	if info.RequesterName != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text:    fmt.Sprintf("Requested by %s", info.RequesterName),
			IconURL: info.RequesterAvatarURL,
		}
	}

	if info.ArtworkURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{
			URL: info.ArtworkURL,
		}
	}

	return embed
}

// Ensure Notifier implements ports.NotificationSender.
var _ ports.NotificationSender = (*Notifier)(nil)

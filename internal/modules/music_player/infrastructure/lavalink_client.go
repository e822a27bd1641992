package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

// voiceConnectionTimeout is the maximum time to wait for voice connection to be established.
const voiceConnectionTimeout = 10 * time.Second

// LavalinkAdapter wraps DisGoLink to implement the port interfaces.
// It hands out one Dispatcher per session and resolves tracks.
type LavalinkAdapter struct {
	link    disgolink.Client
	session *discordgo.Session
	botID   snowflake.ID

	voice     *voiceConnector
	publisher ports.EventPublisher
}

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address  string
	Password string
	Secure   bool
}

// NewLavalinkAdapter creates a new LavalinkAdapter.
func NewLavalinkAdapter(
	session *discordgo.Session,
	config LavalinkConfig,
) (*LavalinkAdapter, error) {
	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bot ID: %w", err)
	}

	adapter := &LavalinkAdapter{
		session: session,
		botID:   botID,
	}

	// Create DisGoLink client
	link := disgolink.New(botID,
		disgolink.WithListenerFunc(adapter.onTrackStart),
		disgolink.WithListenerFunc(adapter.onTrackEnd),
		disgolink.WithListenerFunc(adapter.onTrackException),
		disgolink.WithListenerFunc(adapter.onTrackStuck),
	)
	adapter.link = link
	adapter.voice = newVoiceConnector(link)

	// Add Lavalink node
	node, err := link.AddNode(context.Background(), disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   config.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)

	return adapter, nil
}

// Link returns the underlying DisGoLink client for event registration.
func (c *LavalinkAdapter) Link() disgolink.Client {
	return c.link
}

// Close closes all Lavalink node connections.
func (c *LavalinkAdapter) Close() {
	c.link.Close()
}

// NewDispatcher returns the dispatcher for a new session.
// The voice channel is joined lazily on the first Play.
func (c *LavalinkAdapter) NewDispatcher(guildID, voiceChannelID snowflake.ID) ports.Dispatcher {
	return &lavalinkDispatcher{
		adapter:   c,
		guildID:   guildID,
		channelID: voiceChannelID,
	}
}

// JoinChannel connects to a voice channel and returns once Lavalink has
// both halves of the voice connection.
func (c *LavalinkAdapter) JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error {
	ready := c.voice.expect(guildID)
	defer c.voice.forget(guildID)

	err := c.session.ChannelVoiceJoinManual(guildID.String(), channelID.String(), false, true)
	if err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, voiceConnectionTimeout)
	defer cancel()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to establish voice connection: %w", ctx.Err())
	}
}

// LeaveChannel disconnects from the voice channel.
func (c *LavalinkAdapter) LeaveChannel(ctx context.Context, guildID snowflake.ID) error {
	// Destroy the player
	player := c.link.ExistingPlayer(guildID)
	if player != nil {
		if err := player.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy player", "guild", guildID, "error", err)
		}
	}

	// Recorded before the request so the echo cannot arrive first
	c.voice.leaving(guildID)
	err := c.session.ChannelVoiceJoinManual(guildID.String(), "", false, false)
	if err != nil {
		c.voice.consumeDeparture(guildID)
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}

// ConsumeDeparture reports whether the bot's latest disconnect from guildID
// was requested by a dispatcher rather than done to it, and forgets it.
func (c *LavalinkAdapter) ConsumeDeparture(guildID snowflake.ID) bool {
	return c.voice.consumeDeparture(guildID)
}

// lavalinkDispatcher streams one session's audio through a Lavalink player.
// It is only ever called from its session's runner.
type lavalinkDispatcher struct {
	adapter   *LavalinkAdapter
	guildID   snowflake.ID
	channelID snowflake.ID
	joined    bool
}

// Play joins the voice channel if needed and starts the song.
func (d *lavalinkDispatcher) Play(ctx context.Context, song domain.Song) error {
	if !d.joined {
		if err := d.adapter.JoinChannel(ctx, d.guildID, d.channelID); err != nil {
			return err
		}
		d.joined = true
	}

	player := d.adapter.link.Player(d.guildID)

	// Use WithEncodedTrack to avoid userData:null issue
	if err := player.Update(ctx, lavalink.WithEncodedTrack(song.SourceRef)); err != nil {
		return fmt.Errorf("failed to play track: %w", err)
	}

	return nil
}

// Pause pauses the current playback.
func (d *lavalinkDispatcher) Pause(ctx context.Context) error {
	player := d.adapter.link.Player(d.guildID)

	if err := player.Update(ctx, lavalink.WithPaused(true)); err != nil {
		return fmt.Errorf("failed to pause playback: %w", err)
	}

	return nil
}

// Resume resumes the current playback.
func (d *lavalinkDispatcher) Resume(ctx context.Context) error {
	player := d.adapter.link.Player(d.guildID)

	if err := player.Update(ctx, lavalink.WithPaused(false)); err != nil {
		return fmt.Errorf("failed to resume playback: %w", err)
	}

	return nil
}

// Stop stops the current playback.
func (d *lavalinkDispatcher) Stop(ctx context.Context) error {
	player := d.adapter.link.ExistingPlayer(d.guildID)
	if player == nil {
		return nil
	}

	if err := player.Update(ctx, lavalink.WithNullTrack()); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}

	return nil
}

// Close destroys the player and leaves the voice channel.
func (d *lavalinkDispatcher) Close(ctx context.Context) error {
	if !d.joined {
		return nil
	}
	d.joined = false
	return d.adapter.LeaveChannel(ctx, d.guildID)
}

// LoadTracks loads tracks from Lavalink.
func (c *LavalinkAdapter) LoadTracks(
	ctx context.Context,
	query string,
) (*ports.Resolution, error) {
	node := c.link.BestNode()
	if node == nil {
		return nil, fmt.Errorf("no available Lavalink node")
	}

	result, err := node.LoadTracks(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}

	return c.convertLoadResult(result), nil
}

// convertLoadResult maps a Lavalink load result onto a Resolution.
func (c *LavalinkAdapter) convertLoadResult(result *lavalink.LoadResult) *ports.Resolution {
	switch data := result.Data.(type) {
	case lavalink.Track:
		return &ports.Resolution{
			Kind:   ports.ResolutionTrack,
			Tracks: []*ports.ResolvedTrack{c.convertTrack(data)},
		}

	case lavalink.Playlist:
		return &ports.Resolution{
			Kind:         ports.ResolutionPlaylist,
			Tracks:       c.convertTracks(data.Tracks),
			PlaylistName: data.Info.Name,
		}

	case lavalink.Search:
		return &ports.Resolution{
			Kind:   ports.ResolutionSearch,
			Tracks: c.convertTracks(data),
		}

	case lavalink.Exception:
		return &ports.Resolution{
			Kind:    ports.ResolutionFailed,
			Failure: data.Message,
		}

	default:
		return &ports.Resolution{
			Kind: ports.ResolutionEmpty,
		}
	}
}

func (c *LavalinkAdapter) convertTracks(tracks []lavalink.Track) []*ports.ResolvedTrack {
	converted := make([]*ports.ResolvedTrack, len(tracks))
	for i, track := range tracks {
		converted[i] = c.convertTrack(track)
	}
	return converted
}

// convertTrack keeps the encoded track as the song's source reference.
func (c *LavalinkAdapter) convertTrack(track lavalink.Track) *ports.ResolvedTrack {
	info := track.Info
	return &ports.ResolvedTrack{
		SourceRef:  track.Encoded,
		Title:      info.Title,
		Artist:     info.Author,
		Duration:   time.Duration(info.Length) * time.Millisecond,
		URI:        getStringPtr(info.URI),
		ArtworkURL: getStringPtr(info.ArtworkURL),
		Source:     info.SourceName,
		IsStream:   info.IsStream,
	}
}

func getStringPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// OnVoiceServerUpdate must be called from the Discord VoiceServerUpdate handler.
func (c *LavalinkAdapter) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice server update", "error", err)
		return
	}

	c.voice.onVoiceServer(guildID, event.Token, event.Endpoint)
}

// OnVoiceStateUpdate must be called from the Discord VoiceStateUpdate handler.
// Updates for other users are ignored.
func (c *LavalinkAdapter) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	if event.UserID != c.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	var channelID *snowflake.ID
	if event.ChannelID != "" {
		id, err := snowflake.Parse(event.ChannelID)
		if err != nil {
			slog.Error("failed to parse channel ID in voice state update", "error", err)
			return
		}
		channelID = &id
	}

	c.voice.onVoiceState(guildID, channelID, event.SessionID)
}

// SetEventPublisher sets the publisher that receives track end events.
func (c *LavalinkAdapter) SetEventPublisher(publisher ports.EventPublisher) {
	c.publisher = publisher
}

func (c *LavalinkAdapter) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	slog.Debug("track started", "guild", player.GuildID(), "track", event.Track.Info.Title)
}

func (c *LavalinkAdapter) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	slog.Debug("track ended", "guild", player.GuildID(), "reason", event.Reason)

	if c.publisher != nil {
		c.publisher.PublishTrackEnded(domain.TrackEndedEvent{
			GuildID:   player.GuildID(),
			SourceRef: event.Track.Encoded,
			Reason:    convertEndReason(event.Reason),
		})
	}
}

func (c *LavalinkAdapter) onTrackException(
	player disgolink.Player,
	event lavalink.TrackExceptionEvent,
) {
	slog.Warn("track exception", "guild", player.GuildID(), "error", event.Exception.Message)
}

func (c *LavalinkAdapter) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	slog.Warn("track stuck", "guild", player.GuildID(), "threshold", event.Threshold)
}

func convertEndReason(reason lavalink.TrackEndReason) domain.TrackEndReason {
	switch reason {
	case lavalink.TrackEndReasonFinished:
		return domain.TrackEndFinished
	case lavalink.TrackEndReasonLoadFailed:
		return domain.TrackEndLoadFailed
	case lavalink.TrackEndReasonStopped:
		return domain.TrackEndStopped
	case lavalink.TrackEndReasonReplaced:
		return domain.TrackEndReplaced
	case lavalink.TrackEndReasonCleanup:
		return domain.TrackEndCleanup
	default:
		return domain.TrackEndStopped
	}
}

// Ensure LavalinkAdapter implements port interfaces.
var (
	_ ports.DispatcherFactory = (*LavalinkAdapter)(nil)
	_ ports.TrackResolver     = (*LavalinkAdapter)(nil)
	_ ports.DepartureTracker  = (*LavalinkAdapter)(nil)
	_ ports.Dispatcher        = (*lavalinkDispatcher)(nil)
)

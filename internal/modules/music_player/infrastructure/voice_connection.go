package infrastructure

import (
	"context"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// voiceForwarder receives completed voice connection data.
// disgolink.Client satisfies it.
type voiceForwarder interface {
	OnVoiceStateUpdate(ctx context.Context, guildID snowflake.ID, channelID *snowflake.ID, sessionID string)
	OnVoiceServerUpdate(ctx context.Context, guildID snowflake.ID, token string, endpoint string)
}

// voiceCredentials are the two halves Lavalink needs to open a voice connection.
type voiceCredentials struct {
	channelID *snowflake.ID
	sessionID string
	token     string
	endpoint  string
}

// voiceHandshake buffers one guild's voice state and voice server updates.
// Discord may deliver them in either order; Lavalink rejects a partial state.
type voiceHandshake struct {
	hasState  bool
	hasServer bool
	creds     voiceCredentials
}

func (h *voiceHandshake) setState(channelID *snowflake.ID, sessionID string) {
	h.hasState = true
	h.creds.channelID = channelID
	h.creds.sessionID = sessionID
}

func (h *voiceHandshake) setServer(token, endpoint string) {
	h.hasServer = true
	h.creds.token = token
	h.creds.endpoint = endpoint
}

// take returns the credentials and resets the handshake once both halves are in.
func (h *voiceHandshake) take() (voiceCredentials, bool) {
	if !h.hasState || !h.hasServer {
		return voiceCredentials{}, false
	}
	creds := h.creds
	*h = voiceHandshake{}
	return creds, true
}

// voiceConnector pairs voice updates per guild, forwards complete pairs and
// wakes whoever is waiting for that guild's connection. It also remembers
// leaves the bot requested itself, so their disconnect echo is not mistaken
// for the bot being kicked from a session started in the meantime.
type voiceConnector struct {
	forwarder voiceForwarder

	mu         sync.Mutex
	handshakes map[snowflake.ID]*voiceHandshake
	waiters    map[snowflake.ID]chan struct{}
	connected  map[snowflake.ID]bool
	departing  map[snowflake.ID]bool
}

func newVoiceConnector(forwarder voiceForwarder) *voiceConnector {
	return &voiceConnector{
		forwarder:  forwarder,
		handshakes: make(map[snowflake.ID]*voiceHandshake),
		waiters:    make(map[snowflake.ID]chan struct{}),
		connected:  make(map[snowflake.ID]bool),
		departing:  make(map[snowflake.ID]bool),
	}
}

// leaving records that the bot is about to leave guildID's voice channel.
// Nothing is recorded when the bot is already out, as after being kicked,
// because Discord has no disconnect left to report.
func (v *voiceConnector) leaving(guildID snowflake.ID) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.connected[guildID] {
		v.departing[guildID] = true
	}
	v.connected[guildID] = false
}

// consumeDeparture reports whether the last disconnect in guildID was one the
// bot requested, and forgets it.
func (v *voiceConnector) consumeDeparture(guildID snowflake.ID) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	departed := v.departing[guildID]
	delete(v.departing, guildID)
	return departed
}

// expect registers interest in the next completed connection for guildID.
// The returned channel is closed once it has been forwarded.
func (v *voiceConnector) expect(guildID snowflake.ID) <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()

	ready := make(chan struct{})
	v.waiters[guildID] = ready
	return ready
}

// forget drops a waiter registered with expect.
func (v *voiceConnector) forget(guildID snowflake.ID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.waiters, guildID)
}

// onVoiceState handles the bot's own voice state. A nil channel means the
// bot left: an external disconnect is forwarded at once, while the echo of a
// requested leave is not, since that player is already destroyed and a new
// one may be connecting.
func (v *voiceConnector) onVoiceState(guildID snowflake.ID, channelID *snowflake.ID, sessionID string) {
	if channelID == nil {
		v.mu.Lock()
		requested := v.departing[guildID]
		if !requested {
			// A new connection's handshake may already be underway after a
			// requested leave, so it is only dropped on a real disconnect.
			delete(v.handshakes, guildID)
			v.connected[guildID] = false
		}
		v.mu.Unlock()

		if !requested {
			v.forwarder.OnVoiceStateUpdate(context.Background(), guildID, nil, sessionID)
		}
		return
	}

	v.mu.Lock()
	// A pending leave echo is kept: handlers for separate gateway events run
	// concurrently, so it may still be on its way.
	v.connected[guildID] = true
	handshake := v.handshakeLocked(guildID)
	handshake.setState(channelID, sessionID)
	creds, ok := handshake.take()
	v.mu.Unlock()

	if ok {
		v.forward(guildID, creds)
	}
}

func (v *voiceConnector) onVoiceServer(guildID snowflake.ID, token, endpoint string) {
	v.mu.Lock()
	handshake := v.handshakeLocked(guildID)
	handshake.setServer(token, endpoint)
	creds, ok := handshake.take()
	v.mu.Unlock()

	if ok {
		v.forward(guildID, creds)
	}
}

func (v *voiceConnector) handshakeLocked(guildID snowflake.ID) *voiceHandshake {
	handshake, ok := v.handshakes[guildID]
	if !ok {
		handshake = &voiceHandshake{}
		v.handshakes[guildID] = handshake
	}
	return handshake
}

// forward hands the state to Lavalink before the server so the node has a
// session ID when it connects.
func (v *voiceConnector) forward(guildID snowflake.ID, creds voiceCredentials) {
	slog.Debug("forwarding voice connection to Lavalink",
		"guild", guildID,
		"channel", creds.channelID,
		"has_session_id", creds.sessionID != "",
	)

	ctx := context.Background()
	v.forwarder.OnVoiceStateUpdate(ctx, guildID, creds.channelID, creds.sessionID)
	v.forwarder.OnVoiceServerUpdate(ctx, guildID, creds.token, creds.endpoint)

	v.mu.Lock()
	ready, ok := v.waiters[guildID]
	delete(v.waiters, guildID)
	v.mu.Unlock()

	if ok {
		close(ready)
	}
}

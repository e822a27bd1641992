package infrastructure

import (
	"context"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

// DefaultEventBufferSize is the default buffer size for event channels.
const DefaultEventBufferSize = 100

var (
	_ ports.EventPublisher  = (*ChannelEventBus)(nil)
	_ ports.EventSubscriber = (*ChannelEventBus)(nil)
)

// topic is one event type's buffered channel and its subscribers.
// Each topic is drained by its own goroutine, so events of one type are
// delivered in publish order and a slow handler only delays its own type.
type topic[T any] struct {
	name     string
	events   chan T
	guildOf  func(T) snowflake.ID
	handlers []func(context.Context, T)
}

func newTopic[T any](name string, size int, guildOf func(T) snowflake.ID) *topic[T] {
	return &topic[T]{
		name:    name,
		events:  make(chan T, size),
		guildOf: guildOf,
	}
}

// ChannelEventBus delivers session events to subscribers asynchronously.
// Publishing never blocks: when a topic's buffer is full the event is dropped.
type ChannelEventBus struct {
	trackEnded      *topic[domain.TrackEndedEvent]
	playbackStarted *topic[domain.PlaybackStartedEvent]
	status          *topic[domain.StatusEvent]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewChannelEventBus creates a bus whose topics buffer bufferSize events each.
// A non-positive size selects DefaultEventBufferSize.
func NewChannelEventBus(bufferSize int) *ChannelEventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	b := &ChannelEventBus{
		trackEnded: newTopic(
			"TrackEnded", bufferSize,
			func(e domain.TrackEndedEvent) snowflake.ID { return e.GuildID },
		),
		playbackStarted: newTopic(
			"PlaybackStarted", bufferSize,
			func(e domain.PlaybackStartedEvent) snowflake.ID { return e.GuildID },
		),
		status: newTopic(
			"Status", bufferSize,
			func(e domain.StatusEvent) snowflake.ID { return e.GuildID },
		),
		ctx:    ctx,
		cancel: cancel,
	}

	b.wg.Add(3)
	go dispatch(b, b.trackEnded)
	go dispatch(b, b.playbackStarted)
	go dispatch(b, b.status)

	return b
}

func dispatch[T any](b *ChannelEventBus, t *topic[T]) {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-t.events:
			if !ok {
				return
			}
			b.mu.RLock()
			handlers := t.handlers
			b.mu.RUnlock()
			for _, handler := range handlers {
				handler(b.ctx, event)
			}
		}
	}
}

func publish[T any](b *ChannelEventBus, t *topic[T], event T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", t.name)
		return
	}

	select {
	case t.events <- event:
		slog.Debug("published event", "type", t.name, "guild", t.guildOf(event))
	default:
		slog.Warn("event buffer full, dropping event", "type", t.name, "guild", t.guildOf(event))
	}
}

func subscribe[T any](b *ChannelEventBus, t *topic[T], handler func(context.Context, T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t.handlers = append(t.handlers, handler)
}

// PublishTrackEnded queues a TrackEndedEvent.
func (b *ChannelEventBus) PublishTrackEnded(event domain.TrackEndedEvent) {
	publish(b, b.trackEnded, event)
}

// PublishPlaybackStarted queues a PlaybackStartedEvent.
func (b *ChannelEventBus) PublishPlaybackStarted(event domain.PlaybackStartedEvent) {
	publish(b, b.playbackStarted, event)
}

// PublishStatus queues a StatusEvent.
func (b *ChannelEventBus) PublishStatus(event domain.StatusEvent) {
	publish(b, b.status, event)
}

// OnTrackEnded registers a handler for TrackEndedEvent.
func (b *ChannelEventBus) OnTrackEnded(handler func(context.Context, domain.TrackEndedEvent)) {
	subscribe(b, b.trackEnded, handler)
}

// OnPlaybackStarted registers a handler for PlaybackStartedEvent.
func (b *ChannelEventBus) OnPlaybackStarted(
	handler func(context.Context, domain.PlaybackStartedEvent),
) {
	subscribe(b, b.playbackStarted, handler)
}

// OnStatus registers a handler for StatusEvent.
func (b *ChannelEventBus) OnStatus(handler func(context.Context, domain.StatusEvent)) {
	subscribe(b, b.status, handler)
}

// Close stops the dispatchers and waits for in-flight handlers to return.
// Events still buffered are discarded. Close is idempotent.
func (b *ChannelEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()

	close(b.trackEnded.events)
	close(b.playbackStarted.events)
	close(b.status.events)

	b.wg.Wait()

	slog.Debug("channel event bus closed")
}

package usecases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/session"
	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

func mockSong(ref string) domain.Song {
	return domain.NewSong(
		"encoded-"+ref,
		"Song "+ref,
		"Artist",
		"https://example.com/"+ref,
		3*time.Minute,
		false,
		snowflake.ID(123),
	)
}

type mockDispatcher struct {
	playErr   error
	pauseErr  error
	resumeErr error
	stopErr   error
	closeErr  error

	played  []string
	pauses  int
	resumes int
	stops   int
	closes  int

	onClose func()
}

func (m *mockDispatcher) Play(_ context.Context, song domain.Song) error {
	if m.playErr != nil {
		return m.playErr
	}
	m.played = append(m.played, song.SourceRef)
	return nil
}

func (m *mockDispatcher) Pause(_ context.Context) error {
	if m.pauseErr != nil {
		return m.pauseErr
	}
	m.pauses++
	return nil
}

func (m *mockDispatcher) Resume(_ context.Context) error {
	if m.resumeErr != nil {
		return m.resumeErr
	}
	m.resumes++
	return nil
}

func (m *mockDispatcher) Stop(_ context.Context) error {
	if m.stopErr != nil {
		return m.stopErr
	}
	m.stops++
	return nil
}

func (m *mockDispatcher) Close(_ context.Context) error {
	m.closes++
	if m.onClose != nil {
		m.onClose()
	}
	return m.closeErr
}

// mockDispatcherFactory hands out the same dispatcher to every session so
// tests can configure failures up front and inspect calls afterwards.
type mockDispatcherFactory struct {
	dispatcher *mockDispatcher
}

func (m *mockDispatcherFactory) NewDispatcher(_, _ snowflake.ID) ports.Dispatcher {
	return m.dispatcher
}

// mockDepartureTracker records leaves the way the voice adapter does when a
// dispatcher closes.
type mockDepartureTracker struct {
	mu       sync.Mutex
	departed map[snowflake.ID]bool
}

func newMockDepartureTracker() *mockDepartureTracker {
	return &mockDepartureTracker{departed: make(map[snowflake.ID]bool)}
}

func (m *mockDepartureTracker) record(guildID snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.departed[guildID] = true
}

func (m *mockDepartureTracker) ConsumeDeparture(guildID snowflake.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	departed := m.departed[guildID]
	delete(m.departed, guildID)
	return departed
}

type mockVoiceStateProvider struct {
	channels  map[snowflake.ID]snowflake.ID // userID -> channelID
	listeners map[snowflake.ID]int          // channelID -> non-bot members
	err       error
}

func newMockVoiceStateProvider() *mockVoiceStateProvider {
	return &mockVoiceStateProvider{
		channels:  make(map[snowflake.ID]snowflake.ID),
		listeners: make(map[snowflake.ID]int),
	}
}

func (m *mockVoiceStateProvider) GetUserVoiceChannel(
	_, userID snowflake.ID,
) (*snowflake.ID, error) {
	if m.err != nil {
		return nil, m.err
	}
	channelID, ok := m.channels[userID]
	if !ok {
		return nil, nil
	}
	return &channelID, nil
}

func (m *mockVoiceStateProvider) CountListeners(_, channelID snowflake.ID) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.listeners[channelID], nil
}

type mockEventPublisher struct {
	trackEnded      []domain.TrackEndedEvent
	playbackStarted []domain.PlaybackStartedEvent
	status          []domain.StatusEvent
}

func (m *mockEventPublisher) PublishTrackEnded(event domain.TrackEndedEvent) {
	m.trackEnded = append(m.trackEnded, event)
}

func (m *mockEventPublisher) PublishPlaybackStarted(event domain.PlaybackStartedEvent) {
	m.playbackStarted = append(m.playbackStarted, event)
}

func (m *mockEventPublisher) PublishStatus(event domain.StatusEvent) {
	m.status = append(m.status, event)
}

type mockTrackResolver struct {
	loadErr    error
	loadResult *ports.Resolution
	lastQuery  string
}

func (m *mockTrackResolver) LoadTracks(_ context.Context, query string) (*ports.Resolution, error) {
	m.lastQuery = query
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.loadResult, nil
}

type mockSettingsRepository struct {
	settings map[snowflake.ID]domain.GuildSettings
	getErr   error
	saveErr  error
	saves    int
}

func newMockSettingsRepository() *mockSettingsRepository {
	return &mockSettingsRepository{
		settings: make(map[snowflake.ID]domain.GuildSettings),
	}
}

func (m *mockSettingsRepository) Get(_ context.Context, guildID snowflake.ID) (domain.GuildSettings, error) {
	if m.getErr != nil {
		return domain.GuildSettings{}, m.getErr
	}
	settings, ok := m.settings[guildID]
	if !ok {
		return domain.GuildSettings{VoteSkipEnabled: true, VoteClearEnabled: true}, nil
	}
	return settings, nil
}

func (m *mockSettingsRepository) Save(_ context.Context, guildID snowflake.ID, settings domain.GuildSettings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.settings[guildID] = settings
	return nil
}

// newTestStore creates a session store whose sessions all share dispatcher.
func newTestStore(t *testing.T, dispatcher *mockDispatcher) *session.Store {
	t.Helper()

	store := session.NewStore(&mockDispatcherFactory{dispatcher: dispatcher}, time.Second)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = store.Shutdown(ctx)
	})
	return store
}

// seedSession creates a playing session holding songs without touching the dispatcher.
func seedSession(
	t *testing.T,
	store *session.Store,
	guildID, voiceChannelID, textChannelID snowflake.ID,
	songs ...domain.Song,
) {
	t.Helper()

	err := store.UpdateOrCreate(
		context.Background(),
		guildID,
		voiceChannelID,
		textChannelID,
		func(_ context.Context, s *domain.Session, _ ports.Dispatcher) error {
			for _, song := range songs {
				s.Enqueue(song)
			}
			return nil
		},
	)
	if err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
}

// inspect runs fn against the guild's session, failing the test if there is none.
func inspect(t *testing.T, store *session.Store, guildID snowflake.ID, fn func(*domain.Session)) {
	t.Helper()

	err := store.Update(context.Background(), guildID, func(_ context.Context, s *domain.Session, _ ports.Dispatcher) error {
		fn(s)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to inspect session: %v", err)
	}
}

// mutate runs fn against the guild's session, failing the test on error.
func mutate(t *testing.T, store *session.Store, guildID snowflake.ID, fn func(*domain.Session) error) {
	t.Helper()

	err := store.Update(context.Background(), guildID, func(_ context.Context, s *domain.Session, _ ports.Dispatcher) error {
		return fn(s)
	})
	if err != nil {
		t.Fatalf("failed to mutate session: %v", err)
	}
}

type sessionFixture struct {
	store      *session.Store
	dispatcher *mockDispatcher
	publisher  *mockEventPublisher
	voiceState *mockVoiceStateProvider
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	dispatcher := &mockDispatcher{}
	return &sessionFixture{
		store:      newTestStore(t, dispatcher),
		dispatcher: dispatcher,
		publisher:  &mockEventPublisher{},
		voiceState: newMockVoiceStateProvider(),
	}
}

// assertErrorMatches checks err against want by identity, or by type for
// *DispatcherError.
func assertErrorMatches(t *testing.T, err, want error) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error %v, got nil", want)
	}

	if _, ok := want.(*DispatcherError); ok {
		var dispatcherErr *DispatcherError
		if !errors.As(err, &dispatcherErr) {
			t.Fatalf("expected DispatcherError, got %v", err)
		}
		return
	}

	if !errors.Is(err, want) {
		t.Fatalf("expected error %v, got %v", want, err)
	}
}

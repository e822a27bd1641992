package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sglre6355/machobot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

type fakeDispatcher struct {
	mu      sync.Mutex
	played  []string
	closed  int
	playErr error
}

func (d *fakeDispatcher) Play(_ context.Context, song domain.Song) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.playErr != nil {
		return d.playErr
	}
	d.played = append(d.played, song.SourceRef)
	return nil
}

func (d *fakeDispatcher) Pause(context.Context) error  { return nil }
func (d *fakeDispatcher) Resume(context.Context) error { return nil }
func (d *fakeDispatcher) Stop(context.Context) error   { return nil }

func (d *fakeDispatcher) Close(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	return nil
}

func (d *fakeDispatcher) closeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type fakeFactory struct {
	mu          sync.Mutex
	dispatchers []*fakeDispatcher
	playErr     error
}

func (f *fakeFactory) NewDispatcher(snowflake.ID, snowflake.ID) ports.Dispatcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := &fakeDispatcher{playErr: f.playErr}
	f.dispatchers = append(f.dispatchers, d)
	return d
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dispatchers)
}

func enqueue(ref string) Operation {
	return func(ctx context.Context, s *domain.Session, d ports.Dispatcher) error {
		song := domain.NewSong(ref, "Song "+ref, "", "", time.Minute, false, 1)
		if _, start := s.Enqueue(song); start {
			return d.Play(ctx, song)
		}
		return nil
	}
}

func newTestStore(t *testing.T, factory *fakeFactory) *Store {
	t.Helper()
	store := NewStore(factory, time.Second)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = store.Shutdown(ctx)
	})
	return store
}

func TestStore_UpdateOrCreate_CreatesSession(t *testing.T) {
	factory := &fakeFactory{}
	store := newTestStore(t, factory)

	err := store.UpdateOrCreate(context.Background(), 1, 10, 20, enqueue("a"))
	require.NoError(t, err)

	r, ok := store.Get(1)
	require.True(t, ok)
	assert.Equal(t, snowflake.ID(1), r.GuildID())
	assert.NotEmpty(t, r.ID())
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 1, factory.count())
}

func TestStore_Update_NotFound(t *testing.T) {
	store := newTestStore(t, &fakeFactory{})

	err := store.Update(context.Background(), 1, func(context.Context, *domain.Session, ports.Dispatcher) error {
		t.Fatal("operation must not run")
		return nil
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ConcurrentFirstEnqueue(t *testing.T) {
	factory := &fakeFactory{}
	store := newTestStore(t, factory)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.UpdateOrCreate(context.Background(), 1, 10, 20, enqueue(fmt.Sprintf("song-%d", i)))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var length int
	err := store.Update(context.Background(), 1, func(_ context.Context, s *domain.Session, _ ports.Dispatcher) error {
		length = s.Len()
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, n, length)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 1, factory.count())
}

func TestStore_DrainedSessionIsRemoved(t *testing.T) {
	factory := &fakeFactory{}
	store := newTestStore(t, factory)

	require.NoError(t, store.UpdateOrCreate(context.Background(), 1, 10, 20, enqueue("a")))
	r, ok := store.Get(1)
	require.True(t, ok)

	err := store.Update(context.Background(), 1, func(_ context.Context, s *domain.Session, _ ports.Dispatcher) error {
		s.Clear()
		return nil
	})
	require.NoError(t, err)

	_, ok = store.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 1, factory.dispatchers[0].closeCount())

	select {
	case <-r.Done():
	default:
		t.Fatal("expected runner to be stopped")
	}

	assert.ErrorIs(t, r.Do(context.Background(), enqueue("b")), ErrSessionClosed)
}

func TestStore_NewSessionAfterDrain(t *testing.T) {
	factory := &fakeFactory{}
	store := newTestStore(t, factory)

	require.NoError(t, store.UpdateOrCreate(context.Background(), 1, 10, 20, enqueue("a")))
	require.NoError(t, store.Update(context.Background(), 1, func(_ context.Context, s *domain.Session, _ ports.Dispatcher) error {
		s.Advance()
		return nil
	}))
	require.NoError(t, store.UpdateOrCreate(context.Background(), 1, 10, 20, enqueue("b")))

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 2, factory.count())
}

func TestStore_FailedOperationRollsBack(t *testing.T) {
	store := newTestStore(t, &fakeFactory{})
	require.NoError(t, store.UpdateOrCreate(context.Background(), 1, 10, 20, enqueue("a")))

	boom := errors.New("boom")
	err := store.Update(context.Background(), 1, func(_ context.Context, s *domain.Session, _ ports.Dispatcher) error {
		s.Enqueue(domain.NewSong("b", "b", "", "", time.Minute, false, 1))
		_, _ = s.RegisterVote(domain.VoteKindSkip, 100)
		_ = s.Pause(domain.PauseCauseCommand)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = store.Update(context.Background(), 1, func(_ context.Context, s *domain.Session, _ ports.Dispatcher) error {
		assert.Equal(t, 1, s.Len())
		assert.True(t, s.IsPlaying())
		assert.Equal(t, 0, s.Votes(domain.VoteKindSkip))
		return nil
	})
	require.NoError(t, err)
}

func TestStore_FailedFirstPlayLeavesNoSession(t *testing.T) {
	factory := &fakeFactory{playErr: errors.New("lavalink unavailable")}
	store := newTestStore(t, factory)

	err := store.UpdateOrCreate(context.Background(), 1, 10, 20, enqueue("a"))
	require.Error(t, err)

	_, ok := store.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 1, factory.dispatchers[0].closeCount())
}

func TestStore_GuildsAreIndependent(t *testing.T) {
	store := newTestStore(t, &fakeFactory{})
	require.NoError(t, store.UpdateOrCreate(context.Background(), 1, 10, 20, enqueue("a")))

	blocked := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = store.Update(context.Background(), 1, func(context.Context, *domain.Session, ports.Dispatcher) error {
			close(blocked)
			<-release
			return nil
		})
	}()
	<-blocked
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, store.UpdateOrCreate(ctx, 2, 30, 40, enqueue("b")))
	assert.Equal(t, 2, store.Len())
}

func TestStore_Shutdown(t *testing.T) {
	factory := &fakeFactory{}
	store := NewStore(factory, time.Second)

	require.NoError(t, store.UpdateOrCreate(context.Background(), 1, 10, 20, enqueue("a")))
	require.NoError(t, store.UpdateOrCreate(context.Background(), 2, 30, 40, enqueue("b")))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, store.Shutdown(ctx))

	assert.Equal(t, 0, store.Len())
	for _, d := range factory.dispatchers {
		assert.Equal(t, 1, d.closeCount())
	}

	err := store.UpdateOrCreate(context.Background(), 3, 50, 60, enqueue("c"))
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestStore_ShutdownRacingCreation(t *testing.T) {
	for j := 0; j < 20; j++ {
		factory := &fakeFactory{}
		store := NewStore(factory, time.Second)

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(guildID snowflake.ID) {
				defer wg.Done()
				_, _ = store.GetOrCreate(guildID, 10, 20)
			}(snowflake.ID(i + 1))
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		require.NoError(t, store.Shutdown(ctx))
		cancel()

		// Every runner that started was waited for, so its dispatcher is closed.
		factory.mu.Lock()
		dispatchers := append([]*fakeDispatcher(nil), factory.dispatchers...)
		factory.mu.Unlock()
		for _, d := range dispatchers {
			assert.Equal(t, 1, d.closeCount())
		}

		wg.Wait()
		_, err := store.GetOrCreate(99, 10, 20)
		assert.ErrorIs(t, err, ErrStoreClosed)
	}
}

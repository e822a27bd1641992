package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/ports"
)

var (
	// ErrNotFound is returned when no session exists for the guild.
	ErrNotFound = errors.New("no active session in this server")

	// ErrSessionClosed is returned when an operation reaches a runner that
	// already terminated.
	ErrSessionClosed = errors.New("session closed")

	// ErrStoreClosed is returned after Shutdown.
	ErrStoreClosed = errors.New("session store is shut down")
)

// dispatcherTimeout is used when the store is created without one.
const dispatcherTimeout = 5 * time.Second

// Store maps guild IDs to their session runner.
// Creation and removal are atomic per guild; guilds never contend on a shared lock.
type Store struct {
	runners sync.Map // snowflake.ID -> *Runner
	factory ports.DispatcherFactory
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// lifecycle is read-held while a runner starts and write-held while
	// Shutdown closes the store, so no runner starts after Shutdown waits.
	lifecycle sync.RWMutex
	closed    bool
}

// NewStore creates a Store. timeout bounds every operation's dispatcher calls.
func NewStore(factory ports.DispatcherFactory, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = dispatcherTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		factory: factory,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Get returns the runner for the guild, if any.
func (s *Store) Get(guildID snowflake.ID) (*Runner, bool) {
	v, ok := s.runners.Load(guildID)
	if !ok {
		return nil, false
	}
	return v.(*Runner), true
}

// GetOrCreate returns the guild's runner, starting a new one bound to the
// given channels if none exists.
func (s *Store) GetOrCreate(guildID, voiceChannelID, textChannelID snowflake.ID) (*Runner, error) {
	if r, ok := s.Get(guildID); ok {
		return r, nil
	}

	s.lifecycle.RLock()
	defer s.lifecycle.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	r := newRunner(s, guildID, voiceChannelID, textChannelID)
	actual, loaded := s.runners.LoadOrStore(guildID, r)
	if loaded {
		return actual.(*Runner), nil
	}

	r.dispatcher = s.factory.NewDispatcher(guildID, voiceChannelID)
	s.wg.Add(1)
	go r.run(s.ctx)

	return r, nil
}

// Update applies op to the guild's session.
// Returns ErrNotFound if the guild has no session.
func (s *Store) Update(ctx context.Context, guildID snowflake.ID, op Operation) error {
	r, ok := s.Get(guildID)
	if !ok {
		return ErrNotFound
	}

	err := r.Do(ctx, op)
	if errors.Is(err, ErrSessionClosed) {
		return ErrNotFound
	}
	return err
}

// UpdateOrCreate applies op to the guild's session, creating it first if needed.
// If the runner terminates between lookup and submission, a fresh one is created.
func (s *Store) UpdateOrCreate(
	ctx context.Context,
	guildID, voiceChannelID, textChannelID snowflake.ID,
	op Operation,
) error {
	for {
		r, err := s.GetOrCreate(guildID, voiceChannelID, textChannelID)
		if err != nil {
			return err
		}

		err = r.Do(ctx, op)
		if !errors.Is(err, ErrSessionClosed) {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Len returns the number of active sessions.
func (s *Store) Len() int {
	n := 0
	s.runners.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Shutdown terminates every session and waits for the runners to exit.
func (s *Store) Shutdown(ctx context.Context) error {
	s.lifecycle.Lock()
	s.closed = true
	s.lifecycle.Unlock()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) remove(r *Runner) {
	s.runners.CompareAndDelete(r.GuildID(), r)
}

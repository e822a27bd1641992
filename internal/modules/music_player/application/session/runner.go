package session

import (
	"context"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

// Operation is a mutation applied to one session. The dispatcher calls it
// makes are bounded by ctx. If it returns an error, every change it made to
// the session is rolled back.
type Operation func(ctx context.Context, s *domain.Session, d ports.Dispatcher) error

type request struct {
	ctx    context.Context
	op     Operation
	result chan error
}

// Runner owns one guild's session and applies operations to it one at a
// time on its own goroutine.
type Runner struct {
	id         string
	guildID    snowflake.ID
	store      *Store
	session    *domain.Session
	dispatcher ports.Dispatcher
	mailbox    chan request
	done       chan struct{}
}

func newRunner(store *Store, guildID, voiceChannelID, textChannelID snowflake.ID) *Runner {
	return &Runner{
		id:      uuid.NewString(),
		guildID: guildID,
		store:   store,
		session: domain.NewSession(guildID, voiceChannelID, textChannelID),
		mailbox: make(chan request),
		done:    make(chan struct{}),
	}
}

// ID returns the runner instance ID used for log correlation.
func (r *Runner) ID() string {
	return r.id
}

// GuildID returns the guild the runner serves.
func (r *Runner) GuildID() snowflake.ID {
	return r.guildID
}

// Done is closed once the runner has stopped accepting operations.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Do submits op and waits for its result.
// Returns ErrSessionClosed if the session terminated before op was accepted.
func (r *Runner) Do(ctx context.Context, op Operation) error {
	req := request{ctx: ctx, op: op, result: make(chan error, 1)}

	select {
	case r.mailbox <- req:
	case <-r.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	// Accepted operations always run to completion; their dispatcher calls
	// are bounded by the store's timeout.
	return <-req.result
}

func (r *Runner) run(ctx context.Context) {
	defer r.store.wg.Done()

	slog.Debug("session started", "guild", r.GuildID(), "session", r.id)

	for {
		select {
		case <-ctx.Done():
			r.terminate(nil)
			return
		case req := <-r.mailbox:
			err := r.apply(req)
			if r.session.IsDrained() {
				r.terminate(func() { req.result <- err })
				return
			}
			req.result <- err
		}
	}
}

func (r *Runner) apply(req request) error {
	ctx, cancel := context.WithTimeout(req.ctx, r.store.timeout)
	defer cancel()

	checkpoint := r.session.Checkpoint()
	if err := req.op(ctx, r.session, r.dispatcher); err != nil {
		r.session.Restore(checkpoint)
		slog.Debug("session operation rolled back",
			"guild", r.GuildID(),
			"session", r.id,
			"error", err,
		)
		return err
	}
	return nil
}

// terminate releases the dispatcher, removes the runner from the store and
// closes done. reply, if set, runs after removal so a caller reacting to the
// result already sees the session gone.
func (r *Runner) terminate(reply func()) {
	ctx, cancel := context.WithTimeout(context.Background(), r.store.timeout)
	defer cancel()

	if err := r.dispatcher.Close(ctx); err != nil {
		slog.Warn("failed to close dispatcher",
			"guild", r.GuildID(),
			"session", r.id,
			"error", err,
		)
	}

	r.session.Terminate()
	r.store.remove(r)

	if reply != nil {
		reply()
	}
	close(r.done)

	slog.Debug("session terminated", "guild", r.GuildID(), "session", r.id)
}

package usecases

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sglre6355/machobot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/session"
	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

// PresenceService pauses playback when the bound voice channel empties and
// resumes it when someone comes back.
type PresenceService struct {
	store      *session.Store
	voiceState ports.VoiceStateProvider
	publisher  ports.EventPublisher
}

// NewPresenceService creates a new PresenceService.
func NewPresenceService(
	store *session.Store,
	voiceState ports.VoiceStateProvider,
	publisher ports.EventPublisher,
) *PresenceService {
	return &PresenceService{
		store:      store,
		voiceState: voiceState,
		publisher:  publisher,
	}
}

// HandleTransition applies a member's voice channel change to the guild's session.
// Transitions by bots, or in guilds without a session, are ignored.
//
// A departing member's votes are withdrawn in a step of their own, so they
// stay withdrawn even if pausing the emptied channel fails.
func (p *PresenceService) HandleTransition(ctx context.Context, transition domain.PresenceTransition) error {
	if transition.IsBot {
		return nil
	}

	err := p.store.Update(ctx, transition.GuildID, func(_ context.Context, s *domain.Session, _ ports.Dispatcher) error {
		if transition.Departs(s.VoiceChannelID()) {
			p.withdrawVotes(s, transition)
		}
		return nil
	})
	if err == nil {
		err = p.store.Update(ctx, transition.GuildID, func(ctx context.Context, s *domain.Session, d ports.Dispatcher) error {
			bound := s.VoiceChannelID()

			switch {
			case transition.Departs(bound):
				return p.handleDeparture(ctx, s, d)
			case transition.Arrives(bound):
				return p.handleArrival(ctx, s, d)
			default:
				return nil
			}
		})
	}
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (p *PresenceService) withdrawVotes(s *domain.Session, transition domain.PresenceTransition) {
	if s.WithdrawVotes(transition.UserID) {
		slog.Debug("withdrew votes of departed member",
			"guild", transition.GuildID,
			"user", transition.UserID,
		)
	}
}

func (p *PresenceService) handleDeparture(ctx context.Context, s *domain.Session, d ports.Dispatcher) error {
	listeners, err := p.voiceState.CountListeners(s.GuildID(), s.VoiceChannelID())
	if err != nil {
		return err
	}
	if listeners > 0 || !s.IsPlaying() {
		return nil
	}

	if err := s.Pause(domain.PauseCausePresence); err != nil {
		return err
	}
	if err := d.Pause(ctx); err != nil {
		return dispatcherError("pause", err)
	}

	p.publishStatus(s, domain.StatusAutoPaused)
	return nil
}

func (p *PresenceService) handleArrival(ctx context.Context, s *domain.Session, d ports.Dispatcher) error {
	if !s.PausedAutomatically() {
		return nil
	}

	listeners, err := p.voiceState.CountListeners(s.GuildID(), s.VoiceChannelID())
	if err != nil {
		return err
	}
	if listeners != 1 {
		return nil
	}

	if err := s.Resume(); err != nil {
		return err
	}
	if err := d.Resume(ctx); err != nil {
		return dispatcherError("resume", err)
	}

	p.publishStatus(s, domain.StatusAutoResumed)
	return nil
}

func (p *PresenceService) publishStatus(s *domain.Session, message string) {
	if p.publisher == nil {
		return
	}
	p.publisher.PublishStatus(domain.StatusEvent{
		GuildID:       s.GuildID(),
		TextChannelID: s.TextChannelID(),
		Message:       message,
	})
}

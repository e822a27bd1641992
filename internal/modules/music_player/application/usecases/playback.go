package usecases

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/session"
	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

// PauseInput contains the input for the Pause use case.
type PauseInput struct {
	GuildID       snowflake.ID
	TextChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// ResumeInput contains the input for the Resume use case.
type ResumeInput struct {
	GuildID       snowflake.ID
	TextChannelID snowflake.ID // Optional: updates notification channel if non-zero
}

// PlaybackService handles explicit pause and resume.
type PlaybackService struct {
	store *session.Store
}

// NewPlaybackService creates a new PlaybackService.
func NewPlaybackService(store *session.Store) *PlaybackService {
	return &PlaybackService{
		store: store,
	}
}

// Pause pauses the current playback. A session paused this way is never
// resumed automatically.
func (p *PlaybackService) Pause(ctx context.Context, input PauseInput) error {
	return p.store.Update(ctx, input.GuildID, func(ctx context.Context, s *domain.Session, d ports.Dispatcher) error {
		if input.TextChannelID != 0 {
			s.SetTextChannelID(input.TextChannelID)
		}

		if err := s.Pause(domain.PauseCauseCommand); err != nil {
			return err
		}
		return dispatcherError("pause", d.Pause(ctx))
	})
}

// Resume resumes the paused playback.
func (p *PlaybackService) Resume(ctx context.Context, input ResumeInput) error {
	return p.store.Update(ctx, input.GuildID, func(ctx context.Context, s *domain.Session, d ports.Dispatcher) error {
		if input.TextChannelID != 0 {
			s.SetTextChannelID(input.TextChannelID)
		}

		if err := s.Resume(); err != nil {
			return err
		}
		return dispatcherError("resume", d.Resume(ctx))
	})
}

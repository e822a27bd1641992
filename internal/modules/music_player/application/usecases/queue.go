package usecases

import (
	"context"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/session"
	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

const DefaultPageSize = 10

// EnqueueInput contains the input for the Enqueue use case.
type EnqueueInput struct {
	GuildID        snowflake.ID
	VoiceChannelID snowflake.ID // bound when this enqueue creates the session
	TextChannelID  snowflake.ID // Optional: updates notification channel if non-zero
	Song           domain.Song
}

// EnqueueOutput contains the result of the Enqueue use case.
type EnqueueOutput struct {
	Position int  // 0-indexed position in queue (0 = now playing)
	Started  bool // true if this song started playback
}

// QueueListInput contains the input for the QueueList use case.
type QueueListInput struct {
	GuildID  snowflake.ID
	Page     int // 1-indexed page number
	PageSize int // Items per page (optional, defaults to 10)
}

// QueueListOutput contains the result of the QueueList use case.
type QueueListOutput struct {
	Current     *domain.Song
	Songs       []domain.Song
	TotalSongs  int
	CurrentPage int
	TotalPages  int
	Paused      bool
}

// AdvanceInput contains the input for the Advance use case.
type AdvanceInput struct {
	GuildID   snowflake.ID
	SourceRef string // the song that ended; a mismatch with the current song is ignored
}

// QueueService handles queue operations.
type QueueService struct {
	store     *session.Store
	publisher ports.EventPublisher
}

// NewQueueService creates a new QueueService.
func NewQueueService(store *session.Store, publisher ports.EventPublisher) *QueueService {
	return &QueueService{
		store:     store,
		publisher: publisher,
	}
}

// Enqueue appends a song to the guild's queue, creating the session if needed.
// If the session was idle the song starts playing immediately.
func (q *QueueService) Enqueue(ctx context.Context, input EnqueueInput) (*EnqueueOutput, error) {
	if input.VoiceChannelID == 0 {
		return nil, ErrUserNotInVoice
	}

	var output EnqueueOutput
	err := q.store.UpdateOrCreate(
		ctx,
		input.GuildID,
		input.VoiceChannelID,
		input.TextChannelID,
		func(ctx context.Context, s *domain.Session, d ports.Dispatcher) error {
			if input.TextChannelID != 0 {
				s.SetTextChannelID(input.TextChannelID)
			}

			position, start := s.Enqueue(input.Song)
			if start {
				if err := play(ctx, s, d, q.publisher); err != nil {
					return err
				}
			}

			output = EnqueueOutput{Position: position, Started: start}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	return &output, nil
}

// List returns the current queue with pagination.
func (q *QueueService) List(ctx context.Context, input QueueListInput) (*QueueListOutput, error) {
	var songs []domain.Song
	var paused bool
	err := q.store.Update(ctx, input.GuildID, func(_ context.Context, s *domain.Session, _ ports.Dispatcher) error {
		songs = s.Songs()
		paused = s.IsPaused()
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Validate and set defaults
	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	page := input.Page
	if page <= 0 {
		page = 1
	}

	// Separate current song from queued songs
	var current *domain.Song
	var queued []domain.Song
	if len(songs) > 0 {
		current = &songs[0]
		queued = songs[1:]
	}

	// Pagination applies to queued songs only
	totalSongs := len(queued)
	totalPages := (totalSongs + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	// Clamp page to valid range
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, totalSongs)

	var pageSongs []domain.Song
	if start < totalSongs {
		pageSongs = queued[start:end]
	}

	return &QueueListOutput{
		Current:     current,
		Songs:       pageSongs,
		TotalSongs:  totalSongs,
		CurrentPage: page,
		TotalPages:  totalPages,
		Paused:      paused,
	}, nil
}

// Advance moves past a song that finished playing and starts the next one.
// A track end for a song that is no longer current is ignored.
func (q *QueueService) Advance(ctx context.Context, input AdvanceInput) error {
	return q.store.Update(ctx, input.GuildID, func(ctx context.Context, s *domain.Session, d ports.Dispatcher) error {
		current := s.Current()
		if current == nil {
			return nil
		}
		if input.SourceRef != "" && current.SourceRef != input.SourceRef {
			slog.Debug("ignoring stale track end", "guild", input.GuildID)
			return nil
		}

		if s.Advance() == nil {
			// The runner releases the dispatcher once the session drains.
			return nil
		}
		return play(ctx, s, d, q.publisher)
	})
}

// play starts the current song and announces it.
func play(ctx context.Context, s *domain.Session, d ports.Dispatcher, publisher ports.EventPublisher) error {
	current := s.Current()
	if current == nil {
		return ErrQueueEmpty
	}

	if err := d.Play(ctx, *current); err != nil {
		return dispatcherError("play", err)
	}

	if publisher != nil {
		publisher.PublishPlaybackStarted(domain.PlaybackStartedEvent{
			GuildID:       s.GuildID(),
			TextChannelID: s.TextChannelID(),
			Song:          current.Clone(),
		})
	}
	return nil
}

// skip advances past the current song, stopping the dispatcher if nothing is left.
// Returns the song that started playing, if any.
func skip(ctx context.Context, s *domain.Session, d ports.Dispatcher, publisher ports.EventPublisher) (*domain.Song, error) {
	if s.Advance() == nil {
		if err := d.Stop(ctx); err != nil {
			return nil, dispatcherError("stop", err)
		}
		return nil, nil
	}

	if err := play(ctx, s, d, publisher); err != nil {
		return nil, err
	}
	next := s.Current().Clone()
	return &next, nil
}

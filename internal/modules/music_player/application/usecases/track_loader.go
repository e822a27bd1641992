package usecases

import (
	"context"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

// LoadTrackInput contains the input for the LoadTrack use case.
type LoadTrackInput struct {
	Query       string
	RequesterID snowflake.ID
}

// LoadTrackOutput contains the result of the LoadTrack use case.
type LoadTrackOutput struct {
	Song domain.Song
}

// TrackLoaderService handles track loading operations.
type TrackLoaderService struct {
	trackResolver ports.TrackResolver
}

// NewTrackLoaderService creates a new TrackLoaderService.
func NewTrackLoaderService(trackResolver ports.TrackResolver) *TrackLoaderService {
	return &TrackLoaderService{
		trackResolver: trackResolver,
	}
}

// LoadTrack resolves a query to a song ready to enqueue.
func (s *TrackLoaderService) LoadTrack(
	ctx context.Context,
	input LoadTrackInput,
) (*LoadTrackOutput, error) {
	query := domain.NewSearchQuery(input.Query)
	if !query.IsValid() {
		return nil, ErrNoResults
	}

	result, err := s.trackResolver.LoadTracks(ctx, query.Identifier())
	if err != nil {
		return nil, err
	}

	if result.Kind == ports.ResolutionFailed {
		return nil, fmt.Errorf("%w: %s", ErrNoResults, result.Failure)
	}
	if result.Kind == ports.ResolutionEmpty || len(result.Tracks) == 0 {
		return nil, ErrNoResults
	}

	// Create song from first result
	info := result.Tracks[0]
	song := domain.NewSong(
		info.SourceRef,
		info.Title,
		info.Artist,
		info.URI,
		info.Duration,
		info.IsStream,
		input.RequesterID,
	)
	song.ArtworkURL = info.ArtworkURL

	return &LoadTrackOutput{
		Song: song,
	}, nil
}

// SearchInput contains the input for the Search use case.
type SearchInput struct {
	Query string
	Limit int // maximum results; 0 means all
}

// SearchResult is a single track suggestion.
type SearchResult struct {
	Title  string
	Artist string
	URI    string
}

// SearchOutput contains the result of the Search use case.
type SearchOutput struct {
	Results      []SearchResult
	IsPlaylist   bool
	PlaylistName string
}

// Search returns track suggestions for a partial query.
func (s *TrackLoaderService) Search(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	query := domain.NewSearchQuery(input.Query)
	if !query.IsValid() {
		return nil, ErrNoResults
	}

	result, err := s.trackResolver.LoadTracks(ctx, query.Identifier())
	if err != nil {
		return nil, err
	}
	if len(result.Tracks) == 0 {
		return nil, ErrNoResults
	}

	tracks := result.Tracks
	if input.Limit > 0 && len(tracks) > input.Limit {
		tracks = tracks[:input.Limit]
	}

	output := &SearchOutput{
		Results:      make([]SearchResult, 0, len(tracks)),
		IsPlaylist:   result.Kind == ports.ResolutionPlaylist,
		PlaylistName: result.PlaylistName,
	}
	for _, t := range tracks {
		output.Results = append(output.Results, SearchResult{
			Title:  t.Title,
			Artist: t.Artist,
			URI:    t.URI,
		})
	}

	return output, nil
}

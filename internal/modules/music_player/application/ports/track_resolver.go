package ports

import (
	"context"
	"time"
)

// TrackResolver turns a query or URL into playable tracks.
type TrackResolver interface {
	LoadTracks(ctx context.Context, query string) (*Resolution, error)
}

// ResolutionKind tells what a query resolved to.
type ResolutionKind string

const (
	ResolutionTrack    ResolutionKind = "track"
	ResolutionPlaylist ResolutionKind = "playlist"
	ResolutionSearch   ResolutionKind = "search"
	ResolutionEmpty    ResolutionKind = "empty"
	ResolutionFailed   ResolutionKind = "failed"
)

// Resolution is the outcome of resolving a query.
type Resolution struct {
	Kind         ResolutionKind
	Tracks       []*ResolvedTrack
	PlaylistName string
	// Failure holds the source's message when Kind is ResolutionFailed.
	Failure string
}

// ResolvedTrack is a track the dispatcher can play.
type ResolvedTrack struct {
	SourceRef  string // opaque reference handed back to the dispatcher
	Title      string
	Artist     string
	Duration   time.Duration
	URI        string
	ArtworkURL string
	Source     string
	IsStream   bool
}

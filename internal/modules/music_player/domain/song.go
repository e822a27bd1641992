package domain

import (
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
)

// SongID uniquely identifies one enqueued occurrence of a song.
type SongID string

// Song is one entry in a session queue.
type Song struct {
	ID          SongID
	SourceRef   string // opaque playable reference (Lavalink encoded track)
	Title       string
	Artist      string
	URI         string
	ArtworkURL  string
	Duration    time.Duration
	IsStream    bool
	RequesterID snowflake.ID
	EnqueuedAt  time.Time

	skipVotes VoteSet
}

// NewSong creates a Song with a fresh ID.
func NewSong(
	sourceRef string,
	title string,
	artist string,
	uri string,
	duration time.Duration,
	isStream bool,
	requesterID snowflake.ID,
) Song {
	return Song{
		ID:          SongID(uuid.NewString()),
		SourceRef:   sourceRef,
		Title:       title,
		Artist:      artist,
		URI:         uri,
		Duration:    duration,
		IsStream:    isStream,
		RequesterID: requesterID,
		EnqueuedAt:  time.Now().UTC(),
	}
}

// IsValid returns true if the song can be handed to a dispatcher.
func (s *Song) IsValid() bool {
	return s.SourceRef != "" && s.Title != ""
}

// SkipVotes returns the number of skip votes cast for this song.
func (s *Song) SkipVotes() int {
	return s.skipVotes.Len()
}

// HasSkipVote reports whether voterID voted to skip this song.
func (s *Song) HasSkipVote(voterID snowflake.ID) bool {
	return s.skipVotes.Has(voterID)
}

// FormattedDuration returns the duration as mm:ss or hh:mm:ss.
func (s *Song) FormattedDuration() string {
	if s.IsStream {
		return "LIVE"
	}

	totalSeconds := int(s.Duration.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return pad(hours) + ":" + pad(minutes) + ":" + pad(seconds)
	}
	return pad(minutes) + ":" + pad(seconds)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// Clone returns a deep copy, including the vote set.
func (s Song) Clone() Song {
	s.skipVotes = s.skipVotes.clone()
	return s
}

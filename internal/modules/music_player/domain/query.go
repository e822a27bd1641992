package domain

import (
	"strings"
)

// SearchSource is the Lavalink search prefix used for non-URL queries.
type SearchSource string

const (
	SourceYouTube      SearchSource = "ytsearch"
	SourceYouTubeMusic SearchSource = "ytmsearch"
	SourceSoundCloud   SearchSource = "scsearch"
	SourceDirect       SearchSource = ""
)

// SearchQuery is what a user asked /play to find.
type SearchQuery struct {
	Query  string
	Source SearchSource
	IsURL  bool
}

// NewSearchQuery creates a SearchQuery from user input.
// URLs are loaded directly; anything else searches YouTube.
func NewSearchQuery(input string) SearchQuery {
	input = strings.TrimSpace(input)

	if isURL(input) {
		return SearchQuery{Query: input, Source: SourceDirect, IsURL: true}
	}
	return SearchQuery{Query: input, Source: SourceYouTube}
}

// Identifier returns the query string formatted for Lavalink.
func (q SearchQuery) Identifier() string {
	if q.IsURL {
		return q.Query
	}
	return string(q.Source) + ":" + q.Query
}

// IsValid returns true if the query is not empty.
func (q SearchQuery) IsValid() bool {
	return q.Query != ""
}

func isURL(input string) bool {
	return strings.HasPrefix(input, "http://") ||
		strings.HasPrefix(input, "https://") ||
		strings.HasPrefix(input, "www.")
}

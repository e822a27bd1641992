package usecases

import (
	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

// Re-export domain types for presentation layer use.
// This allows presentation to depend only on usecases without importing domain directly.

// Song is an alias for domain.Song.
type Song = domain.Song

// GuildSettings is an alias for domain.GuildSettings.
type GuildSettings = domain.GuildSettings

// PresenceTransition is an alias for domain.PresenceTransition.
type PresenceTransition = domain.PresenceTransition

// VoteKind is an alias for domain.VoteKind.
type VoteKind = domain.VoteKind

const (
	VoteKindSkip  = domain.VoteKindSkip
	VoteKindClear = domain.VoteKindClear
)

// ParseVoteKind converts a string to a VoteKind.
func ParseVoteKind(s string) VoteKind {
	return domain.ParseVoteKind(s)
}

package domain

// GuildSettings holds the per-guild feature flags read by vote commands.
type GuildSettings struct {
	VoteSkipEnabled  bool
	VoteClearEnabled bool
}

// VoteEnabled returns the flag governing kind.
func (s GuildSettings) VoteEnabled(kind VoteKind) bool {
	if kind == VoteKindClear {
		return s.VoteClearEnabled
	}
	return s.VoteSkipEnabled
}

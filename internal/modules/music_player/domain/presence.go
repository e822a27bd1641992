package domain

import "github.com/disgoorg/snowflake/v2"

// PresenceTransition is a member moving between voice channels.
// A zero channel ID means "not in a voice channel".
type PresenceTransition struct {
	GuildID       snowflake.ID
	UserID        snowflake.ID
	IsBot         bool
	FromChannelID snowflake.ID
	ToChannelID   snowflake.ID
}

// Departs returns true if the member left channelID.
func (t PresenceTransition) Departs(channelID snowflake.ID) bool {
	return channelID != 0 && t.FromChannelID == channelID && t.ToChannelID != channelID
}

// Arrives returns true if the member entered channelID.
func (t PresenceTransition) Arrives(channelID snowflake.ID) bool {
	return channelID != 0 && t.ToChannelID == channelID && t.FromChannelID != channelID
}

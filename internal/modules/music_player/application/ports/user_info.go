package ports

import (
	"github.com/disgoorg/snowflake/v2"
)

// UserInfo is how a song's requester is shown in the now-playing embed.
type UserInfo struct {
	DisplayName string
	AvatarURL   string
}

// UserInfoProvider looks up the requester of a song when its playback starts.
// A failed lookup leaves the embed without a requester line.
type UserInfoProvider interface {
	// GetUserInfo returns the display name (guild nickname, then global
	// name, then username) and avatar of requesterID.
	GetUserInfo(guildID, requesterID snowflake.ID) (*UserInfo, error)
}

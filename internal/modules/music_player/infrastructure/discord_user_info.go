package infrastructure

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/ports"
)

var _ ports.UserInfoProvider = (*DiscordUserInfoProvider)(nil)

// DiscordUserInfoProvider resolves requester names and avatars for notifications.
// Members are read from the state cache and fetched over REST on a miss.
type DiscordUserInfoProvider struct {
	session *discordgo.Session
}

// NewDiscordUserInfoProvider creates a new DiscordUserInfoProvider.
func NewDiscordUserInfoProvider(session *discordgo.Session) *DiscordUserInfoProvider {
	return &DiscordUserInfoProvider{session: session}
}

// GetUserInfo returns display info for a guild member.
func (p *DiscordUserInfoProvider) GetUserInfo(
	guildID, userID snowflake.ID,
) (*ports.UserInfo, error) {
	member, err := p.member(guildID, userID)
	if err != nil {
		return nil, err
	}

	return &ports.UserInfo{
		DisplayName: displayName(member),
		AvatarURL:   member.AvatarURL(""),
	}, nil
}

func (p *DiscordUserInfoProvider) member(guildID, userID snowflake.ID) (*discordgo.Member, error) {
	if p.session.State != nil {
		member, err := p.session.State.Member(guildID.String(), userID.String())
		if err == nil && member.User != nil {
			return member, nil
		}
	}

	member, err := p.session.GuildMember(guildID.String(), userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild member: %w", err)
	}
	if member.User == nil {
		return nil, fmt.Errorf("guild member %s has no user", userID)
	}

	if p.session.State != nil && p.session.State.TrackMembers {
		member.GuildID = guildID.String()
		_ = p.session.State.MemberAdd(member)
	}

	return member, nil
}

// displayName returns the guild nickname, then the global name, then the username.
func displayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}

package infrastructure

import (
	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/ports"
)

// VoiceStateProvider provides Discord voice state information.
type VoiceStateProvider struct {
	session *discordgo.Session
}

// NewVoiceStateProvider creates a new VoiceStateProvider.
func NewVoiceStateProvider(session *discordgo.Session) *VoiceStateProvider {
	return &VoiceStateProvider{
		session: session,
	}
}

// GetUserVoiceChannel returns the voice channel ID that the user is currently in.
// Returns nil if the user is not in a voice channel.
func (v *VoiceStateProvider) GetUserVoiceChannel(
	guildID, userID snowflake.ID,
) (*snowflake.ID, error) {
	states, err := v.voiceStates(guildID)
	if err != nil {
		return nil, err
	}

	// Find user's voice state
	for _, vs := range states {
		if vs.UserID == userID.String() && vs.ChannelID != "" {
			channelID, err := snowflake.Parse(vs.ChannelID)
			if err != nil {
				return nil, err
			}
			return &channelID, nil
		}
	}

	return nil, nil
}

// CountListeners returns the number of non-bot members connected to the channel.
func (v *VoiceStateProvider) CountListeners(guildID, channelID snowflake.ID) (int, error) {
	states, err := v.voiceStates(guildID)
	if err != nil {
		return 0, err
	}

	selfID := ""
	if v.session.State.User != nil {
		selfID = v.session.State.User.ID
	}

	count := 0
	for _, vs := range states {
		if vs.ChannelID != channelID.String() || vs.UserID == selfID {
			continue
		}
		if v.isBot(guildID, vs) {
			continue
		}
		count++
	}

	return count, nil
}

// voiceStates returns a copy of the guild's cached voice states.
// The state lock is released before members are looked up.
func (v *VoiceStateProvider) voiceStates(guildID snowflake.ID) ([]discordgo.VoiceState, error) {
	guild, err := v.session.State.Guild(guildID.String())
	if err != nil {
		return nil, err
	}

	v.session.State.RLock()
	defer v.session.State.RUnlock()

	states := make([]discordgo.VoiceState, 0, len(guild.VoiceStates))
	for _, vs := range guild.VoiceStates {
		if vs != nil {
			states = append(states, *vs)
		}
	}
	return states, nil
}

func (v *VoiceStateProvider) isBot(guildID snowflake.ID, vs discordgo.VoiceState) bool {
	if vs.Member != nil && vs.Member.User != nil {
		return vs.Member.User.Bot
	}

	member, err := v.session.State.Member(guildID.String(), vs.UserID)
	if err != nil || member.User == nil {
		return false
	}
	return member.User.Bot
}

// Ensure VoiceStateProvider implements ports.VoiceStateProvider.
var _ ports.VoiceStateProvider = (*VoiceStateProvider)(nil)

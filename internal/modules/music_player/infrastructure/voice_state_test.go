package infrastructure

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testGuildID   = "100"
	testChannelID = "200"
	otherChannel  = "300"
	testBotID     = "1"
)

func newTestVoiceStateProvider(t *testing.T, states []*discordgo.VoiceState, members []*discordgo.Member) *VoiceStateProvider {
	t.Helper()

	state := discordgo.NewState()
	state.User = &discordgo.User{ID: testBotID, Bot: true}
	require.NoError(t, state.GuildAdd(&discordgo.Guild{
		ID:          testGuildID,
		VoiceStates: states,
	}))
	for _, m := range members {
		m.GuildID = testGuildID
		require.NoError(t, state.MemberAdd(m))
	}

	return NewVoiceStateProvider(&discordgo.Session{State: state})
}

func TestVoiceStateProvider_GetUserVoiceChannel(t *testing.T) {
	p := newTestVoiceStateProvider(t, []*discordgo.VoiceState{
		{UserID: "10", ChannelID: testChannelID},
	}, nil)

	ch, err := p.GetUserVoiceChannel(snowflake.ID(100), snowflake.ID(10))
	require.NoError(t, err)
	require.NotNil(t, ch)
	assert.Equal(t, snowflake.ID(200), *ch)

	ch, err = p.GetUserVoiceChannel(snowflake.ID(100), snowflake.ID(11))
	require.NoError(t, err)
	assert.Nil(t, ch)
}

func TestVoiceStateProvider_GetUserVoiceChannelUnknownGuild(t *testing.T) {
	p := newTestVoiceStateProvider(t, nil, nil)

	_, err := p.GetUserVoiceChannel(snowflake.ID(999), snowflake.ID(10))
	assert.Error(t, err)
}

func TestVoiceStateProvider_CountListeners(t *testing.T) {
	p := newTestVoiceStateProvider(t,
		[]*discordgo.VoiceState{
			{UserID: testBotID, ChannelID: testChannelID},
			{UserID: "10", ChannelID: testChannelID},
			{UserID: "11", ChannelID: testChannelID},
			{UserID: "12", ChannelID: testChannelID},
			{UserID: "13", ChannelID: otherChannel},
			{
				UserID:    "14",
				ChannelID: testChannelID,
				Member:    &discordgo.Member{User: &discordgo.User{ID: "14", Bot: true}},
			},
		},
		[]*discordgo.Member{
			{User: &discordgo.User{ID: "12", Bot: true}},
			{User: &discordgo.User{ID: "11"}},
		},
	)

	n, err := p.CountListeners(snowflake.ID(100), snowflake.ID(200))
	require.NoError(t, err)
	assert.Equal(t, 2, n, "self and bots are not listeners")

	n, err = p.CountListeners(snowflake.ID(100), snowflake.ID(300))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = p.CountListeners(snowflake.ID(100), snowflake.ID(400))
	require.NoError(t, err)
	assert.Zero(t, n)
}

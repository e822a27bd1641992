package infrastructure

import (
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsKey(t *testing.T) {
	assert.Equal(t, "machobot:guild:123:settings", settingsKey(snowflake.ID(123)))
}

func TestEncodeSettings(t *testing.T) {
	fields := encodeSettings(domain.GuildSettings{VoteSkipEnabled: true, VoteClearEnabled: false})

	assert.Equal(t, map[string]any{
		fieldVoteSkipEnabled:  "true",
		fieldVoteClearEnabled: "false",
	}, fields)
}

func TestDecodeSettings(t *testing.T) {
	defaults := domain.GuildSettings{VoteSkipEnabled: true, VoteClearEnabled: true}

	tests := []struct {
		name    string
		fields  map[string]string
		want    domain.GuildSettings
		wantErr bool
	}{
		{
			name:   "empty hash uses defaults",
			fields: map[string]string{},
			want:   defaults,
		},
		{
			name:   "partial hash overrides one flag",
			fields: map[string]string{fieldVoteClearEnabled: "false"},
			want:   domain.GuildSettings{VoteSkipEnabled: true, VoteClearEnabled: false},
		},
		{
			name: "both flags",
			fields: map[string]string{
				fieldVoteSkipEnabled:  "false",
				fieldVoteClearEnabled: "false",
			},
			want: domain.GuildSettings{},
		},
		{
			name:    "malformed value",
			fields:  map[string]string{fieldVoteSkipEnabled: "maybe"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeSettings(tt.fields, defaults)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeDecodeSettings(t *testing.T) {
	settings := domain.GuildSettings{VoteSkipEnabled: false, VoteClearEnabled: true}

	fields := make(map[string]string)
	for k, v := range encodeSettings(settings) {
		fields[k] = v.(string)
	}

	got, err := decodeSettings(fields, domain.GuildSettings{})
	require.NoError(t, err)
	assert.Equal(t, settings, got)
}

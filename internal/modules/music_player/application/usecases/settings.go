package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

// Setting names as displayed to users.
const (
	SettingVoteSkipEnabled  = "voteskipenabled"
	SettingVoteClearEnabled = "voteclearenabled"
)

var settingAliases = map[string]string{
	"voteskip":              SettingVoteSkipEnabled,
	"vs":                    SettingVoteSkipEnabled,
	SettingVoteSkipEnabled:  SettingVoteSkipEnabled,
	"voteclear":             SettingVoteClearEnabled,
	"vc":                    SettingVoteClearEnabled,
	SettingVoteClearEnabled: SettingVoteClearEnabled,
}

// SettingValue is one named setting and its current value.
type SettingValue struct {
	Name  string
	Value bool
}

// GetSettingInput contains the input for the GetSetting use case.
type GetSettingInput struct {
	GuildID snowflake.ID
	Setting string // alias accepted
}

// SetSettingInput contains the input for the SetSetting use case.
type SetSettingInput struct {
	GuildID snowflake.ID
	Setting string // alias accepted
	Value   string // "true" or "false"
}

// SetSettingOutput contains the result of the SetSetting use case.
type SetSettingOutput struct {
	Name    string
	Value   bool
	Message string
}

// SettingsService reads and updates per-guild settings.
type SettingsService struct {
	repo ports.GuildSettingsRepository
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(repo ports.GuildSettingsRepository) *SettingsService {
	return &SettingsService{
		repo: repo,
	}
}

// Get returns the guild's settings.
func (s *SettingsService) Get(ctx context.Context, guildID snowflake.ID) (domain.GuildSettings, error) {
	return s.repo.Get(ctx, guildID)
}

// List returns every setting in display order.
func (s *SettingsService) List(ctx context.Context, guildID snowflake.ID) ([]SettingValue, error) {
	settings, err := s.repo.Get(ctx, guildID)
	if err != nil {
		return nil, err
	}

	return []SettingValue{
		{Name: SettingVoteSkipEnabled, Value: settings.VoteSkipEnabled},
		{Name: SettingVoteClearEnabled, Value: settings.VoteClearEnabled},
	}, nil
}

// GetSetting returns a single setting.
func (s *SettingsService) GetSetting(ctx context.Context, input GetSettingInput) (*SettingValue, error) {
	name, err := resolveSetting(input.Setting)
	if err != nil {
		return nil, err
	}

	settings, err := s.repo.Get(ctx, input.GuildID)
	if err != nil {
		return nil, err
	}

	return &SettingValue{Name: name, Value: *settingField(&settings, name)}, nil
}

// SetSetting updates a single setting.
func (s *SettingsService) SetSetting(ctx context.Context, input SetSettingInput) (*SetSettingOutput, error) {
	name, err := resolveSetting(input.Setting)
	if err != nil {
		return nil, err
	}

	var value bool
	switch input.Value {
	case "true":
		value = true
	case "false":
		value = false
	default:
		return nil, fmt.Errorf("the setting `%s` %w", name, ErrInvalidSettingValue)
	}

	settings, err := s.repo.Get(ctx, input.GuildID)
	if err != nil {
		return nil, err
	}

	field := settingField(&settings, name)
	if *field == value {
		return nil, fmt.Errorf("the setting `%s` %w %s", name, ErrSettingUnchanged, input.Value)
	}
	*field = value

	if err := s.repo.Save(ctx, input.GuildID, settings); err != nil {
		return nil, err
	}

	return &SetSettingOutput{
		Name:    name,
		Value:   value,
		Message: settingMessage(name, value),
	}, nil
}

func resolveSetting(setting string) (string, error) {
	name, ok := settingAliases[strings.ToLower(setting)]
	if !ok {
		return "", fmt.Errorf("%s is %w", setting, ErrUnknownSetting)
	}
	return name, nil
}

func settingField(settings *domain.GuildSettings, name string) *bool {
	if name == SettingVoteClearEnabled {
		return &settings.VoteClearEnabled
	}
	return &settings.VoteSkipEnabled
}

func settingMessage(name string, value bool) string {
	verb := "no longer"
	if value {
		verb = "now"
	}

	if name == SettingVoteClearEnabled {
		return fmt.Sprintf("Users will %s be able to vote to clear the queue.", verb)
	}
	return fmt.Sprintf("Users will %s be able to vote to skip songs/playlists.", verb)
}

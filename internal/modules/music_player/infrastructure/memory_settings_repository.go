package infrastructure

import (
	"context"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

// MemorySettingsRepository is an in-memory implementation of GuildSettingsRepository.
type MemorySettingsRepository struct {
	mu       sync.RWMutex
	defaults domain.GuildSettings
	settings map[snowflake.ID]domain.GuildSettings
}

// NewMemorySettingsRepository creates a new MemorySettingsRepository.
// Guilds that never saved settings get defaults.
func NewMemorySettingsRepository(defaults domain.GuildSettings) *MemorySettingsRepository {
	return &MemorySettingsRepository{
		defaults: defaults,
		settings: make(map[snowflake.ID]domain.GuildSettings),
	}
}

// Get returns the settings for the given guild.
func (r *MemorySettingsRepository) Get(
	_ context.Context,
	guildID snowflake.ID,
) (domain.GuildSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	settings, ok := r.settings[guildID]
	if !ok {
		return r.defaults, nil
	}
	return settings, nil
}

// Save stores the settings for the given guild.
func (r *MemorySettingsRepository) Save(
	_ context.Context,
	guildID snowflake.ID,
	settings domain.GuildSettings,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.settings[guildID] = settings
	return nil
}

// Count returns the number of guilds with saved settings.
func (r *MemorySettingsRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.settings)
}

var _ ports.GuildSettingsRepository = (*MemorySettingsRepository)(nil)

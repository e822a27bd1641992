package music_player

import (
	"fmt"
	"time"

	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

// Settings storage backends.
const (
	SettingsBackendMemory = "memory"
	SettingsBackendRedis  = "redis"
)

// Config holds the music player module configuration.
type Config struct {
	LavalinkAddress  string `env:"LAVALINK_ADDRESS,notEmpty"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD,notEmpty"`
	LavalinkSecure   bool   `env:"LAVALINK_SECURE"            envDefault:"false"`

	// DispatcherTimeout bounds each audio backend call made on behalf of a session.
	DispatcherTimeout time.Duration `env:"DISPATCHER_TIMEOUT" envDefault:"5s"`

	SettingsBackend string `env:"SETTINGS_BACKEND" envDefault:"memory"`
	RedisAddr       string `env:"REDIS_ADDR"       envDefault:"localhost:6379"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB"         envDefault:"0"`

	DefaultVoteSkipEnabled  bool `env:"DEFAULT_VOTE_SKIP_ENABLED"  envDefault:"true"`
	DefaultVoteClearEnabled bool `env:"DEFAULT_VOTE_CLEAR_ENABLED" envDefault:"true"`

	NotifyRate  float64 `env:"NOTIFY_RATE"  envDefault:"1"`
	NotifyBurst int     `env:"NOTIFY_BURST" envDefault:"3"`

	EventBufferSize int `env:"EVENT_BUFFER_SIZE" envDefault:"100"`
}

// Validate checks values that struct tags cannot express.
func (c *Config) Validate() error {
	switch c.SettingsBackend {
	case SettingsBackendMemory, SettingsBackendRedis:
	default:
		return fmt.Errorf(
			"invalid SETTINGS_BACKEND %q: must be %q or %q",
			c.SettingsBackend,
			SettingsBackendMemory,
			SettingsBackendRedis,
		)
	}

	if c.DispatcherTimeout <= 0 {
		return fmt.Errorf("invalid DISPATCHER_TIMEOUT %s: must be positive", c.DispatcherTimeout)
	}

	return nil
}

// DefaultSettings returns the settings used by guilds that never changed them.
func (c *Config) DefaultSettings() domain.GuildSettings {
	return domain.GuildSettings{
		VoteSkipEnabled:  c.DefaultVoteSkipEnabled,
		VoteClearEnabled: c.DefaultVoteClearEnabled,
	}
}

package infrastructure

import (
	"context"
	"fmt"
	"strconv"

	"github.com/disgoorg/snowflake/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

const settingsKeyPrefix = "machobot:"

// Hash fields of a guild settings entry.
const (
	fieldVoteSkipEnabled  = "vote_skip_enabled"
	fieldVoteClearEnabled = "vote_clear_enabled"
)

// RedisConfig contains Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisSettingsRepository stores guild settings as Redis hashes.
type RedisSettingsRepository struct {
	rdb      *redis.Client
	defaults domain.GuildSettings
}

// NewRedisSettingsRepository connects to Redis and verifies the connection.
func NewRedisSettingsRepository(
	ctx context.Context,
	config RedisConfig,
	defaults domain.GuildSettings,
) (*RedisSettingsRepository, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", config.Addr, err)
	}

	return &RedisSettingsRepository{rdb: rdb, defaults: defaults}, nil
}

// Get returns the settings for the guild. Missing fields fall back to defaults.
func (r *RedisSettingsRepository) Get(
	ctx context.Context,
	guildID snowflake.ID,
) (domain.GuildSettings, error) {
	fields, err := r.rdb.HGetAll(ctx, settingsKey(guildID)).Result()
	if err != nil {
		return domain.GuildSettings{}, fmt.Errorf("failed to load guild settings: %w", err)
	}
	return decodeSettings(fields, r.defaults)
}

// Save replaces the settings for the guild.
func (r *RedisSettingsRepository) Save(
	ctx context.Context,
	guildID snowflake.ID,
	settings domain.GuildSettings,
) error {
	if err := r.rdb.HSet(ctx, settingsKey(guildID), encodeSettings(settings)).Err(); err != nil {
		return fmt.Errorf("failed to save guild settings: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (r *RedisSettingsRepository) Close() error {
	return r.rdb.Close()
}

func settingsKey(guildID snowflake.ID) string {
	return fmt.Sprintf("%sguild:%s:settings", settingsKeyPrefix, guildID)
}

func encodeSettings(settings domain.GuildSettings) map[string]any {
	return map[string]any{
		fieldVoteSkipEnabled:  strconv.FormatBool(settings.VoteSkipEnabled),
		fieldVoteClearEnabled: strconv.FormatBool(settings.VoteClearEnabled),
	}
}

func decodeSettings(
	fields map[string]string,
	defaults domain.GuildSettings,
) (domain.GuildSettings, error) {
	settings := defaults

	if v, ok := fields[fieldVoteSkipEnabled]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return domain.GuildSettings{}, fmt.Errorf("invalid %s value %q: %w", fieldVoteSkipEnabled, v, err)
		}
		settings.VoteSkipEnabled = b
	}

	if v, ok := fields[fieldVoteClearEnabled]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return domain.GuildSettings{}, fmt.Errorf("invalid %s value %q: %w", fieldVoteClearEnabled, v, err)
		}
		settings.VoteClearEnabled = b
	}

	return settings, nil
}

var _ ports.GuildSettingsRepository = (*RedisSettingsRepository)(nil)

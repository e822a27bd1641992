package music_player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/machobot/internal/bot"
	"github.com/sglre6355/machobot/internal/modules/music_player/application"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/session"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/machobot/internal/modules/music_player/infrastructure"
	"github.com/sglre6355/machobot/internal/modules/music_player/presentation/discord"
)

// shutdownTimeout bounds how long Shutdown waits for sessions to leave voice.
const shutdownTimeout = 10 * time.Second

func init() {
	bot.Register(&MusicPlayerModule{})
}

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*MusicPlayerModule)(nil)

// MusicPlayerModule provides music playback commands.
type MusicPlayerModule struct {
	config          *Config
	commandHandlers *discord.CommandHandlers
	autocomplete    *discord.AutocompleteHandler
	eventHandlers   *discord.EventHandlers
	lavalinkAdapter *infrastructure.LavalinkAdapter

	store     *session.Store
	redisRepo *infrastructure.RedisSettingsRepository

	// Event-driven components
	eventBus            *infrastructure.ChannelEventBus
	playbackHandler     *application.PlaybackEventHandler
	notificationHandler *application.NotificationEventHandler
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// Commands returns the slash commands for this module.
func (m *MusicPlayerModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"play":     m.commandHandlers.HandlePlay,
		"pause":    m.commandHandlers.HandlePause,
		"resume":   m.commandHandlers.HandleResume,
		"skip":     m.commandHandlers.HandleSkip,
		"clear":    m.commandHandlers.HandleClear,
		"unvote":   m.commandHandlers.HandleUnvote,
		"queue":    m.commandHandlers.HandleQueue,
		"settings": m.commandHandlers.HandleSettings,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *MusicPlayerModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			m.handleVoiceServerUpdate(s, event)
		},
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			m.handleVoiceStateUpdate(s, event)
		},
		func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if m.autocomplete != nil {
				m.autocomplete.HandleInteraction(s, i)
			}
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicPlayerModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *MusicPlayerModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil {
		return errors.New("music_player requires an open Discord session")
	}
	if m.config == nil {
		if err := m.LoadConfig(); err != nil {
			return err
		}
	}

	// Create event bus (needed by Lavalink adapter for publishing events)
	m.eventBus = infrastructure.NewChannelEventBus(m.config.EventBufferSize)

	// Create Lavalink adapter
	lavalinkAdapter, err := infrastructure.NewLavalinkAdapter(
		deps.Session,
		infrastructure.LavalinkConfig{
			Address:  m.config.LavalinkAddress,
			Password: m.config.LavalinkPassword,
			Secure:   m.config.LavalinkSecure,
		},
	)
	if err != nil {
		return err
	}
	lavalinkAdapter.SetEventPublisher(m.eventBus)
	m.lavalinkAdapter = lavalinkAdapter

	settingsRepo, err := m.newSettingsRepository()
	if err != nil {
		return err
	}

	// Create infrastructure
	m.store = session.NewStore(lavalinkAdapter, m.config.DispatcherTimeout)
	voiceState := infrastructure.NewVoiceStateProvider(deps.Session)
	userInfoProv := infrastructure.NewDiscordUserInfoProvider(deps.Session)
	notifier := infrastructure.NewNotifier(deps.Session, infrastructure.NotifierConfig{
		Rate:  m.config.NotifyRate,
		Burst: m.config.NotifyBurst,
	})

	// Create services
	queue := usecases.NewQueueService(m.store, m.eventBus)
	playback := usecases.NewPlaybackService(m.store)
	votes := usecases.NewVoteService(m.store, voiceState, m.eventBus)
	presence := usecases.NewPresenceService(m.store, voiceState, m.eventBus)
	voiceChannel := usecases.NewVoiceChannelService(m.store, lavalinkAdapter)
	settings := usecases.NewSettingsService(settingsRepo)
	trackLoader := usecases.NewTrackLoaderService(lavalinkAdapter)

	// Create application event handlers
	m.playbackHandler = application.NewPlaybackEventHandler(queue, m.eventBus)
	m.notificationHandler = application.NewNotificationEventHandler(
		m.eventBus,
		notifier,
		userInfoProv,
	)
	m.playbackHandler.Start()
	m.notificationHandler.Start()

	// Create presentation handlers
	botID, err := snowflake.Parse(deps.Session.State.User.ID)
	if err != nil {
		return fmt.Errorf("failed to parse bot ID: %w", err)
	}
	m.commandHandlers = discord.NewCommandHandlers(queue, playback, votes, settings, trackLoader)
	m.autocomplete = discord.NewAutocompleteHandler(trackLoader)
	m.eventHandlers = discord.NewEventHandlers(botID, voiceChannel, presence)

	slog.Info("music_player module initialized with Lavalink",
		"settings_backend", m.config.SettingsBackend,
	)

	return nil
}

func (m *MusicPlayerModule) newSettingsRepository() (ports.GuildSettingsRepository, error) {
	defaults := m.config.DefaultSettings()

	if m.config.SettingsBackend != SettingsBackendRedis {
		return infrastructure.NewMemorySettingsRepository(defaults), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	repo, err := infrastructure.NewRedisSettingsRepository(ctx, infrastructure.RedisConfig{
		Addr:     m.config.RedisAddr,
		Password: m.config.RedisPassword,
		DB:       m.config.RedisDB,
	}, defaults)
	if err != nil {
		return nil, err
	}
	m.redisRepo = repo
	return repo, nil
}

// Shutdown cleans up module resources.
func (m *MusicPlayerModule) Shutdown() error {
	var errs []error

	// Stop sessions first so each one leaves voice while Lavalink is still up
	if m.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := m.store.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop sessions: %w", err))
		}
		cancel()
	}

	// Close event bus
	if m.eventBus != nil {
		m.eventBus.Close()
	}

	// Close Lavalink connection
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.Close()
	}

	if m.redisRepo != nil {
		if err := m.redisRepo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Event handlers.

func (m *MusicPlayerModule) handleVoiceServerUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceServerUpdate,
) {
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.OnVoiceServerUpdate(event)
	}
}

func (m *MusicPlayerModule) handleVoiceStateUpdate(
	s *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.OnVoiceStateUpdate(event)
	}
	if m.eventHandlers != nil {
		m.eventHandlers.HandleVoiceStateUpdate(s, event)
	}
}

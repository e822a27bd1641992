package bot

import "github.com/bwmarrin/discordgo"

// InteractionHandler handles a slash command. Handlers reply through r; a
// returned error is logged and answered with a generic error embed.
type InteractionHandler func(s *discordgo.Session, i *discordgo.InteractionCreate, r Responder) error

// EventHandler is any function accepted by discordgo's AddHandler,
// e.g. func(s *discordgo.Session, v *discordgo.VoiceStateUpdate).
type EventHandler any

// ModuleDependencies is passed to Module.Init.
type ModuleDependencies struct {
	// Session is open and its state holds the bot user by the time Init runs.
	Session *discordgo.Session
}

// Module is a self-contained feature set that contributes commands and
// gateway event handlers to the bot.
type Module interface {
	Name() string

	Commands() []*discordgo.ApplicationCommand

	// CommandHandlers maps command names to handlers.
	CommandHandlers() map[string]InteractionHandler

	EventHandlers() []EventHandler

	// Init wires the module against the open session.
	Init(deps ModuleDependencies) error

	// Shutdown releases everything Init acquired. It may be called after a
	// failed or skipped Init.
	Shutdown() error
}

// ConfigurableModule is implemented by modules that read their own
// configuration. LoadConfig runs before the Discord connection is opened so
// that bad configuration fails fast.
type ConfigurableModule interface {
	LoadConfig() error
}

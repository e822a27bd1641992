package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/machobot/internal/bot"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/usecases"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
)

// errNotPermitted is shown to members who may not use /settings.
var errNotPermitted = errors.New("you need the Manage Messages permission to use settings")

// CommandHandlers holds all the command handlers.
type CommandHandlers struct {
	queue       *usecases.QueueService
	playback    *usecases.PlaybackService
	votes       *usecases.VoteService
	settings    *usecases.SettingsService
	trackLoader *usecases.TrackLoaderService
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(
	queue *usecases.QueueService,
	playback *usecases.PlaybackService,
	votes *usecases.VoteService,
	settings *usecases.SettingsService,
	trackLoader *usecases.TrackLoaderService,
) *CommandHandlers {
	return &CommandHandlers{
		queue:       queue,
		playback:    playback,
		votes:       votes,
		settings:    settings,
		trackLoader: trackLoader,
	}
}

// HandlePlay handles the /play command.
func (h *CommandHandlers) HandlePlay(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, capitalize(err.Error()))
	}

	voiceChannelID, err := userVoiceChannel(s, i.GuildID, ids.userID)
	if err != nil {
		return respondError(r, capitalize(err.Error()))
	}

	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "query" {
			query = opt.StringValue()
		}
	}

	// Track resolution can outlast the interaction deadline
	if err := r.Defer(); err != nil {
		return err
	}

	loaded, err := h.trackLoader.LoadTrack(ctx, usecases.LoadTrackInput{
		Query:       query,
		RequesterID: ids.userID,
	})
	if err != nil {
		return respondUsecaseError(r, "play", err)
	}

	output, err := h.queue.Enqueue(ctx, usecases.EnqueueInput{
		GuildID:        ids.guildID,
		VoiceChannelID: voiceChannelID,
		TextChannelID:  ids.channelID,
		Song:           loaded.Song,
	})
	if err != nil {
		return respondUsecaseError(r, "play", err)
	}

	var description string
	if output.Started {
		description = fmt.Sprintf("Started playing %s.", songLink(loaded.Song))
	} else {
		description = fmt.Sprintf(
			"Added %s to the queue at position %d.",
			songLink(loaded.Song),
			output.Position,
		)
	}

	return respondSuccess(r, description)
}

// HandlePause handles the /pause command.
func (h *CommandHandlers) HandlePause(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, capitalize(err.Error()))
	}

	if err := h.playback.Pause(context.Background(), usecases.PauseInput{
		GuildID:       ids.guildID,
		TextChannelID: ids.channelID,
	}); err != nil {
		return respondUsecaseError(r, "pause", err)
	}

	return respondSuccess(r, "Paused playback.")
}

// HandleResume handles the /resume command.
func (h *CommandHandlers) HandleResume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, capitalize(err.Error()))
	}

	if err := h.playback.Resume(context.Background(), usecases.ResumeInput{
		GuildID:       ids.guildID,
		TextChannelID: ids.channelID,
	}); err != nil {
		return respondUsecaseError(r, "resume", err)
	}

	return respondSuccess(r, "Resumed playback.")
}

// HandleSkip handles the /skip command.
func (h *CommandHandlers) HandleSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.handleVote(i, r, usecases.VoteKindSkip)
}

// HandleClear handles the /clear command.
func (h *CommandHandlers) HandleClear(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.handleVote(i, r, usecases.VoteKindClear)
}

func (h *CommandHandlers) handleVote(
	i *discordgo.InteractionCreate,
	r bot.Responder,
	kind usecases.VoteKind,
) error {
	ctx := context.Background()
	command := kind.String()

	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, capitalize(err.Error()))
	}

	// Settings are read per command and handed to the vote as a snapshot.
	settings, err := h.settings.Get(ctx, ids.guildID)
	if err != nil {
		return respondUsecaseError(r, command, err)
	}

	output, err := h.votes.Vote(ctx, usecases.VoteInput{
		GuildID:       ids.guildID,
		UserID:        ids.userID,
		TextChannelID: ids.channelID,
		Kind:          kind,
		Settings:      settings,
		Privileged:    isPrivileged(i.Member),
	})
	if err != nil {
		return respondUsecaseError(r, command, err)
	}

	return respondSuccess(r, voteDescription(kind, output))
}

// HandleUnvote handles the /unvote command.
func (h *CommandHandlers) HandleUnvote(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, capitalize(err.Error()))
	}

	kind := usecases.VoteKindSkip
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "kind" {
			kind = usecases.ParseVoteKind(opt.StringValue())
		}
	}

	output, err := h.votes.Withdraw(context.Background(), usecases.WithdrawVoteInput{
		GuildID: ids.guildID,
		UserID:  ids.userID,
		Kind:    kind,
	})
	if err != nil {
		return respondUsecaseError(r, "unvote", err)
	}

	return respondSuccess(r, fmt.Sprintf(
		"Withdrew your vote to %s. %s",
		voteAction(kind),
		pluralVotes(output.Votes),
	))
}

// HandleQueue handles the /queue command.
func (h *CommandHandlers) HandleQueue(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, capitalize(err.Error()))
	}

	var page int
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "page" {
			page = int(opt.IntValue())
		}
	}

	output, err := h.queue.List(context.Background(), usecases.QueueListInput{
		GuildID: ids.guildID,
		Page:    page,
	})
	if err != nil {
		return respondUsecaseError(r, "queue", err)
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{queueEmbed(output)},
		},
	})
}

// HandleSettings handles the /settings command.
// Without options it lists every setting; with a setting it shows it; with
// both it changes it.
func (h *CommandHandlers) HandleSettings(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	ids, err := parseInteraction(i)
	if err != nil {
		return respondError(r, capitalize(err.Error()))
	}

	if !isPrivileged(i.Member) {
		return respondError(r, capitalize(errNotPermitted.Error()))
	}

	var setting, value string
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "setting":
			setting = opt.StringValue()
		case "value":
			value = opt.StringValue()
		}
	}

	if setting == "" {
		values, err := h.settings.List(ctx, ids.guildID)
		if err != nil {
			return respondUsecaseError(r, "settings", err)
		}

		var sb strings.Builder
		for _, v := range values {
			fmt.Fprintf(&sb, "`%s`: %t\n", v.Name, v.Value)
		}
		return respondSuccess(r, strings.TrimSuffix(sb.String(), "\n"))
	}

	if value == "" {
		v, err := h.settings.GetSetting(ctx, usecases.GetSettingInput{
			GuildID: ids.guildID,
			Setting: setting,
		})
		if err != nil {
			return respondUsecaseError(r, "settings", err)
		}
		return respondSuccess(r, fmt.Sprintf("`%s`: %t", v.Name, v.Value))
	}

	output, err := h.settings.SetSetting(ctx, usecases.SetSettingInput{
		GuildID: ids.guildID,
		Setting: setting,
		Value:   value,
	})
	if err != nil {
		return respondUsecaseError(r, "settings", err)
	}

	return respondSuccess(r, output.Message)
}

// interactionIDs holds the parsed IDs every command needs.
type interactionIDs struct {
	guildID   snowflake.ID
	userID    snowflake.ID
	channelID snowflake.ID
}

func parseInteraction(i *discordgo.InteractionCreate) (interactionIDs, error) {
	var ids interactionIDs

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return ids, errors.New("invalid guild")
	}
	if i.Member == nil || i.Member.User == nil {
		return ids, errors.New("invalid user")
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return ids, errors.New("invalid user")
	}
	channelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return ids, errors.New("invalid notification channel")
	}

	return interactionIDs{guildID: guildID, userID: userID, channelID: channelID}, nil
}

// userVoiceChannel returns the voice channel the user is connected to.
func userVoiceChannel(s *discordgo.Session, guildID string, userID snowflake.ID) (snowflake.ID, error) {
	if s == nil || s.State == nil {
		return 0, usecases.ErrUserNotInVoice
	}

	vs, err := s.State.VoiceState(guildID, userID.String())
	if err != nil || vs.ChannelID == "" {
		return 0, usecases.ErrUserNotInVoice
	}

	channelID, err := snowflake.Parse(vs.ChannelID)
	if err != nil {
		return 0, usecases.ErrUserNotInVoice
	}
	return channelID, nil
}

// isPrivileged reports whether the member may skip, clear and change settings
// without a vote.
func isPrivileged(member *discordgo.Member) bool {
	if member == nil {
		return false
	}
	return member.Permissions&(discordgo.PermissionManageMessages|discordgo.PermissionAdministrator) != 0
}

func voteDescription(kind usecases.VoteKind, output *usecases.VoteOutput) string {
	if !output.Applied {
		return fmt.Sprintf(
			"Voted to %s. (%d/%d)",
			voteAction(kind),
			output.Votes,
			output.Required,
		)
	}

	if kind == usecases.VoteKindClear {
		return fmt.Sprintf("Cleared the queue (%d removed).", output.Cleared)
	}

	description := "Skipped."
	if output.Skipped != nil {
		description = fmt.Sprintf("Skipped %s.", songLink(*output.Skipped))
	}
	if output.Next == nil {
		description += " The queue is now empty."
	}
	return description
}

func voteAction(kind usecases.VoteKind) string {
	if kind == usecases.VoteKindClear {
		return "clear the queue"
	}
	return "skip"
}

func pluralVotes(n int) string {
	if n == 1 {
		return "1 vote remains."
	}
	return fmt.Sprintf("%d votes remain.", n)
}

func queueEmbed(output *usecases.QueueListOutput) *discordgo.MessageEmbed {
	title := "Queue"
	if output.Paused {
		title = "Queue (paused)"
	}

	embed := &discordgo.MessageEmbed{
		Title: title,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Page %d/%d", output.CurrentPage, output.TotalPages),
		},
	}

	if output.Current == nil {
		embed.Description = "Queue is empty."
		return embed
	}

	var sb strings.Builder
	sb.WriteString("### Now Playing\n")
	writeSongLine(&sb, 0, *output.Current)

	if len(output.Songs) > 0 {
		sb.WriteString("### Up Next\n")
		displayIndex := (output.CurrentPage-1)*usecases.DefaultPageSize + 1
		for _, song := range output.Songs {
			writeSongLine(&sb, displayIndex, song)
			displayIndex++
		}
	}

	embed.Description = sb.String()
	return embed
}

// Response helpers.

func respondSuccess(r bot.Responder, description string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Description: description,
					Color:       colorSuccess,
				},
			},
		},
	})
}

func respondError(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Error",
					Description: message,
					Color:       colorError,
				},
			},
		},
	})
}

// respondUsecaseError renders err for the user. Failures that are not the
// user's doing are logged as well.
func respondUsecaseError(r bot.Responder, command string, err error) error {
	kind := usecases.Classify(err)
	if kind == usecases.KindDispatcherFailure || kind == usecases.KindUnknown {
		slog.Warn("command failed", "command", command, "kind", kind.String(), "error", err)
	}
	return respondError(r, capitalize(err.Error()))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func songLink(song usecases.Song) string {
	if song.URI != "" {
		return fmt.Sprintf("[%s](%s)", song.Title, song.URI)
	}
	return fmt.Sprintf("**%s**", song.Title)
}

// writeSongLine writes a single song line to the string builder.
// Escapes period to prevent Discord markdown list formatting.
func writeSongLine(sb *strings.Builder, displayIndex int, song usecases.Song) {
	artist := song.Artist
	if artist == "" {
		artist = "Unknown"
	}
	fmt.Fprintf(
		sb,
		"%d\\. %s - %s `%s`\n",
		displayIndex,
		songLink(song),
		artist,
		song.FormattedDuration(),
	)
}

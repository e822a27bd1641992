package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/usecases"
)

// maxChoices is Discord's limit on autocomplete choices.
const maxChoices = 25

// AutocompleteHandler handles autocomplete requests.
type AutocompleteHandler struct {
	trackLoader *usecases.TrackLoaderService
}

// NewAutocompleteHandler creates a new AutocompleteHandler.
func NewAutocompleteHandler(trackLoader *usecases.TrackLoaderService) *AutocompleteHandler {
	return &AutocompleteHandler{
		trackLoader: trackLoader,
	}
}

// HandleInteraction routes autocomplete interactions by command name.
func (h *AutocompleteHandler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommandAutocomplete {
		return
	}

	var choices []*discordgo.ApplicationCommandOptionChoice
	switch i.ApplicationCommandData().Name {
	case "play":
		choices = h.PlayChoices(context.Background(), focusedValue(i))
	case "settings":
		choices = SettingChoices(focusedValue(i))
	default:
		return
	}

	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	})
}

// PlayChoices returns track suggestions for a partial /play query.
func (h *AutocompleteHandler) PlayChoices(
	ctx context.Context,
	query string,
) []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0)

	// Don't search for very short queries
	if len([]rune(strings.TrimSpace(query))) < 2 {
		return choices
	}

	output, err := h.trackLoader.Search(ctx, usecases.SearchInput{
		Query: query,
		Limit: maxChoices - 1,
	})
	if err != nil {
		return choices
	}

	if output.IsPlaylist {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name: truncate(
				fmt.Sprintf("📋 %s (%d tracks)", output.PlaylistName, len(output.Results)),
				100,
			),
			Value: query,
		})
	}
	for _, result := range output.Results {
		if result.URI == "" {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  truncate(fmt.Sprintf("🎵 %s - %s", result.Title, result.Artist), 100),
			Value: result.URI,
		})
	}

	return choices
}

// SettingChoices returns the setting names matching a partial input.
func SettingChoices(partial string) []*discordgo.ApplicationCommandOptionChoice {
	partial = strings.ToLower(partial)

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, 2)
	for _, name := range []string{usecases.SettingVoteSkipEnabled, usecases.SettingVoteClearEnabled} {
		if strings.Contains(name, partial) {
			choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
				Name:  name,
				Value: name,
			})
		}
	}
	return choices
}

func focusedValue(i *discordgo.InteractionCreate) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Focused {
			return opt.StringValue()
		}
	}
	return ""
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

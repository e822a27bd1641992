package usecases

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/machobot/internal/modules/music_player/application/session"
	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

// VoteInput contains the input for the Vote use case.
type VoteInput struct {
	GuildID       snowflake.ID
	UserID        snowflake.ID
	TextChannelID snowflake.ID // Optional: updates notification channel if non-zero
	Kind          domain.VoteKind
	Settings      domain.GuildSettings // snapshot fetched for this command
	Privileged    bool                 // member may skip or clear without a vote
}

// VoteOutput contains the result of the Vote use case.
type VoteOutput struct {
	Applied  bool         // true if the skip or clear was carried out
	Votes    int          // votes after registration; zero once applied
	Required int          // votes needed at evaluation time
	Skipped  *domain.Song // set when a skip was applied
	Next     *domain.Song // song that started after a skip, if any
	Cleared  int          // songs removed by an applied clear
}

// WithdrawVoteInput contains the input for the WithdrawVote use case.
type WithdrawVoteInput struct {
	GuildID snowflake.ID
	UserID  snowflake.ID
	Kind    domain.VoteKind
}

// WithdrawVoteOutput contains the result of the WithdrawVote use case.
type WithdrawVoteOutput struct {
	Votes int
}

// VoteService handles vote skipping and vote clearing.
type VoteService struct {
	store      *session.Store
	voiceState ports.VoiceStateProvider
	publisher  ports.EventPublisher
}

// NewVoteService creates a new VoteService.
func NewVoteService(
	store *session.Store,
	voiceState ports.VoiceStateProvider,
	publisher ports.EventPublisher,
) *VoteService {
	return &VoteService{
		store:      store,
		voiceState: voiceState,
		publisher:  publisher,
	}
}

// Vote registers a skip or clear vote and applies it once enough listeners
// agree. Privileged members apply it immediately.
func (v *VoteService) Vote(ctx context.Context, input VoteInput) (*VoteOutput, error) {
	if !input.Privileged && !input.Settings.VoteEnabled(input.Kind) {
		if input.Kind == domain.VoteKindClear {
			return nil, ErrVoteClearDisabled
		}
		return nil, ErrVoteSkipDisabled
	}

	var output VoteOutput
	err := v.store.Update(ctx, input.GuildID, func(ctx context.Context, s *domain.Session, d ports.Dispatcher) error {
		if input.TextChannelID != 0 {
			s.SetTextChannelID(input.TextChannelID)
		}
		if s.Len() == 0 {
			return ErrQueueEmpty
		}

		if input.Privileged {
			output = VoteOutput{Applied: true}
			return v.apply(ctx, s, d, input.Kind, &output)
		}

		listeners, err := v.boundListeners(s, input.UserID)
		if err != nil {
			return err
		}

		votes, err := s.RegisterVote(input.Kind, input.UserID)
		if err != nil {
			return err
		}

		tally := domain.NewTally(votes, listeners)
		output = VoteOutput{Votes: tally.Votes, Required: tally.Required}
		if !tally.Met() {
			return nil
		}

		output.Applied = true
		return v.apply(ctx, s, d, input.Kind, &output)
	})
	if err != nil {
		return nil, err
	}

	return &output, nil
}

// Withdraw removes the user's vote of the given kind.
func (v *VoteService) Withdraw(ctx context.Context, input WithdrawVoteInput) (*WithdrawVoteOutput, error) {
	var output WithdrawVoteOutput
	err := v.store.Update(ctx, input.GuildID, func(_ context.Context, s *domain.Session, _ ports.Dispatcher) error {
		votes, err := s.WithdrawVote(input.Kind, input.UserID)
		if err != nil {
			return err
		}
		output.Votes = votes
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &output, nil
}

// boundListeners checks that the voter is in the session's voice channel and
// returns how many non-bot members are listening there.
func (v *VoteService) boundListeners(s *domain.Session, userID snowflake.ID) (int, error) {
	channelID, err := v.voiceState.GetUserVoiceChannel(s.GuildID(), userID)
	if err != nil {
		return 0, err
	}
	if channelID == nil || *channelID != s.VoiceChannelID() {
		return 0, ErrNotInVoiceChannel
	}

	return v.voiceState.CountListeners(s.GuildID(), s.VoiceChannelID())
}

func (v *VoteService) apply(
	ctx context.Context,
	s *domain.Session,
	d ports.Dispatcher,
	kind domain.VoteKind,
	output *VoteOutput,
) error {
	output.Votes = 0

	if kind == domain.VoteKindClear {
		output.Cleared = s.Clear()
		return dispatcherError("stop", d.Stop(ctx))
	}

	skipped := s.Current().Clone()
	output.Skipped = &skipped

	next, err := skip(ctx, s, d, v.publisher)
	if err != nil {
		return err
	}
	output.Next = next
	return nil
}

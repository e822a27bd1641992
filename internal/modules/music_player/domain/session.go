package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// PauseCause records who paused playback.
type PauseCause int

const (
	PauseCauseNone     PauseCause = iota // not paused
	PauseCauseCommand                    // paused by an explicit /pause
	PauseCausePresence                   // paused because the bound channel emptied
)

// PlaybackState is the observable state of a Session.
type PlaybackState int

const (
	StatePlaying PlaybackState = iota
	StatePaused
	StateDraining
)

// String returns a human-readable representation of the state.
func (s PlaybackState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "draining"
	}
}

// Session is the queue and playback state of one guild.
// It is not safe for concurrent use; callers serialize access.
type Session struct {
	guildID        snowflake.ID
	voiceChannelID snowflake.ID
	textChannelID  snowflake.ID
	queue          []Song
	playing        bool
	pauseCause     PauseCause
	clearVotes     VoteSet
}

// NewSession creates an empty Session bound to the given channels.
func NewSession(guildID, voiceChannelID, textChannelID snowflake.ID) *Session {
	return &Session{
		guildID:        guildID,
		voiceChannelID: voiceChannelID,
		textChannelID:  textChannelID,
		queue:          make([]Song, 0),
	}
}

// GuildID returns the guild ID.
func (s *Session) GuildID() snowflake.ID {
	// guildID must not be modified after initialization
	return s.guildID
}

// VoiceChannelID returns the bound voice channel.
func (s *Session) VoiceChannelID() snowflake.ID {
	return s.voiceChannelID
}

// SetVoiceChannelID rebinds the session, e.g. after the bot was moved.
func (s *Session) SetVoiceChannelID(channelID snowflake.ID) {
	s.voiceChannelID = channelID
}

// TextChannelID returns the channel status notifications go to.
func (s *Session) TextChannelID() snowflake.ID {
	return s.textChannelID
}

// SetTextChannelID updates the notification channel.
func (s *Session) SetTextChannelID(channelID snowflake.ID) {
	s.textChannelID = channelID
}

// State returns the current playback state.
func (s *Session) State() PlaybackState {
	switch {
	case s.playing:
		return StatePlaying
	case len(s.queue) > 0:
		return StatePaused
	default:
		return StateDraining
	}
}

// IsPlaying returns true while the dispatcher streams position 0.
func (s *Session) IsPlaying() bool {
	return s.playing
}

// IsPaused returns true if a song is loaded but not streaming.
func (s *Session) IsPaused() bool {
	return !s.playing && len(s.queue) > 0
}

// PausedAutomatically returns true if the presence policy paused playback.
func (s *Session) PausedAutomatically() bool {
	return s.IsPaused() && s.pauseCause == PauseCausePresence
}

// IsDrained returns true once nothing is queued and nothing plays.
func (s *Session) IsDrained() bool {
	return len(s.queue) == 0 && !s.playing
}

// Len returns the number of songs, including the current one.
func (s *Session) Len() int {
	return len(s.queue)
}

// Current returns the song at position 0, or nil if the queue is empty.
func (s *Session) Current() *Song {
	if len(s.queue) == 0 {
		return nil
	}
	return &s.queue[0]
}

// Songs returns a copy of the queue.
func (s *Session) Songs() []Song {
	result := make([]Song, len(s.queue))
	for i, song := range s.queue {
		result[i] = song.Clone()
	}
	return result
}

// ClearVotes returns the number of votes to clear the queue.
func (s *Session) ClearVotes() int {
	return s.clearVotes.Len()
}

// Enqueue appends a song. It returns the song's position and whether the
// session was idle, in which case it is now Playing and the caller must
// start the dispatcher.
func (s *Session) Enqueue(song Song) (position int, start bool) {
	start = s.IsDrained()
	s.queue = append(s.queue, song)
	if start {
		s.playing = true
		s.pauseCause = PauseCauseNone
	}
	return len(s.queue) - 1, start
}

// Advance removes the current song together with its skip votes and returns
// the new current song. A nil result means the session is now draining.
func (s *Session) Advance() *Song {
	if len(s.queue) == 0 {
		return nil
	}

	s.queue[0] = Song{}
	s.queue = s.queue[1:]

	if len(s.queue) == 0 {
		s.drain()
		return nil
	}

	s.playing = true
	s.pauseCause = PauseCauseNone
	return &s.queue[0]
}

// Clear empties the queue and both vote sets. The session is draining afterwards.
func (s *Session) Clear() int {
	count := len(s.queue)
	s.drain()
	return count
}

func (s *Session) drain() {
	s.queue = make([]Song, 0)
	s.playing = false
	s.pauseCause = PauseCauseNone
	s.clearVotes.Clear()
}

// Terminate unbinds a drained session from its voice channel.
func (s *Session) Terminate() {
	s.drain()
	s.voiceChannelID = 0
}

// Pause stops streaming and records why.
func (s *Session) Pause(cause PauseCause) error {
	if len(s.queue) == 0 {
		return ErrQueueEmpty
	}
	if !s.playing {
		return ErrAlreadyPaused
	}
	s.playing = false
	s.pauseCause = cause
	return nil
}

// Resume restarts streaming of the current song.
func (s *Session) Resume() error {
	if len(s.queue) == 0 {
		return ErrQueueEmpty
	}
	if s.playing {
		return ErrNotPaused
	}
	s.playing = true
	s.pauseCause = PauseCauseNone
	return nil
}

// RegisterVote adds voterID to the vote set of kind and returns the new count.
func (s *Session) RegisterVote(kind VoteKind, voterID snowflake.ID) (int, error) {
	set, err := s.voteSet(kind)
	if err != nil {
		return 0, err
	}
	if !set.Add(voterID) {
		return set.Len(), ErrAlreadyVoted
	}
	return set.Len(), nil
}

// WithdrawVote removes voterID from the vote set of kind and returns the new count.
func (s *Session) WithdrawVote(kind VoteKind, voterID snowflake.ID) (int, error) {
	set, err := s.voteSet(kind)
	if err != nil {
		return 0, err
	}
	if !set.Remove(voterID) {
		return set.Len(), ErrNotVoted
	}
	return set.Len(), nil
}

// WithdrawVotes removes voterID from every vote set it appears in.
// Returns true if any vote was removed.
func (s *Session) WithdrawVotes(voterID snowflake.ID) bool {
	removed := s.clearVotes.Remove(voterID)
	if current := s.Current(); current != nil {
		if current.skipVotes.Remove(voterID) {
			removed = true
		}
	}
	return removed
}

// Votes returns the size of the vote set of kind.
func (s *Session) Votes(kind VoteKind) int {
	set, err := s.voteSet(kind)
	if err != nil {
		return 0
	}
	return set.Len()
}

func (s *Session) voteSet(kind VoteKind) (*VoteSet, error) {
	if len(s.queue) == 0 {
		return nil, ErrQueueEmpty
	}
	if kind == VoteKindClear {
		return &s.clearVotes, nil
	}
	return &s.queue[0].skipVotes, nil
}

// Checkpoint is an opaque copy of a Session used to undo a failed transition.
type Checkpoint struct {
	state Session
}

// Checkpoint captures the current state.
func (s *Session) Checkpoint() Checkpoint {
	queue := make([]Song, len(s.queue))
	for i, song := range s.queue {
		queue[i] = song.Clone()
	}

	state := *s
	state.queue = queue
	state.clearVotes = s.clearVotes.clone()
	return Checkpoint{state: state}
}

// Restore rolls the session back to cp.
func (s *Session) Restore(cp Checkpoint) {
	*s = cp.state
}

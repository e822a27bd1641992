package usecases

import (
	"errors"

	"github.com/sglre6355/machobot/internal/modules/music_player/application/session"
	"github.com/sglre6355/machobot/internal/modules/music_player/domain"
)

// Errors for the music player module.
var (
	// ErrNotFound is returned when the guild has no active session.
	ErrNotFound = session.ErrNotFound

	// ErrUserNotInVoice is returned when the user is not in a voice channel.
	ErrUserNotInVoice = errors.New("you must be in a voice channel")

	// ErrNotInVoiceChannel is returned when a voter is not in the session's voice channel.
	ErrNotInVoiceChannel = errors.New("you must be in the same voice channel as me")

	// ErrVoteSkipDisabled is returned when vote skipping is turned off for the guild.
	ErrVoteSkipDisabled = errors.New("vote skipping is disabled in this server")

	// ErrVoteClearDisabled is returned when vote clearing is turned off for the guild.
	ErrVoteClearDisabled = errors.New("vote clearing is disabled in this server")

	// ErrNoResults is returned when a search yields no results.
	ErrNoResults = errors.New("no results found")

	// ErrUnknownSetting is returned for a setting name that does not exist.
	ErrUnknownSetting = errors.New("not a valid setting")

	// ErrInvalidSettingValue is returned when a setting value is not "true" or "false".
	ErrInvalidSettingValue = errors.New(`can only be set to "true" or "false"`)

	// ErrSettingUnchanged is returned when a setting already has the requested value.
	ErrSettingUnchanged = errors.New("is already")
)

// Session state errors, re-exported for the presentation layer.
var (
	ErrQueueEmpty    = domain.ErrQueueEmpty
	ErrAlreadyPaused = domain.ErrAlreadyPaused
	ErrNotPaused     = domain.ErrNotPaused
	ErrAlreadyVoted  = domain.ErrAlreadyVoted
	ErrNotVoted      = domain.ErrNotVoted
)

// DispatcherError is returned when the audio backend rejects a call.
// The session is left as it was before the failing operation.
type DispatcherError struct {
	Op  string
	Err error
}

func (e *DispatcherError) Error() string {
	return "playback error: failed to " + e.Op + ": " + e.Err.Error()
}

func (e *DispatcherError) Unwrap() error {
	return e.Err
}

func dispatcherError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &DispatcherError{Op: op, Err: err}
}

// ErrorKind groups errors by how a caller should react to them.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindInvalidState
	KindFeatureDisabled
	KindAlreadyVoted
	KindDispatcherFailure
)

// String returns a human-readable representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindFeatureDisabled:
		return "feature_disabled"
	case KindAlreadyVoted:
		return "already_voted"
	case KindDispatcherFailure:
		return "dispatcher_failure"
	default:
		return "unknown"
	}
}

// Classify returns the kind of err.
func Classify(err error) ErrorKind {
	var dispatcherErr *DispatcherError

	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &dispatcherErr):
		return KindDispatcherFailure
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyVoted):
		return KindAlreadyVoted
	case errors.Is(err, ErrVoteSkipDisabled), errors.Is(err, ErrVoteClearDisabled):
		return KindFeatureDisabled
	case errors.Is(err, ErrAlreadyPaused),
		errors.Is(err, ErrNotPaused),
		errors.Is(err, ErrQueueEmpty),
		errors.Is(err, ErrNotVoted),
		errors.Is(err, ErrNotInVoiceChannel),
		errors.Is(err, ErrUserNotInVoice):
		return KindInvalidState
	default:
		return KindUnknown
	}
}

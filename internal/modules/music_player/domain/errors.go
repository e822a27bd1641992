package domain

import "errors"

// Errors returned by Session transitions.
var (
	// ErrQueueEmpty is returned when an operation needs a current song.
	ErrQueueEmpty = errors.New("the queue is empty")

	// ErrAlreadyPaused is returned when pausing an already paused session.
	ErrAlreadyPaused = errors.New("playback is already paused")

	// ErrNotPaused is returned when resuming a session that is playing.
	ErrNotPaused = errors.New("playback is not paused")

	// ErrAlreadyVoted is returned when a voter registers the same vote twice.
	ErrAlreadyVoted = errors.New("you have already voted")

	// ErrNotVoted is returned when withdrawing a vote that was never cast.
	ErrNotVoted = errors.New("you have not voted")
)

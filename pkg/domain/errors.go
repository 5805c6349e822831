package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrStoryNotFound is returned when a story ID is not loaded.
var ErrStoryNotFound = errors.New("story not found")

// ErrInvalidChoice is returned when the input does not name a visible, available option.
var ErrInvalidChoice = errors.New("invalid choice")

// ErrSessionDone is returned when navigating a terminated or closed session.
var ErrSessionDone = errors.New("session is over")

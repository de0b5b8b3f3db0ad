package model

import "errors"

// Common errors used across the application
var (
	// Join errors, surfaced to the initiating client only
	ErrInvalidUsername = errors.New("invalid username")
	ErrUsernameTaken   = errors.New("username is already taken")
	ErrGameInProgress  = errors.New("game is in progress")

	// Roster errors
	ErrPlayerNotFound = errors.New("player not found")

	// Session errors
	ErrNoPlayers         = errors.New("no connected players")
	ErrInvalidTransition = errors.New("invalid session state transition")
)

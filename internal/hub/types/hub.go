package types

import (
	"ctchen222/tictactoe/internal/player"
)

// RegistrationRequest represents a request to attach a player to a session.
type RegistrationRequest struct {
	Player     *player.Player
	SessionID  string // Empty to start a new session or resume the last one
	Difficulty string // "easy", "medium", "hard"; empty for the configured default
	Automated  *bool  // nil for the configured default
}

// Departure is sent when a player's connection ends.
type Departure struct {
	SessionID string
	Player    *player.Player
}

package proto

import "ctchen222/tictactoe/internal/game"

// Client message types
const (
	TypeMove        = "move"
	TypeReset       = "reset"
	TypeToggleAI    = "toggle_ai"
	TypeToggleSound = "toggle_sound"
	TypeDifficulty  = "difficulty"
)

// Server message types
const (
	TypeState     = "state"
	TypeGameEnded = "game_ended"
	TypeRejected  = "rejected"
	TypeWelcome   = "welcome"
)

// ClientToServerMessage represents a message from the client to the server.
type ClientToServerMessage struct {
	Type       string `json:"type" validate:"required,oneof=move reset toggle_ai toggle_sound difficulty"`
	Index      *int   `json:"index,omitempty" validate:"omitempty,min=0,max=8"`
	Difficulty string `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
}

// StateMessage is broadcast after every engine state change.
type StateMessage struct {
	Type        string      `json:"type"`
	SessionID   string      `json:"session_id"`
	Board       game.Board  `json:"board"`
	Next        game.Mark   `json:"next"`
	Phase       string      `json:"phase"`
	Winner      game.Mark   `json:"winner,omitempty"`
	WinningLine []int       `json:"winning_line,omitempty"`
	Scores      game.Scores `json:"scores"`
	AI          bool        `json:"ai"`
	Difficulty  string      `json:"difficulty"`
	Sound       bool        `json:"sound"`
}

// GameEndedMessage is broadcast once when a game reaches a terminal phase.
type GameEndedMessage struct {
	Type        string      `json:"type"`
	GameID      string      `json:"game_id,omitempty"`
	Phase       string      `json:"phase"`
	Winner      game.Mark   `json:"winner,omitempty"`
	WinningLine []int       `json:"winning_line,omitempty"`
	Scores      game.Scores `json:"scores"`
}

// RejectedMessage is sent to the originating client only.
type RejectedMessage struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// WelcomeMessage informs a client of its session and of the mark it plays.
type WelcomeMessage struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	PlayerID  string    `json:"player_id,omitempty"`
	Mark      game.Mark `json:"mark"`
}

func NewState(sessionID string, s game.State, difficulty string, sound bool) StateMessage {
	return StateMessage{
		Type:        TypeState,
		SessionID:   sessionID,
		Board:       s.Board,
		Next:        s.Turn,
		Phase:       string(s.Phase.Kind),
		Winner:      s.Phase.Winner,
		WinningLine: s.WinningLine,
		Scores:      s.Scores,
		AI:          s.Automated,
		Difficulty:  difficulty,
		Sound:       sound,
	}
}

func NewGameEnded(gameID string, s game.State) GameEndedMessage {
	return GameEndedMessage{
		Type:        TypeGameEnded,
		GameID:      gameID,
		Phase:       string(s.Phase.Kind),
		Winner:      s.Phase.Winner,
		WinningLine: s.WinningLine,
		Scores:      s.Scores,
	}
}

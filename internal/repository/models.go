package repository

import (
	"errors"
	"time"

	"ctchen222/tictactoe/internal/game"
)

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrAccountNotFound = errors.New("account not found")
	ErrUsernameTaken   = errors.New("username already taken")
)

// GameRecord is a finished game kept for replay.
type GameRecord struct {
	ID         string       `json:"id"`
	SessionID  string       `json:"session_id"`
	Result     string       `json:"result"`
	Moves      int          `json:"moves"`
	History    []game.Board `json:"history"`
	Scores     game.Scores  `json:"scores"`
	FinishedAt time.Time    `json:"finished_at"`
}

// Account represents a registered player.
type Account struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
}

package models

import (
	"time"

	"ctchen222/tictactoe/internal/game"
)

// GameSummary is an archived game without its snapshot history.
type GameSummary struct {
	ID         string      `json:"id"`
	Result     string      `json:"result"`
	Moves      int         `json:"moves"`
	Scores     game.Scores `json:"scores"`
	FinishedAt time.Time   `json:"finished_at"`
}

// ListQuery binds the optional paging of list endpoints.
type ListQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

package bot

import (
	"errors"
	"math/rand/v2"

	"ctchen222/tictactoe/internal/game"
)

var ErrNoAvailableMoves = errors.New("no available moves")

// Difficulty levels
const (
	Easy   = "easy"
	Medium = "medium"
	Hard   = "hard"
)

// ParseDifficulty normalizes a difficulty name. Unknown names map to Hard.
func ParseDifficulty(s string) string {
	switch s {
	case Easy, Medium, Hard:
		return s
	default:
		return Hard
	}
}

// CalculateNextMove determines the next move for mark based on the specified difficulty.
func CalculateNextMove(board game.Board, mark game.Mark, difficulty string, rng *rand.Rand) (int, error) {
	if board.IsFull() {
		return -1, ErrNoAvailableMoves
	}

	switch ParseDifficulty(difficulty) {
	case Easy:
		return easyMove(board, rng), nil
	case Medium:
		return mediumMove(board, mark, rng), nil
	default:
		return SelectMove(board, mark, rng)
	}
}

// SelectMove is the heuristic opponent. Rules are tried in order and the
// first match wins:
//  1. complete a line of mark
//  2. block a line of the opponent
//  3. take the center
//  4. take a random empty corner
//  5. take the lowest-indexed empty cell
func SelectMove(board game.Board, mark game.Mark, rng *rand.Rand) (int, error) {
	if cell, ok := findWinningMove(board, mark); ok {
		return cell, nil
	}

	if cell, ok := findWinningMove(board, mark.Opponent()); ok {
		return cell, nil
	}

	if board[game.Center] == game.Empty {
		return game.Center, nil
	}

	corners := make([]int, 0, len(game.Corners))
	for _, c := range game.Corners {
		if board[c] == game.Empty {
			corners = append(corners, c)
		}
	}
	if len(corners) > 0 {
		return corners[rng.IntN(len(corners))], nil
	}

	if cells := board.EmptyCells(); len(cells) > 0 {
		return cells[0], nil
	}

	return -1, ErrNoAvailableMoves
}

// easyMove makes a completely random move.
func easyMove(board game.Board, rng *rand.Rand) int {
	cells := board.EmptyCells()
	if len(cells) == 0 {
		return -1
	}
	return cells[rng.IntN(len(cells))]
}

// mediumMove will win if it can, block if it must, otherwise move randomly.
func mediumMove(board game.Board, mark game.Mark, rng *rand.Rand) int {
	if cell, ok := findWinningMove(board, mark); ok {
		return cell
	}
	if cell, ok := findWinningMove(board, mark.Opponent()); ok {
		return cell
	}
	return easyMove(board, rng)
}

// findWinningMove returns the empty cell that completes a two-in-a-row of
// mark. Lines are scanned in game.Lines order.
func findWinningMove(board game.Board, mark game.Mark) (int, bool) {
	if mark == game.Empty {
		return -1, false
	}

	for _, line := range game.Lines {
		a, b, c := line[0], line[1], line[2]
		switch {
		case board[a] == mark && board[b] == mark && board[c] == game.Empty:
			return c, true
		case board[a] == mark && board[c] == mark && board[b] == game.Empty:
			return b, true
		case board[b] == mark && board[c] == mark && board[a] == game.Empty:
			return a, true
		}
	}

	return -1, false
}

package bot

import (
	"math/rand/v2"
	"sync"

	"ctchen222/tictactoe/internal/game"
)

// Opponent is the automated player of a session. It owns its random source
// so corner picks can be made reproducible in tests.
type Opponent struct {
	mu         sync.Mutex
	rng        *rand.Rand
	difficulty string
}

// NewOpponent creates an opponent. A nil rng is replaced by a randomly seeded one.
func NewOpponent(difficulty string, rng *rand.Rand) *Opponent {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Opponent{
		rng:        rng,
		difficulty: ParseDifficulty(difficulty),
	}
}

// SelectMove returns the cell the opponent plays for mark on board.
func (o *Opponent) SelectMove(board game.Board, mark game.Mark) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return CalculateNextMove(board, mark, o.difficulty, o.rng)
}

func (o *Opponent) Difficulty() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.difficulty
}

// SetDifficulty changes the difficulty and returns the normalized value.
func (o *Opponent) SetDifficulty(difficulty string) string {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.difficulty = ParseDifficulty(difficulty)
	return o.difficulty
}

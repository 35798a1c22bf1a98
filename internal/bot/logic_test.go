package bot

import (
	"math/rand/v2"
	"slices"
	"testing"

	"ctchen222/tictactoe/internal/game"
)

const (
	x = game.X
	o = game.O
	e = game.Empty
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestFindWinningMove(t *testing.T) {
	tests := []struct {
		name      string
		board     game.Board
		mark      game.Mark
		wantCell  int
		wantFound bool
	}{
		{
			name:      "No winning move - empty board",
			board:     game.Board{},
			mark:      x,
			wantCell:  -1,
			wantFound: false,
		},
		{
			name: "X can win - first row",
			board: game.Board{
				x, x, e,
				o, o, e,
				e, e, e,
			},
			mark:      x,
			wantCell:  2,
			wantFound: true,
		},
		{
			name: "O can win - second column gap in the middle",
			board: game.Board{
				x, o, e,
				x, e, e,
				e, o, e,
			},
			mark:      o,
			wantCell:  4,
			wantFound: true,
		},
		{
			name: "X can win - main diagonal",
			board: game.Board{
				e, e, e,
				e, x, e,
				e, e, x,
			},
			mark:      x,
			wantCell:  0,
			wantFound: true,
		},
		{
			name: "first line in table order wins the scan",
			board: game.Board{
				e, e, e,
				o, o, e,
				o, e, e,
			},
			mark:      o,
			wantCell:  5,
			wantFound: true,
		},
		{
			name: "winning cell at index 0",
			board: game.Board{
				e, x, x,
				o, o, e,
				e, e, e,
			},
			mark:      x,
			wantCell:  0,
			wantFound: true,
		},
		{
			name:      "Empty mark never matches",
			board:     game.Board{},
			mark:      e,
			wantCell:  -1,
			wantFound: false,
		},
		{
			name: "Full board, no win possible",
			board: game.Board{
				x, o, x,
				o, x, o,
				o, x, o,
			},
			mark:      x,
			wantCell:  -1,
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell, found := findWinningMove(tt.board, tt.mark)
			if found != tt.wantFound || cell != tt.wantCell {
				t.Errorf("findWinningMove() got (%d, %v), want (%d, %v)", cell, found, tt.wantCell, tt.wantFound)
			}
		})
	}
}

func TestSelectMove(t *testing.T) {
	tests := []struct {
		name  string
		board game.Board
		mark  game.Mark
		want  int
	}{
		{
			name: "Block X's two-in-a-row",
			board: game.Board{
				x, x, e,
				e, e, e,
				e, e, e,
			},
			mark: o,
			want: 2,
		},
		{
			name:  "Take center on an empty board",
			board: game.Board{},
			mark:  o,
			want:  4,
		},
		{
			name: "Win beats block",
			board: game.Board{
				x, x, e,
				o, o, e,
				x, e, e,
			},
			mark: o,
			want: 5,
		},
		{
			name: "Win at index 0",
			board: game.Board{
				e, o, o,
				x, x, e,
				x, e, e,
			},
			mark: o,
			want: 0,
		},
		{
			name: "Lowest remaining cell when center and corners are taken",
			board: game.Board{
				x, e, o,
				o, x, x,
				x, e, o,
			},
			mark: o,
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectMove(tt.board, tt.mark, testRand())
			if err != nil {
				t.Fatalf("SelectMove() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("SelectMove() got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSelectMove_RandomCorner(t *testing.T) {
	board := game.Board{
		e, e, e,
		e, x, e,
		e, e, e,
	}
	rng := testRand()
	seen := map[int]bool{}

	for range 100 {
		cell, err := SelectMove(board, o, rng)
		if err != nil {
			t.Fatalf("SelectMove() unexpected error: %v", err)
		}
		if !slices.Contains(game.Corners[:], cell) {
			t.Fatalf("SelectMove() expected a corner, got %d", cell)
		}
		seen[cell] = true
	}

	if len(seen) < 2 {
		t.Errorf("SelectMove() always picked the same corner: %v", seen)
	}
}

func TestSelectMove_OnlyEmptyCorners(t *testing.T) {
	board := game.Board{
		x, e, o,
		e, x, e,
		e, e, e,
	}

	for range 50 {
		cell, err := SelectMove(board, o, testRand())
		if err != nil {
			t.Fatalf("SelectMove() unexpected error: %v", err)
		}
		// X threatens 0-4-8, so the block fires first.
		if cell != 8 {
			t.Fatalf("SelectMove() got %d, want block at 8", cell)
		}
	}

	board = game.Board{
		x, o, e,
		e, o, e,
		e, x, e,
	}
	for range 50 {
		cell, _ := SelectMove(board, x, rand.New(rand.NewPCG(rand.Uint64(), 0)))
		if cell != 2 && cell != 6 && cell != 8 {
			t.Fatalf("SelectMove() expected an empty corner, got %d", cell)
		}
	}
}

func TestSelectMove_FullBoard(t *testing.T) {
	board := game.Board{x, o, x, o, x, o, o, x, o}

	if _, err := SelectMove(board, x, testRand()); err != ErrNoAvailableMoves {
		t.Errorf("SelectMove() on a full board got %v, want ErrNoAvailableMoves", err)
	}
}

// Every reachable non-terminal position must yield an empty cell.
func TestSelectMove_NeverReturnsOccupiedCell(t *testing.T) {
	rng := testRand()
	checked := 0

	var walk func(board game.Board, turn game.Mark)
	walk = func(board game.Board, turn game.Mark) {
		if board.HasLine(x) || board.HasLine(o) || board.IsFull() || checked > 20000 {
			return
		}
		cell, err := SelectMove(board, turn, rng)
		if err != nil {
			t.Fatalf("SelectMove() error on %v: %v", board, err)
		}
		if board[cell] != game.Empty {
			t.Fatalf("SelectMove() returned occupied cell %d on %v", cell, board)
		}
		checked++
		for _, next := range board.EmptyCells() {
			child := board
			child[next] = turn
			walk(child, turn.Opponent())
		}
	}

	walk(game.Board{}, x)
}

func TestCalculateNextMove(t *testing.T) {
	tests := []struct {
		name       string
		board      game.Board
		mark       game.Mark
		difficulty string
		want       int // -1 for any empty cell
	}{
		{
			name:       "Hard difficulty - winning move",
			board:      game.Board{x, x, e, o, e, e, e, e, e},
			mark:       x,
			difficulty: Hard,
			want:       2,
		},
		{
			name:       "Medium difficulty - blocking move",
			board:      game.Board{o, o, e, x, e, e, e, e, e},
			mark:       x,
			difficulty: Medium,
			want:       2,
		},
		{
			name:       "Easy difficulty - random valid move",
			board:      game.Board{},
			mark:       x,
			difficulty: Easy,
			want:       -1,
		},
		{
			name:       "Invalid difficulty - defaults to hard",
			board:      game.Board{},
			mark:       o,
			difficulty: "invalid",
			want:       4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateNextMove(tt.board, tt.mark, tt.difficulty, testRand())
			if err != nil {
				t.Fatalf("CalculateNextMove() unexpected error: %v", err)
			}
			if tt.want == -1 {
				if tt.board[got] != game.Empty {
					t.Errorf("CalculateNextMove() returned a non-empty cell %d", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("CalculateNextMove() got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCalculateNextMove_FullBoard(t *testing.T) {
	board := game.Board{x, o, x, o, x, o, o, x, o}

	for _, d := range []string{Easy, Medium, Hard} {
		if _, err := CalculateNextMove(board, x, d, testRand()); err != ErrNoAvailableMoves {
			t.Errorf("CalculateNextMove(%s) on a full board got %v, want ErrNoAvailableMoves", d, err)
		}
	}
}

func TestOpponent(t *testing.T) {
	op := NewOpponent("bogus", nil)
	if op.Difficulty() != Hard {
		t.Errorf("expected default difficulty %q, got %q", Hard, op.Difficulty())
	}

	if got := op.SetDifficulty(Easy); got != Easy {
		t.Errorf("SetDifficulty() got %q, want %q", got, Easy)
	}

	cell, err := op.SelectMove(game.Board{x, o, x, o, x, o, o, e, o}, x)
	if err != nil || cell != 7 {
		t.Errorf("SelectMove() got (%d, %v), want (7, nil)", cell, err)
	}
}

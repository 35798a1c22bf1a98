package game

import (
	"testing"
)

func TestBoard_WinningLine(t *testing.T) {
	tests := []struct {
		name     string
		board    Board
		mark     Mark
		wantLine [3]int
		wantOK   bool
	}{
		{
			name:   "empty board",
			board:  Board{},
			mark:   X,
			wantOK: false,
		},
		{
			name:   "empty mark never wins",
			board:  Board{},
			mark:   Empty,
			wantOK: false,
		},
		{
			name: "X wins - first row",
			board: Board{
				X, X, X,
				Empty, O, Empty,
				Empty, Empty, O,
			},
			mark:     X,
			wantLine: [3]int{0, 1, 2},
			wantOK:   true,
		},
		{
			name: "O wins - second column",
			board: Board{
				X, O, Empty,
				X, O, Empty,
				Empty, O, Empty,
			},
			mark:     O,
			wantLine: [3]int{1, 4, 7},
			wantOK:   true,
		},
		{
			name: "O wins - anti-diagonal",
			board: Board{
				Empty, Empty, O,
				Empty, O, Empty,
				O, Empty, Empty,
			},
			mark:     O,
			wantLine: [3]int{2, 4, 6},
			wantOK:   true,
		},
		{
			name: "other mark's line does not count",
			board: Board{
				X, X, X,
				O, O, Empty,
				Empty, Empty, Empty,
			},
			mark:   O,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, ok := tt.board.WinningLine(tt.mark)
			if ok != tt.wantOK || (ok && line != tt.wantLine) {
				t.Errorf("WinningLine() got = (%v, %v), want (%v, %v)", line, ok, tt.wantLine, tt.wantOK)
			}
		})
	}
}

func TestBoard_IsFull(t *testing.T) {
	tests := []struct {
		name  string
		board Board
		want  bool
	}{
		{name: "Empty board is not full", board: Board{}, want: false},
		{name: "Partial board is not full", board: Board{X, Empty, Empty, Empty, O}, want: false},
		{name: "Full board is full", board: Board{X, O, X, X, O, O, O, X, X}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.board.IsFull(); got != tt.want {
				t.Errorf("IsFull() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBoard_EmptyCells(t *testing.T) {
	b := Board{X, Empty, O, Empty, X, Empty, Empty, O, X}

	got := b.EmptyCells()
	want := []int{1, 3, 5, 6}

	if len(got) != len(want) {
		t.Fatalf("EmptyCells() got = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("EmptyCells() got = %v, want %v", got, want)
		}
	}
}

func TestMark_Opponent(t *testing.T) {
	if X.Opponent() != O || O.Opponent() != X || Empty.Opponent() != Empty {
		t.Errorf("unexpected opponent mapping")
	}
}

package game

// Mark represents the mark of a player (X, O) or an empty cell.
type Mark string

const (
	Empty Mark = ""
	X     Mark = "X"
	O     Mark = "O"
)

// Opponent returns the other player's mark. Empty has no opponent.
func (m Mark) Opponent() Mark {
	switch m {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// Board is a 3x3 board stored row-major, indices 0-8.
type Board [9]Mark

// Board boundaries
const (
	CellMin = 0
	CellMax = len(Board{}) - 1
	Center  = 4
)

// Lines lists every winning triple: rows, then columns, then diagonals.
var Lines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Corners are the four corner cells.
var Corners = [4]int{0, 2, 6, 8}

// IsFull reports whether no cell is Empty.
func (b Board) IsFull() bool {
	for _, cell := range b {
		if cell == Empty {
			return false
		}
	}
	return true
}

// EmptyCells returns the indices of empty cells in ascending order.
func (b Board) EmptyCells() []int {
	cells := make([]int, 0, len(b))
	for i, cell := range b {
		if cell == Empty {
			cells = append(cells, i)
		}
	}
	return cells
}

// WinningLine returns the first line fully held by mark.
func (b Board) WinningLine(mark Mark) ([3]int, bool) {
	if mark == Empty {
		return [3]int{}, false
	}
	for _, line := range Lines {
		if b[line[0]] == mark && b[line[1]] == mark && b[line[2]] == mark {
			return line, true
		}
	}
	return [3]int{}, false
}

// HasLine reports whether mark holds any winning line.
func (b Board) HasLine(mark Mark) bool {
	_, ok := b.WinningLine(mark)
	return ok
}

// InBounds reports whether index addresses a cell.
func InBounds(index int) bool {
	return index >= CellMin && index <= CellMax
}

package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/neon-tictactoe/internal/apperror"
)

const (
	PlayerX Mark = "X"
	PlayerO Mark = "O"

	EmptyCell Mark = ""

	// CenterCell is the index of the middle cell of the grid.
	CenterCell = 4
)

var (
	ErrInvalidCell = errors.New("invalid cell index")
	ErrInvalidMark = errors.New("invalid mark")

	// WinCombos lists every triple in a fixed order: rows, columns, diagonals.
	WinCombos = [8][3]int{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
		{0, 3, 6},
		{1, 4, 7},
		{2, 5, 8},
		{0, 4, 8},
		{2, 4, 6},
	}
)

// Mark is a symbol a player puts on the board.
type Mark string

// IsValid reports whether the mark is X or O.
func (that Mark) IsValid() bool {
	return that == PlayerX || that == PlayerO
}

// Other returns the opposite mark.
func (that Mark) Other() Mark {
	if that == PlayerX {
		return PlayerO
	}
	return PlayerX
}

// Board is a fixed 3x3 grid stored row-major.
type Board [9]Mark

// PlaceMark - puts mark into the empty cell at index.
func (that *Board) PlaceMark(index int, mark Mark) error {
	if index < 0 || index >= len(that) {
		return fmt.Errorf("%w: cell %d", ErrInvalidCell, index)
	}

	if !mark.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidMark, mark)
	}

	if that[index] != EmptyCell {
		return apperror.ErrCellOccupied
	}

	that[index] = mark

	return nil
}

// DetectWinner - returns the winning mark and the first uniform triple.
func (that Board) DetectWinner() (Mark, [3]int, bool) {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a, combo, true
		}
	}

	return EmptyCell, [3]int{}, false
}

// IsFull reports whether no cell is empty.
func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// EmptyCells returns indexes of empty cells in ascending order.
func (that Board) EmptyCells() []int {
	cells := make([]int, 0, len(that))
	for i, cell := range that {
		if cell == EmptyCell {
			cells = append(cells, i)
		}
	}

	return cells
}

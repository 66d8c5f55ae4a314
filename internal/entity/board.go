package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
)

type Symbol string

const (
	SymbolX Symbol = "X"
	SymbolO Symbol = "O"

	EmptyCell Symbol = ""
)

const BoardSize = 9

// WinCombos - the 3 rows, 3 columns and 2 diagonals.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

func (that Symbol) IsValid() bool {
	return that == SymbolX || that == SymbolO
}

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWin        Status = "win"
	StatusDraw       Status = "draw"
)

// Outcome - result of evaluating a board. Winner is set only for StatusWin.
type Outcome struct {
	Status Status `json:"status"`
	Winner Symbol `json:"winner,omitempty"`
}

func (that Outcome) IsFinished() bool {
	return that.Status == StatusWin || that.Status == StatusDraw
}

type Board [BoardSize]Symbol

func ValidCell(index int) bool {
	return index >= 0 && index < BoardSize
}

// Filled - number of non-empty cells.
func (that *Board) Filled() int {
	filled := 0
	for _, cell := range that {
		if cell != EmptyCell {
			filled++
		}
	}

	return filled
}

// Turn - X moves on an even number of filled cells, O on odd.
func (that *Board) Turn() Symbol {
	if that.Filled()%2 == 0 {
		return SymbolX
	}
	return SymbolO
}

func (that *Board) Evaluate() Outcome {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return Outcome{Status: StatusWin, Winner: a}
		}
	}

	// the game will continue until all the squares are full
	if that.Filled() < BoardSize {
		return Outcome{Status: StatusInProgress}
	}

	return Outcome{Status: StatusDraw}
}

// CanPlace - checks whether symbol may be written into cell on this board.
func (that *Board) CanPlace(symbol Symbol, cell int) error {
	if !symbol.IsValid() {
		return apperror.ErrNoSymbol
	}

	if !ValidCell(cell) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if that.Evaluate().IsFinished() {
		return apperror.ErrGameFinished
	}

	if that[cell] != EmptyCell {
		return apperror.ErrCellOccupied
	}

	if that.Turn() != symbol {
		return apperror.ErrNotYourTurn
	}

	return nil
}

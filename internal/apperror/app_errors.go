package apperror

import "errors"

var (
	ErrEmptyName     = errors.New("player name is empty")
	ErrAlreadyJoined = errors.New("player already joined")
	ErrNotJoined     = errors.New("player has not joined")
	ErrNoSymbol      = errors.New("no symbol assigned")
	ErrInvalidCell   = errors.New("invalid cell index")
	ErrCellOccupied  = errors.New("cell is already occupied")
	ErrNotYourTurn   = errors.New("it's not your turn")
	ErrGameFinished  = errors.New("game is already finished")
)

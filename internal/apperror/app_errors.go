package apperror

import "errors"

var (
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrGameLocked       = errors.New("game is locked")
	ErrRoundOver        = errors.New("round is already over")
	ErrRoundInProgress  = errors.New("round is still in progress")
	ErrNoActiveSession  = errors.New("no active session")
	ErrInvalidMode      = errors.New("invalid game mode")
	ErrInvalidTimer     = errors.New("invalid turn timer configuration")
	ErrNoAvailableMoves = errors.New("no available moves")
	ErrSessionNotFound  = errors.New("session not found")
	ErrCorruptedSession = errors.New("corrupted session snapshot")
)

package model

import "errors"

// Common errors used across the application
var (
	// Room errors
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrNameTaken          = errors.New("player name is already taken")
	ErrAlreadyInRoom      = errors.New("player is already in room")
	ErrNotInRoom          = errors.New("player is not in room")
	ErrNotHost            = errors.New("only the host can do that")
	ErrWrongState         = errors.New("room is not in the right state")
	ErrGameOver           = errors.New("game has ended")
	ErrCodeSpaceExhausted = errors.New("no free room codes")

	// Turn/round errors
	ErrNotYourTurn         = errors.New("not this player's turn")
	ErrAlreadySubmitted    = errors.New("already submitted this round")
	ErrInvalidRanking      = errors.New("ranking is not a permutation of the other players")
	ErrInvalidMaxRounds    = errors.New("max rounds must be positive")
	ErrInsufficientPlayers = errors.New("not enough players to start")
	ErrNotAwaitingContinue = errors.New("room is not waiting to continue")
)

package rules

import "errors"

// Sentinel errors returned by the rules adapter. Match them with errors.Is.
var (
	// ErrInvalidPosition means the position cannot produce a legal-move list.
	ErrInvalidPosition = errors.New("invalid position")

	// ErrIllegalMove means the move is not in the legal list of the current position.
	ErrIllegalMove = errors.New("illegal move")

	// ErrNothingToUndo is returned by Undo at the root of a game.
	ErrNothingToUndo = errors.New("nothing to undo")
)

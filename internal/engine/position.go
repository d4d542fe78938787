package engine

import (
	"github.com/hailam/chessplay/internal/rules"
	"github.com/notnil/chess"
)

// Position is the rules-engine view the evaluator and search consume.
// Apply and Undo mutate the receiver; every Apply made by the engine is
// paired with an Undo before the call that made it returns.
type Position interface {
	rules.PieceLookup
	Turn() chess.Color
	LegalMoves() ([]*chess.Move, error)
	Apply(m *chess.Move) error
	Undo() error
	Outcome() rules.Outcome
	InCheck() bool
}

var _ Position = (*rules.Game)(nil)

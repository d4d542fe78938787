// Package engine implements the chess AI: a static evaluator and a
// depth-bounded minimax search with alpha-beta pruning.
package engine

import (
	"github.com/hailam/chessplay/internal/rules"
	"github.com/notnil/chess"
)

// Evaluation constants (centipawns)
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000
)

// MateScore is the magnitude returned for a checkmated position. It is far
// above any reachable material and positional sum.
const MateScore = 1_000_000

// EndgameThreshold is the non-king material of both sides at or below which
// the king switches to its endgame table.
const EndgameThreshold = 1300

// pieceValues is indexed by chess.PieceType.
var pieceValues = [7]int{
	chess.NoPieceType: 0,
	chess.King:        KingValue,
	chess.Queen:       QueenValue,
	chess.Rook:        RookValue,
	chess.Bishop:      BishopValue,
	chess.Knight:      KnightValue,
	chess.Pawn:        PawnValue,
}

// PieceValue returns the material value of pt.
func PieceValue(pt chess.PieceType) int {
	if int(pt) < 0 || int(pt) >= len(pieceValues) {
		return 0
	}
	return pieceValues[pt]
}

// Weights tunes the secondary evaluation terms. A zero weight disables its term.
type Weights struct {
	Mobility       int // per legal move of the side to move
	Check          int // penalty for the side in check
	KingExposure   int // penalty for a king off its first two ranks outside the endgame
	ProtectedPiece int // bonus per non-king piece defended by its own side
}

// DefaultWeights are the weights used by the package-level Evaluate.
var DefaultWeights = Weights{
	Mobility:       2,
	Check:          50,
	KingExposure:   20,
	ProtectedPiece: 0,
}

// pieceSquareTable is written rank 8 first, from White's point of view.
type pieceSquareTable [8][8]int

var pawnTable = pieceSquareTable{
	{0, 0, 0, 0, 0, 0, 0, 0},
	{50, 50, 50, 50, 50, 50, 50, 50},
	{10, 10, 20, 30, 30, 20, 10, 10},
	{5, 5, 10, 25, 25, 10, 5, 5},
	{0, 0, 0, 20, 20, 0, 0, 0},
	{5, -5, -10, 0, 0, -10, -5, 5},
	{5, 10, 10, -20, -20, 10, 10, 5},
	{0, 0, 0, 0, 0, 0, 0, 0},
}

var knightTable = pieceSquareTable{
	{-50, -40, -30, -30, -30, -30, -40, -50},
	{-40, -20, 0, 0, 0, 0, -20, -40},
	{-30, 0, 10, 15, 15, 10, 0, -30},
	{-30, 5, 15, 20, 20, 15, 5, -30},
	{-30, 0, 15, 20, 20, 15, 0, -30},
	{-30, 5, 10, 15, 15, 10, 5, -30},
	{-40, -20, 0, 5, 5, 0, -20, -40},
	{-50, -40, -30, -30, -30, -30, -40, -50},
}

var bishopTable = pieceSquareTable{
	{-20, -10, -10, -10, -10, -10, -10, -20},
	{-10, 0, 0, 0, 0, 0, 0, -10},
	{-10, 0, 10, 10, 10, 10, 0, -10},
	{-10, 5, 5, 10, 10, 5, 5, -10},
	{-10, 0, 5, 10, 10, 5, 0, -10},
	{-10, 5, 5, 5, 5, 5, 5, -10},
	{-10, 0, 5, 0, 0, 5, 0, -10},
	{-20, -10, -10, -10, -10, -10, -10, -20},
}

var rookTable = pieceSquareTable{
	{0, 0, 0, 0, 0, 0, 0, 0},
	{5, 10, 10, 10, 10, 10, 10, 5},
	{-5, 0, 0, 0, 0, 0, 0, -5},
	{-5, 0, 0, 0, 0, 0, 0, -5},
	{-5, 0, 0, 0, 0, 0, 0, -5},
	{-5, 0, 0, 0, 0, 0, 0, -5},
	{-5, 0, 0, 0, 0, 0, 0, -5},
	{0, 0, 0, 5, 5, 0, 0, 0},
}

var queenTable = pieceSquareTable{
	{-20, -10, -10, -5, -5, -10, -10, -20},
	{-10, 0, 0, 0, 0, 0, 0, -10},
	{-10, 0, 5, 5, 5, 5, 0, -10},
	{-5, 0, 5, 5, 5, 5, 0, -5},
	{0, 0, 5, 5, 5, 5, 0, -5},
	{-10, 5, 5, 5, 5, 5, 0, -10},
	{-10, 0, 5, 0, 0, 0, 0, -10},
	{-20, -10, -10, -5, -5, -10, -10, -20},
}

// Middlegame king: stay behind the pawn shield.
var kingTable = pieceSquareTable{
	{-30, -40, -40, -50, -50, -40, -40, -30},
	{-30, -40, -40, -50, -50, -40, -40, -30},
	{-30, -40, -40, -50, -50, -40, -40, -30},
	{-30, -40, -40, -50, -50, -40, -40, -30},
	{-20, -30, -30, -40, -40, -30, -30, -20},
	{-10, -20, -20, -20, -20, -20, -20, -10},
	{20, 20, 0, 0, 0, 0, 20, 20},
	{20, 30, 10, 0, 0, 10, 30, 20},
}

// Endgame king: walk to the centre.
var kingEndgameTable = pieceSquareTable{
	{-50, -40, -30, -20, -20, -30, -40, -50},
	{-30, -20, -10, 0, 0, -10, -20, -30},
	{-30, -10, 20, 30, 30, 20, -10, -30},
	{-30, -10, 30, 40, 40, 30, -10, -30},
	{-30, -10, 30, 40, 40, 30, -10, -30},
	{-30, -10, 20, 30, 30, 20, -10, -30},
	{-30, -30, 0, 0, 0, 0, -30, -30},
	{-50, -30, -30, -30, -30, -30, -30, -50},
}

// tables is indexed by chess.PieceType; King uses the middlegame table.
var tables = [7]*pieceSquareTable{
	chess.King:   &kingTable,
	chess.Queen:  &queenTable,
	chess.Rook:   &rookTable,
	chess.Bishop: &bishopTable,
	chess.Knight: &knightTable,
	chess.Pawn:   &pawnTable,
}

// squareBonus returns the table value of p on sq. Black reads the table
// rank-flipped so both colours are scored from the same orientation.
func squareBonus(p chess.Piece, sq chess.Square, endgame bool) int {
	pt := p.Type()
	table := tables[pt]
	if pt == chess.King && endgame {
		table = &kingEndgameTable
	}
	if table == nil {
		return 0
	}
	row := 7 - int(sq.Rank())
	if p.Color() == chess.Black {
		row = int(sq.Rank())
	}
	return table[row][sq.File()]
}

// Evaluator scores positions with a fixed set of weights. It holds no
// mutable state and is safe for concurrent use.
type Evaluator struct {
	weights Weights
}

// NewEvaluator returns an evaluator using w.
func NewEvaluator(w Weights) *Evaluator {
	return &Evaluator{weights: w}
}

// Weights returns the evaluator's weights.
func (e *Evaluator) Weights() Weights {
	return e.weights
}

var defaultEvaluator = NewEvaluator(DefaultWeights)

// Evaluate returns the static evaluation of pos with DefaultWeights.
// Positive scores favour White.
func Evaluate(pos Position) int {
	return defaultEvaluator.Evaluate(pos)
}

// Evaluate returns the static evaluation of pos in centipawns, positive for
// White. Checkmate returns ±MateScore in favour of the side that delivered it
// and every drawn outcome returns exactly 0.
func (e *Evaluator) Evaluate(pos Position) int {
	switch outcome := pos.Outcome(); {
	case outcome == rules.Checkmate:
		if pos.Turn() == chess.White {
			return -MateScore
		}
		return MateScore
	case outcome.IsDraw():
		return 0
	}

	squares := rules.Snapshot(pos)
	endgame := isEndgame(&squares)
	w := e.weights

	score := 0
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := squares[sq]
		if p == chess.NoPiece {
			continue
		}

		v := pieceValues[p.Type()] + squareBonus(p, sq, endgame)
		if p.Type() == chess.King {
			if w.KingExposure != 0 && !endgame && exposedKing(p.Color(), sq) {
				v -= w.KingExposure
			}
		} else if w.ProtectedPiece != 0 && squares.Attacked(sq, p.Color()) {
			v += w.ProtectedPiece
		}

		if p.Color() == chess.White {
			score += v
		} else {
			score -= v
		}
	}

	// Any position that reached here has a legal-move list; a failure only
	// drops the mobility term.
	sign := 1
	if pos.Turn() == chess.Black {
		sign = -1
	}
	if w.Mobility != 0 {
		if moves, err := pos.LegalMoves(); err == nil {
			score += sign * len(moves) * w.Mobility
		}
	}
	if w.Check != 0 && pos.InCheck() {
		score -= sign * w.Check
	}

	return score
}

// EvaluateMaterial returns the material balance only (positive favours White).
func EvaluateMaterial(pos rules.PieceLookup) int {
	score := 0
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := pos.PieceAt(sq)
		if p == chess.NoPiece || p.Type() == chess.King {
			continue
		}
		if p.Color() == chess.White {
			score += pieceValues[p.Type()]
		} else {
			score -= pieceValues[p.Type()]
		}
	}
	return score
}

// IsEndgame reports whether the non-king material of both sides is at or
// below EndgameThreshold.
func IsEndgame(pos rules.PieceLookup) bool {
	squares := rules.Snapshot(pos)
	return isEndgame(&squares)
}

func isEndgame(squares *rules.Squares) bool {
	material := 0
	for _, p := range squares {
		if p == chess.NoPiece || p.Type() == chess.King {
			continue
		}
		material += pieceValues[p.Type()]
	}
	return material <= EndgameThreshold
}

// exposedKing reports a king that has left its first two ranks.
func exposedKing(c chess.Color, sq chess.Square) bool {
	rank := int(sq.Rank())
	if c == chess.Black {
		rank = 7 - rank
	}
	return rank >= 2
}

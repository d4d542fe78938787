package engine

import (
	"sort"

	"github.com/hailam/chessplay/internal/rules"
	"github.com/notnil/chess"
)

// Move ordering priorities
const (
	GoodCaptureBase = 1000000 // Base score for captures
	PromotionBase   = 500000  // Non-capturing promotions
)

// orderIndex maps chess.PieceType to the rows of mvvLva (P, N, B, R, Q, K).
var orderIndex = [7]int{
	chess.Pawn:   0,
	chess.Knight: 1,
	chess.Bishop: 2,
	chess.Rook:   3,
	chess.Queen:  4,
	chess.King:   5,
}

// MVV-LVA (Most Valuable Victim - Least Valuable Attacker) scores
// Higher score = search first
var mvvLva = [6][6]int{
	//       P    N    B    R    Q    K  (attacker)
	/* P */ {15, 14, 14, 13, 12, 11},
	/* N */ {25, 24, 24, 23, 22, 21},
	/* B */ {35, 34, 34, 33, 32, 31},
	/* R */ {45, 44, 44, 43, 42, 41},
	/* Q */ {55, 54, 54, 53, 52, 51},
	/* K */ {0, 0, 0, 0, 0, 0},
}

// capturedType returns the type of the piece m captures, or NoPieceType.
func capturedType(pos rules.PieceLookup, m *chess.Move) chess.PieceType {
	if victim := pos.PieceAt(m.S2()); victim != chess.NoPiece {
		return victim.Type()
	}
	if m.HasTag(chess.EnPassant) {
		return chess.Pawn
	}
	return chess.NoPieceType
}

// scoreMove returns the ordering score for a single move.
func scoreMove(pos rules.PieceLookup, m *chess.Move) int {
	if victim := capturedType(pos, m); victim != chess.NoPieceType {
		attacker := pos.PieceAt(m.S1()).Type()
		if attacker == chess.NoPieceType {
			return GoodCaptureBase
		}
		return GoodCaptureBase + mvvLva[orderIndex[victim]][orderIndex[attacker]]*1000
	}

	if promo := m.Promo(); promo != chess.NoPieceType {
		return PromotionBase + PieceValue(promo)
	}

	return 0
}

// orderMoves sorts moves by descending ordering score. The sort is stable so
// moves with equal scores keep the rules engine's enumeration order.
func orderMoves(pos rules.PieceLookup, moves []*chess.Move) {
	scores := make([]int, len(moves))
	for i, m := range moves {
		scores[i] = scoreMove(pos, m)
	}
	sort.Stable(byScore{moves: moves, scores: scores})
}

type byScore struct {
	moves  []*chess.Move
	scores []int
}

func (b byScore) Len() int           { return len(b.moves) }
func (b byScore) Less(i, j int) bool { return b.scores[i] > b.scores[j] }
func (b byScore) Swap(i, j int) {
	b.moves[i], b.moves[j] = b.moves[j], b.moves[i]
	b.scores[i], b.scores[j] = b.scores[j], b.scores[i]
}

package engine

import (
	"fmt"

	"github.com/notnil/chess"
)

// Search constants
const (
	Infinity = 2 * MateScore
	MaxDepth = 10
)

// searcher runs one search. It is created per call and discarded afterwards.
type searcher struct {
	eval  *Evaluator
	nodes uint64
}

// rootResult is the outcome of a root search.
type rootResult struct {
	move  *chess.Move
	score int
}

// root searches every legal move of pos to depth plies and returns the best
// one for the side to move. Ties keep the first move in ordering order.
// jitter, when non-nil, is added in the mover's favour to each root score and
// forces a full window per root move so every compared score is exact.
func (s *searcher) root(pos Position, depth int, jitter func() int) (rootResult, error) {
	moves, err := pos.LegalMoves()
	if err != nil {
		return rootResult{}, fmt.Errorf("legal moves: %w", err)
	}
	if len(moves) == 0 {
		return rootResult{score: s.leaf(pos, 0)}, nil
	}
	orderMoves(pos, moves)

	white := pos.Turn() == chess.White
	alpha, beta := -Infinity, Infinity
	best := rootResult{score: Infinity}
	if white {
		best.score = -Infinity
	}

	for _, m := range moves {
		a, b := alpha, beta
		if jitter != nil {
			a, b = -Infinity, Infinity
		}
		score, err := s.child(pos, m, depth-1, 1, a, b)
		if err != nil {
			return rootResult{}, err
		}

		if jitter != nil {
			if white {
				score += jitter()
			} else {
				score -= jitter()
			}
		}

		if white {
			if best.move == nil || score > best.score {
				best = rootResult{move: m, score: score}
			}
			alpha = max(alpha, best.score)
		} else {
			if best.move == nil || score < best.score {
				best = rootResult{move: m, score: score}
			}
			beta = min(beta, best.score)
		}
	}

	return best, nil
}

// minimax returns the value of pos searched to depth plies, White maximising
// and Black minimising. Siblings are pruned once beta <= alpha.
func (s *searcher) minimax(pos Position, depth, ply, alpha, beta int) (int, error) {
	s.nodes++

	if depth == 0 || pos.Outcome().IsOver() {
		return s.leaf(pos, ply), nil
	}

	moves, err := pos.LegalMoves()
	if err != nil {
		return 0, fmt.Errorf("legal moves: %w", err)
	}
	if len(moves) == 0 {
		return s.leaf(pos, ply), nil
	}
	orderMoves(pos, moves)

	if pos.Turn() == chess.White {
		best := -Infinity
		for _, m := range moves {
			score, err := s.child(pos, m, depth-1, ply+1, alpha, beta)
			if err != nil {
				return 0, err
			}
			best = max(best, score)
			alpha = max(alpha, best)
			if beta <= alpha {
				break
			}
		}
		return best, nil
	}

	best := Infinity
	for _, m := range moves {
		score, err := s.child(pos, m, depth-1, ply+1, alpha, beta)
		if err != nil {
			return 0, err
		}
		best = min(best, score)
		beta = min(beta, best)
		if beta <= alpha {
			break
		}
	}
	return best, nil
}

// child applies m, searches the resulting position and undoes m. The undo
// runs even if the search fails or panics.
func (s *searcher) child(pos Position, m *chess.Move, depth, ply, alpha, beta int) (score int, err error) {
	if err := pos.Apply(m); err != nil {
		return 0, fmt.Errorf("apply %s: %w", m, err)
	}
	defer func() {
		if uerr := pos.Undo(); uerr != nil && err == nil {
			err = fmt.Errorf("undo %s: %w", m, uerr)
		}
	}()
	return s.minimax(pos, depth, ply, alpha, beta)
}

// leaf evaluates pos and pulls mate scores toward zero by the distance from
// the root, so a shorter mate always outranks a longer one.
func (s *searcher) leaf(pos Position, ply int) int {
	score := s.eval.Evaluate(pos)
	switch score {
	case MateScore:
		return MateScore - ply
	case -MateScore:
		return -MateScore + ply
	}
	return score
}

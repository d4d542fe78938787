package rules

import "github.com/notnil/chess"

// PieceLookup is anything that can report the piece on a square.
type PieceLookup interface {
	PieceAt(sq chess.Square) chess.Piece
}

// Squares is a 64-square snapshot of a board, indexed A1=0 .. H8=63.
type Squares [64]chess.Piece

var (
	knightSteps = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookRays    = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopRays  = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// Snapshot copies every square of p into a Squares array.
func Snapshot(p PieceLookup) Squares {
	var s Squares
	for sq := chess.A1; sq <= chess.H8; sq++ {
		s[sq] = p.PieceAt(sq)
	}
	return s
}

// At returns the piece at file f, rank r, or NoPiece when off the board.
func (s *Squares) At(f, r int) chess.Piece {
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return chess.NoPiece
	}
	return s[r*8+f]
}

// King returns the square of the king of colour c, or NoSquare.
func (s *Squares) King(c chess.Color) chess.Square {
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := s[sq]
		if p.Type() == chess.King && p.Color() == c {
			return sq
		}
	}
	return chess.NoSquare
}

// Attacked reports whether any piece of colour by attacks sq.
func (s *Squares) Attacked(sq chess.Square, by chess.Color) bool {
	f, r := int(sq.File()), int(sq.Rank())

	// A pawn attacks diagonally forward, so look one rank behind from its side.
	pr := r - 1
	if by == chess.Black {
		pr = r + 1
	}
	for _, df := range [2]int{-1, 1} {
		if p := s.At(f+df, pr); p.Type() == chess.Pawn && p.Color() == by {
			return true
		}
	}

	for _, st := range knightSteps {
		if p := s.At(f+st[0], r+st[1]); p.Type() == chess.Knight && p.Color() == by {
			return true
		}
	}
	for _, st := range kingSteps {
		if p := s.At(f+st[0], r+st[1]); p.Type() == chess.King && p.Color() == by {
			return true
		}
	}

	if s.slider(f, r, rookRays, by, chess.Rook) {
		return true
	}
	return s.slider(f, r, bishopRays, by, chess.Bishop)
}

// slider walks each ray until the first occupied square and checks it for a
// piece of colour by that moves along that ray (kind or queen).
func (s *Squares) slider(f, r int, rays [4][2]int, by chess.Color, kind chess.PieceType) bool {
	for _, ray := range rays {
		for cf, cr := f+ray[0], r+ray[1]; cf >= 0 && cf < 8 && cr >= 0 && cr < 8; cf, cr = cf+ray[0], cr+ray[1] {
			p := s[cr*8+cf]
			if p == chess.NoPiece {
				continue
			}
			if p.Color() == by && (p.Type() == kind || p.Type() == chess.Queen) {
				return true
			}
			break
		}
	}
	return false
}

// insufficientMaterial reports positions where neither side can mate:
// K v K, K+minor v K, and K+B v K+B with both bishops on the same square colour.
func (s *Squares) insufficientMaterial() bool {
	var minors []chess.Square
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := s[sq]
		switch p.Type() {
		case chess.NoPieceType, chess.King:
		case chess.Knight, chess.Bishop:
			minors = append(minors, sq)
		default:
			return false
		}
	}

	switch len(minors) {
	case 0, 1:
		return true
	case 2:
		a, b := s[minors[0]], s[minors[1]]
		if a.Type() != chess.Bishop || b.Type() != chess.Bishop || a.Color() == b.Color() {
			return false
		}
		return squareShade(minors[0]) == squareShade(minors[1])
	}
	return false
}

func squareShade(sq chess.Square) int {
	return (int(sq.File()) + int(sq.Rank())) % 2
}

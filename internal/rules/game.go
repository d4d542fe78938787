// Package rules adapts github.com/notnil/chess to the apply/undo position
// contract the search engine consumes: legal-move enumeration, apply, undo,
// game-over predicates and square lookup.
package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Game is a mutable position backed by a stack of immutable notnil positions.
// Apply pushes, Undo pops; the zero value is not usable.
type Game struct {
	positions []*chess.Position
	moves     []*chess.Move
	keys      []string
}

// New returns a game at the standard starting position.
func New() *Game {
	g, _ := FromFEN(StartFEN)
	return g
}

// FromFEN builds a game from a FEN string.
func FromFEN(fen string) (*Game, error) {
	opt, err := chess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	pos := chess.NewGame(opt).Position()
	if err := validate(pos); err != nil {
		return nil, err
	}
	return &Game{
		positions: []*chess.Position{pos},
		keys:      []string{repetitionKey(pos)},
	}, nil
}

// Clone returns an independent copy sharing the immutable positions.
func (g *Game) Clone() *Game {
	return &Game{
		positions: append([]*chess.Position(nil), g.positions...),
		moves:     append([]*chess.Move(nil), g.moves...),
		keys:      append([]string(nil), g.keys...),
	}
}

// validate rejects positions notnil parses but cannot play from.
func validate(pos *chess.Position) error {
	board := pos.Board()
	var s Squares
	kings := [3]int{}
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := board.Piece(sq)
		s[sq] = p
		switch p.Type() {
		case chess.King:
			kings[p.Color()]++
		case chess.Pawn:
			if r := sq.Rank(); r == chess.Rank1 || r == chess.Rank8 {
				return fmt.Errorf("%w: pawn on %s", ErrInvalidPosition, sq)
			}
		}
	}
	if kings[chess.White] != 1 || kings[chess.Black] != 1 {
		return fmt.Errorf("%w: each side needs exactly one king", ErrInvalidPosition)
	}

	them := pos.Turn().Other()
	if s.Attacked(s.King(them), pos.Turn()) {
		return fmt.Errorf("%w: side not to move is in check", ErrInvalidPosition)
	}
	return nil
}

func (g *Game) top() *chess.Position {
	if len(g.positions) == 0 {
		return nil
	}
	return g.positions[len(g.positions)-1]
}

// Position returns the current notnil position.
func (g *Game) Position() *chess.Position {
	return g.top()
}

// Turn returns the side to move.
func (g *Game) Turn() chess.Color {
	if pos := g.top(); pos != nil {
		return pos.Turn()
	}
	return chess.NoColor
}

// PieceAt returns the piece on sq.
func (g *Game) PieceAt(sq chess.Square) chess.Piece {
	pos := g.top()
	if pos == nil {
		return chess.NoPiece
	}
	return pos.Board().Piece(sq)
}

// LegalMoves returns a fresh slice of legal moves in rules-engine order.
func (g *Game) LegalMoves() ([]*chess.Move, error) {
	pos := g.top()
	if pos == nil {
		return nil, fmt.Errorf("%w: empty game", ErrInvalidPosition)
	}
	valid := pos.ValidMoves()
	moves := make([]*chess.Move, len(valid))
	copy(moves, valid)
	return moves, nil
}

// MovesFrom returns the legal moves whose origin is sq.
func (g *Game) MovesFrom(sq chess.Square) ([]*chess.Move, error) {
	all, err := g.LegalMoves()
	if err != nil {
		return nil, err
	}
	var moves []*chess.Move
	for _, m := range all {
		if m.S1() == sq {
			moves = append(moves, m)
		}
	}
	return moves, nil
}

// Apply plays m, which must match a legal move by origin, target and promotion.
func (g *Game) Apply(m *chess.Move) error {
	if m == nil {
		return fmt.Errorf("%w: nil move", ErrIllegalMove)
	}
	legal, err := g.LegalMoves()
	if err != nil {
		return err
	}
	for _, lm := range legal {
		if SameMove(lm, m) {
			next := g.top().Update(lm)
			g.positions = append(g.positions, next)
			g.moves = append(g.moves, lm)
			g.keys = append(g.keys, repetitionKey(next))
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrIllegalMove, UCI(m))
}

// Undo takes back the last applied move.
func (g *Game) Undo() error {
	if len(g.moves) == 0 {
		return ErrNothingToUndo
	}
	n := len(g.positions) - 1
	g.positions = g.positions[:n]
	g.keys = g.keys[:n]
	g.moves = g.moves[:len(g.moves)-1]
	return nil
}

// Ply returns the number of moves applied since the game was created.
func (g *Game) Ply() int {
	return len(g.moves)
}

// InCheck reports whether the side to move is in check.
func (g *Game) InCheck() bool {
	s := Snapshot(g)
	us := g.Turn()
	return s.Attacked(s.King(us), us.Other())
}

// Outcome classifies the current position. Checkmate takes precedence over
// every draw condition.
func (g *Game) Outcome() Outcome {
	pos := g.top()
	if pos == nil {
		return Ongoing
	}
	switch pos.Status() {
	case chess.Checkmate:
		return Checkmate
	case chess.Stalemate:
		return Stalemate
	}

	s := Snapshot(g)
	if s.insufficientMaterial() {
		return InsufficientMaterial
	}
	if halfMoveClock(pos.String()) >= 100 {
		return FiftyMoveRule
	}

	key := g.keys[len(g.keys)-1]
	seen := 0
	for _, k := range g.keys {
		if k == key {
			seen++
		}
	}
	if seen >= 3 {
		return ThreefoldRepetition
	}
	return Ongoing
}

// FEN returns the FEN of the current position.
func (g *Game) FEN() string {
	if pos := g.top(); pos != nil {
		return pos.String()
	}
	return ""
}

// LastMove returns the most recently applied move, or nil at the root.
func (g *Game) LastMove() *chess.Move {
	if len(g.moves) == 0 {
		return nil
	}
	return g.moves[len(g.moves)-1]
}

// History returns the applied moves in standard algebraic notation.
func (g *Game) History() []string {
	san := make([]string, len(g.moves))
	for i, m := range g.moves {
		san[i] = chess.AlgebraicNotation{}.Encode(g.positions[i], m)
	}
	return san
}

// ParseMove resolves a UCI ("e2e4", "e7e8q") or SAN ("Nf3") string against
// the legal moves of the current position.
func (g *Game) ParseMove(s string) (*chess.Move, error) {
	s = strings.TrimSpace(s)
	pos := g.top()
	if pos == nil {
		return nil, fmt.Errorf("%w: empty game", ErrInvalidPosition)
	}

	m, err := chess.UCINotation{}.Decode(pos, s)
	if err != nil {
		m, err = chess.AlgebraicNotation{}.Decode(pos, s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrIllegalMove, s)
		}
	}

	legal, err := g.LegalMoves()
	if err != nil {
		return nil, err
	}
	for _, lm := range legal {
		if SameMove(lm, m) {
			return lm, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrIllegalMove, s)
}

// String returns an ASCII drawing of the board followed by side to move and FEN.
func (g *Game) String() string {
	var b strings.Builder
	b.WriteString("\n")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&b, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			p := g.PieceAt(chess.Square(rank*8 + file))
			if p == chess.NoPiece {
				b.WriteString(". ")
				continue
			}
			b.WriteString(PieceLetter(p) + " ")
		}
		b.WriteString("\n")
	}
	b.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&b, "Side to move: %s\n", colorName(g.Turn()))
	fmt.Fprintf(&b, "FEN: %s\n", g.FEN())
	return b.String()
}

// SameMove compares two moves by origin, target and promotion piece.
func SameMove(a, b *chess.Move) bool {
	return a.S1() == b.S1() && a.S2() == b.S2() && a.Promo() == b.Promo()
}

// UCI encodes m in long algebraic UCI form.
func UCI(m *chess.Move) string {
	if m == nil {
		return "0000"
	}
	return m.S1().String() + m.S2().String() + m.Promo().String()
}

// PieceLetter returns the FEN letter of p, uppercase for White.
func PieceLetter(p chess.Piece) string {
	letter := p.Type().String()
	if p.Color() == chess.White {
		return strings.ToUpper(letter)
	}
	return letter
}

func colorName(c chess.Color) string {
	switch c {
	case chess.White:
		return "White"
	case chess.Black:
		return "Black"
	default:
		return "-"
	}
}

// repetitionKey keeps placement, side and castling, dropping clocks. The en
// passant square only counts when an en passant capture is actually legal,
// since notnil writes it after every double push.
func repetitionKey(pos *chess.Position) string {
	fields := strings.Fields(pos.String())
	if len(fields) > 4 {
		fields = fields[:4]
	}
	if len(fields) == 4 && fields[3] != "-" && !canCaptureEnPassant(pos) {
		fields[3] = "-"
	}
	return strings.Join(fields, " ")
}

func canCaptureEnPassant(pos *chess.Position) bool {
	for _, m := range pos.ValidMoves() {
		if m.HasTag(chess.EnPassant) {
			return true
		}
	}
	return false
}

func halfMoveClock(fen string) int {
	fields := strings.Fields(fen)
	if len(fields) < 5 {
		return 0
	}
	n, err := strconv.Atoi(fields[4])
	if err != nil {
		return 0
	}
	return n
}

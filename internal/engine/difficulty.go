package engine

import (
	"fmt"
	"strings"

	"github.com/hailam/chessplay/internal/rules"
	"github.com/notnil/chess"
)

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
	Expert
)

// Difficulties lists every tier from weakest to strongest.
func Difficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard, Expert}
}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	case Expert:
		return "expert"
	default:
		return fmt.Sprintf("Difficulty(%d)", int(d))
	}
}

// Valid reports whether d is one of the four tiers.
func (d Difficulty) Valid() bool {
	return d >= Easy && d <= Expert
}

// ParseDifficulty parses a tier name, case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, d := range Difficulties() {
		if d.String() == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
}

// MoveFilter selects the pool a random decision draws from.
type MoveFilter int

const (
	AnyMove MoveFilter = iota
	Captures
	ValuableCaptures // captures of a knight, bishop, rook or queen
	Checks
)

var filterNames = map[MoveFilter]string{
	AnyMove:          "any",
	Captures:         "captures",
	ValuableCaptures: "valuable_captures",
	Checks:           "checks",
}

func (f MoveFilter) String() string {
	if name, ok := filterNames[f]; ok {
		return name
	}
	return fmt.Sprintf("MoveFilter(%d)", int(f))
}

// ParseMoveFilter parses a filter name such as "captures".
func ParseMoveFilter(s string) (MoveFilter, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for f, n := range filterNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown move filter %q", ErrInvalidProfile, s)
}

// Apply returns the moves accepted by f, preserving order.
func (f MoveFilter) Apply(pos rules.PieceLookup, moves []*chess.Move) []*chess.Move {
	if f == AnyMove {
		return moves
	}
	var out []*chess.Move
	for _, m := range moves {
		victim := capturedType(pos, m)
		var keep bool
		switch f {
		case Captures:
			keep = victim != chess.NoPieceType
		case ValuableCaptures:
			keep = victim != chess.NoPieceType && victim != chess.Pawn
		case Checks:
			keep = m.HasTag(chess.Check)
		}
		if keep {
			out = append(out, m)
		}
	}
	return out
}

// Profile is the search policy of one tier.
type Profile struct {
	Depth  int        // plies searched on a full-search decision
	Random float64    // probability of a random decision instead of search
	Filter MoveFilter // pool for random decisions, falling back to all moves
	Jitter int        // max centipawns of noise added to root scores; 0 disables
}

// Validate checks that p can drive a search.
func (p Profile) Validate() error {
	if p.Depth < 1 || p.Depth > MaxDepth {
		return fmt.Errorf("%w: depth %d outside [1, %d]", ErrInvalidProfile, p.Depth, MaxDepth)
	}
	if p.Random < 0 || p.Random > 1 {
		return fmt.Errorf("%w: random fraction %v outside [0, 1]", ErrInvalidProfile, p.Random)
	}
	if _, ok := filterNames[p.Filter]; !ok {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, p.Filter)
	}
	if p.Jitter < 0 {
		return fmt.Errorf("%w: negative jitter %d", ErrInvalidProfile, p.Jitter)
	}
	return nil
}

// Profiles maps each tier to its profile.
type Profiles map[Difficulty]Profile

// DefaultProfiles returns a fresh copy of the built-in tier table.
func DefaultProfiles() Profiles {
	return Profiles{
		Easy:   {Depth: 1, Random: 0.5, Filter: AnyMove},
		Medium: {Depth: 2, Random: 0.2, Filter: Captures},
		Hard:   {Depth: 3, Random: 0.05, Filter: ValuableCaptures},
		Expert: {Depth: 4, Random: 0, Filter: Checks},
	}
}

// Lookup returns the profile of d.
func (ps Profiles) Lookup(d Difficulty) (Profile, error) {
	p, ok := ps[d]
	if !ok || !d.Valid() {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownDifficulty, d)
	}
	return p, nil
}

// Validate checks every tier is present and valid, that no unknown tier is
// configured, and that a stronger tier never searches shallower or plays
// randomly more often than a weaker one.
func (ps Profiles) Validate() error {
	for d := range ps {
		if !d.Valid() {
			return fmt.Errorf("%w: %s", ErrUnknownDifficulty, d)
		}
	}

	var prev Profile
	for i, d := range Difficulties() {
		p, ok := ps[d]
		if !ok {
			return fmt.Errorf("%w: missing tier %s", ErrInvalidProfile, d)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("tier %s: %w", d, err)
		}
		if i > 0 {
			if p.Depth < prev.Depth {
				return fmt.Errorf("%w: tier %s searches shallower than the tier below", ErrInvalidProfile, d)
			}
			if p.Random > prev.Random {
				return fmt.Errorf("%w: tier %s is more random than the tier below", ErrInvalidProfile, d)
			}
		}
		prev = p
	}
	return nil
}

package rules

// Outcome classifies a position as ongoing or finished.
type Outcome int

const (
	Ongoing Outcome = iota
	Checkmate
	Stalemate
	ThreefoldRepetition
	FiftyMoveRule
	InsufficientMaterial
)

// IsOver reports whether the game has ended.
func (o Outcome) IsOver() bool {
	return o != Ongoing
}

// IsDraw reports whether the outcome is a drawn result.
func (o Outcome) IsDraw() bool {
	return o >= Stalemate
}

func (o Outcome) String() string {
	switch o {
	case Ongoing:
		return "ongoing"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case ThreefoldRepetition:
		return "threefold repetition"
	case FiftyMoveRule:
		return "fifty-move rule"
	case InsufficientMaterial:
		return "insufficient material"
	default:
		return "unknown"
	}
}

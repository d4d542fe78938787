package rules

import (
	"fmt"
	"strings"
)

// Mirror returns the colour-mirrored FEN of fen: ranks are reflected, piece
// colours and side to move are swapped, and castling rights and the en passant
// square follow. Evaluating both must give exactly negated scores.
func Mirror(fen string) (string, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPosition, fen)
	}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPosition, fen)
	}
	for i, j := 0, len(ranks)-1; i < j; i, j = i+1, j-1 {
		ranks[i], ranks[j] = ranks[j], ranks[i]
	}
	fields[0] = swapCase(strings.Join(ranks, "/"))

	switch fields[1] {
	case "w":
		fields[1] = "b"
	case "b":
		fields[1] = "w"
	default:
		return "", fmt.Errorf("%w: side %q", ErrInvalidPosition, fields[1])
	}

	if fields[2] != "-" {
		var castling strings.Builder
		swapped := swapCase(fields[2])
		for _, c := range "KQkq" {
			if strings.ContainsRune(swapped, c) {
				castling.WriteRune(c)
			}
		}
		fields[2] = castling.String()
	}

	if ep := fields[3]; ep != "-" && len(ep) == 2 {
		fields[3] = string(ep[0]) + string('1'+'8'-ep[1])
	}

	return strings.Join(fields, " "), nil
}

func swapCase(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z':
			return r - 'A' + 'a'
		}
		return r
	}, s)
}

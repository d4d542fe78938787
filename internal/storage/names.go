package storage

import (
	"fmt"
	"math/rand/v2"
)

var (
	adjectives = []string{
		"Swift", "Calm", "Cunning", "Stubborn", "Brilliant", "Crafty", "Deft",
		"Patient", "Fearless", "Mysterious", "Royal", "Enigmatic", "Vigilant", "Agile",
		"Bold", "Humble", "Elegant", "Careful", "Shrewd", "Brave", "Invincible",
		"Tactical", "Tireless", "Untamed", "Visionary", "Steady", "Determined",
	}
	chessNouns = []string{
		"King", "Queen", "Rook", "Knight", "Bishop", "Pawn", "Gambit", "Mate",
		"Castle", "Defence", "Attack", "Opening", "Endgame", "Promotion", "Sacrifice",
		"Piece", "Player", "Master", "Champion", "Genius", "Tactician", "Legend",
	}
)

// GenerateUsername returns a name such as "CunningRook0427".
func GenerateUsername(rng *rand.Rand) string {
	adj := adjectives[rng.IntN(len(adjectives))]
	noun := chessNouns[rng.IntN(len(chessNouns))]
	return fmt.Sprintf("%s%s%04d", adj, noun, rng.IntN(10000))
}

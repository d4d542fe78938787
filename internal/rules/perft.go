package rules

// Perft counts the leaf nodes of the legal move tree to depth plies.
func Perft(g *Game, depth int) (int64, error) {
	if depth == 0 {
		return 1, nil
	}

	moves, err := g.LegalMoves()
	if err != nil {
		return 0, err
	}
	if depth == 1 {
		return int64(len(moves)), nil
	}

	var nodes int64
	for _, m := range moves {
		if err := g.Apply(m); err != nil {
			return 0, err
		}
		n, err := Perft(g, depth-1)
		if uerr := g.Undo(); err == nil {
			err = uerr
		}
		if err != nil {
			return 0, err
		}
		nodes += n
	}
	return nodes, nil
}

package uci

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hailam/chessplay/internal/engine"
	"go.uber.org/zap/zaptest"
)

func run(t *testing.T, script string, opts ...Option) []string {
	t.Helper()
	eng, err := engine.NewEngine(engine.WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	u := New(eng, strings.NewReader(script), &out, opts...)
	if err := u.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return strings.Split(strings.TrimSpace(out.String()), "\n")
}

func bestMove(t *testing.T, lines []string) string {
	t.Helper()
	for i := len(lines) - 1; i >= 0; i-- {
		if rest, ok := strings.CutPrefix(lines[i], "bestmove "); ok {
			return rest
		}
	}
	t.Fatalf("no bestmove in output:\n%s", strings.Join(lines, "\n"))
	return ""
}

func TestHandshake(t *testing.T) {
	lines := run(t, "uci\nisready\nquit\n")
	if lines[0] != "id name ChessPlay" {
		t.Errorf("first line = %q", lines[0])
	}
	var sawDifficulty bool
	for _, l := range lines {
		if strings.HasPrefix(l, "option name Difficulty type combo default medium") {
			sawDifficulty = true
		}
	}
	if !sawDifficulty {
		t.Error("Difficulty option not advertised")
	}
	if lines[len(lines)-2] != "uciok" || lines[len(lines)-1] != "readyok" {
		t.Errorf("unexpected tail: %q", lines[len(lines)-2:])
	}
}

func TestGoDepthFindsMate(t *testing.T) {
	lines := run(t, "position fen 6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1\ngo depth 2\n")
	if got := bestMove(t, lines); got != "a1a8" {
		t.Errorf("bestmove = %s, want a1a8", got)
	}
	var info string
	for _, l := range lines {
		if strings.HasPrefix(l, "info depth") {
			info = l
		}
	}
	if !strings.Contains(info, "score mate 1") || !strings.Contains(info, "pv a1a8") {
		t.Errorf("info line = %q", info)
	}
}

func TestMateScoreFromBlack(t *testing.T) {
	lines := run(t, "position fen r5k1/5ppp/8/8/8/8/5PPP/6K1 b - - 0 1\ngo depth 1\n")
	if got := bestMove(t, lines); got != "a8a1" {
		t.Errorf("bestmove = %s, want a8a1", got)
	}
	found := false
	for _, l := range lines {
		if strings.Contains(l, "score mate 1 ") {
			found = true
		}
	}
	if !found {
		t.Errorf("mate not reported for the side to move:\n%s", strings.Join(lines, "\n"))
	}
}

func TestPositionMoves(t *testing.T) {
	lines := run(t, "position startpos moves e2e4 e7e5 g1f3\nd\n")
	want := "Fen: rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2"
	if lines[len(lines)-1] != want {
		t.Errorf("got %q, want %q", lines[len(lines)-1], want)
	}
}

func TestInvalidInputKeepsPosition(t *testing.T) {
	lines := run(t, "position startpos moves e2e4\nposition startpos moves e2e5\nposition fen not-a-fen\nd\n")
	var warnings int
	for _, l := range lines {
		if strings.HasPrefix(l, "info string Invalid") {
			warnings++
		}
	}
	if warnings != 2 {
		t.Errorf("got %d warnings, want 2:\n%s", warnings, strings.Join(lines, "\n"))
	}
	if !strings.Contains(lines[len(lines)-1], "4P3") {
		t.Errorf("position was replaced by invalid input: %s", lines[len(lines)-1])
	}
}

func TestNoLegalMoves(t *testing.T) {
	lines := run(t, "position fen 7k/5Q2/6K1/8/8/8/8/8 b - - 0 1\ngo\n")
	if got := bestMove(t, lines); got != "0000" {
		t.Errorf("bestmove = %s, want 0000", got)
	}
}

func TestSetOption(t *testing.T) {
	lines := run(t, "setoption name Difficulty value expert\nsetoption name Difficulty value impossible\nuci\n")
	var rejected, expertDefault bool
	for _, l := range lines {
		if strings.HasPrefix(l, "info string") && strings.Contains(l, "impossible") {
			rejected = true
		}
		if strings.HasPrefix(l, "option name Difficulty type combo default expert") {
			expertDefault = true
		}
	}
	if !rejected {
		t.Error("unknown tier not rejected")
	}
	if !expertDefault {
		t.Error("difficulty not applied")
	}
}

func TestSeedReproducible(t *testing.T) {
	script := "setoption name Seed value 77\nposition startpos\ngo\nposition startpos moves e2e4\ngo\n"
	a := run(t, script, WithDifficulty(engine.Easy))
	b := run(t, script, WithDifficulty(engine.Easy))
	var movesA, movesB []string
	for _, l := range a {
		if strings.HasPrefix(l, "bestmove") {
			movesA = append(movesA, l)
		}
	}
	for _, l := range b {
		if strings.HasPrefix(l, "bestmove") {
			movesB = append(movesB, l)
		}
	}
	if strings.Join(movesA, ",") != strings.Join(movesB, ",") || len(movesA) != 2 {
		t.Errorf("seeded runs differ: %v vs %v", movesA, movesB)
	}
}

func TestEvalAndPerft(t *testing.T) {
	lines := run(t, "eval\nperft 2\n")
	if !strings.HasPrefix(lines[0], "info string eval ") {
		t.Errorf("eval line = %q", lines[0])
	}
	if lines[1] != "Nodes: 400" {
		t.Errorf("perft line = %q", lines[1])
	}
}

func TestEvalCheckmate(t *testing.T) {
	lines := run(t, "position fen rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3\neval\n")
	want := "info string eval -1000000 (Checkmate) material 0 endgame false"
	if lines[len(lines)-1] != want {
		t.Errorf("eval line = %q, want %q", lines[len(lines)-1], want)
	}
}

func TestSendInfoMateScores(t *testing.T) {
	eng, err := engine.NewEngine()
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		score int
		sign  int
		want  string
	}{
		{engine.MateScore - 1, 1, "score mate 1 "},
		{engine.MateScore - 1, -1, "score mate -1 "},
		{-engine.MateScore, 1, "score mate 0 "},
		{engine.MateScore, -1, "score mate 0 "},
		{150, -1, "score cp -150 "},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		u := New(eng, strings.NewReader(""), &out)
		u.sendInfo(engine.SearchInfo{Depth: 1, Score: tt.score}, tt.sign)
		if got := out.String(); !strings.Contains(got, tt.want) {
			t.Errorf("sendInfo(%d, %d) = %q, want %q", tt.score, tt.sign, got, tt.want)
		}
	}
}

func TestParseGoOptions(t *testing.T) {
	opts := parseGoOptions(strings.Fields("wtime 1000 btime 1000 depth 3 movestogo 20"))
	if opts.Depth != 3 {
		t.Errorf("Depth = %d, want 3", opts.Depth)
	}
}

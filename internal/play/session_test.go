package play

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/storage"
	"github.com/notnil/chess"
	"go.uber.org/zap/zaptest"
)

type memRecorder struct {
	games []*storage.GameRecord
}

func (m *memRecorder) RecordGame(rec *storage.GameRecord) error {
	m.games = append(m.games, rec)
	return nil
}

func newSession(t *testing.T, cfg Config, input string) (*Session, *memRecorder, *bytes.Buffer) {
	t.Helper()
	eng, err := engine.NewEngine(engine.WithSeed(3))
	if err != nil {
		t.Fatal(err)
	}
	rec := &memRecorder{}
	var out bytes.Buffer
	s, err := NewSession(cfg, eng, rec, zaptest.NewLogger(t), strings.NewReader(input), &out)
	if err != nil {
		t.Fatal(err)
	}
	return s, rec, &out
}

func TestHumanDeliversMate(t *testing.T) {
	cfg := Config{
		Username:    "CalmRook0001",
		Difficulty:  engine.Easy,
		PlayerColor: chess.White,
		StartFEN:    "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1",
	}
	s, rec, out := newSession(t, cfg, "e2e5\nRa8#\n")
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out.String(), `Illegal move "e2e5"`) {
		t.Errorf("illegal move not reported:\n%s", out)
	}
	if s.Result() != "White wins by checkmate!" {
		t.Errorf("Result = %q", s.Result())
	}
	if len(rec.games) != 1 {
		t.Fatalf("recorded %d games, want 1", len(rec.games))
	}
	g := rec.games[0]
	if g.Result != storage.WhiteWins || !g.PlayerWon() || g.Termination != "checkmate" {
		t.Errorf("record = %+v", g)
	}
	if len(g.Moves) != 1 || g.Moves[0] != "Ra8#" {
		t.Errorf("moves = %v", g.Moves)
	}
}

func TestComputerDeliversMate(t *testing.T) {
	cfg := Config{
		Username:    "Tester",
		Difficulty:  engine.Expert,
		PlayerColor: chess.Black,
		StartFEN:    "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1",
	}
	s, rec, out := newSession(t, cfg, "")
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Computer plays Ra8#") {
		t.Errorf("computer did not mate:\n%s", out)
	}
	if len(rec.games) != 1 || rec.games[0].PlayerWon() {
		t.Errorf("expected a recorded loss, got %+v", rec.games)
	}
}

func TestQuitDoesNotRecord(t *testing.T) {
	s, rec, out := newSession(t, Config{Username: "Tester", Difficulty: engine.Easy}, "moves\nquit\n")
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "e2e4") {
		t.Errorf("moves not listed:\n%s", out)
	}
	if len(rec.games) != 0 {
		t.Errorf("abandoned game was recorded")
	}
}

func TestResignRecordsLoss(t *testing.T) {
	tests := []struct {
		color  chess.Color
		result storage.Result
		msg    string
	}{
		{chess.White, storage.BlackWins, "Tester resigns. Black wins."},
		{chess.Black, storage.WhiteWins, "Tester resigns. White wins."},
	}
	for _, tt := range tests {
		t.Run(tt.color.Name(), func(t *testing.T) {
			cfg := Config{Username: "Tester", Difficulty: engine.Easy, PlayerColor: tt.color}
			s, rec, out := newSession(t, cfg, "resign\n")
			if err := s.Run(context.Background()); err != nil {
				t.Fatal(err)
			}
			if s.Result() != tt.msg || !strings.Contains(out.String(), tt.msg) {
				t.Errorf("Result = %q, output:\n%s", s.Result(), out)
			}
			if len(rec.games) != 1 {
				t.Fatalf("recorded %d games, want 1", len(rec.games))
			}
			g := rec.games[0]
			if g.Result != tt.result || g.PlayerWon() || g.Termination != "resignation" {
				t.Errorf("record = %+v", g)
			}
		})
	}
}

func TestResignLowersRating(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "db"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	eng, err := engine.NewEngine(engine.WithSeed(3))
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	s, err := NewSession(Config{Username: "Tester", Difficulty: engine.Easy}, eng, store,
		zaptest.NewLogger(t), strings.NewReader("resign\n"), &out)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	prefs, err := store.LoadPreferences()
	if err != nil {
		t.Fatal(err)
	}
	if want := storage.DefaultRating - storage.RatingLoss; prefs.Rating != want {
		t.Errorf("rating = %d, want %d", prefs.Rating, want)
	}
}

func TestUndo(t *testing.T) {
	s, _, out := newSession(t, Config{Username: "Tester", Difficulty: engine.Easy}, "undo\ne4\nundo\nquit\n")
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Nothing to undo.") {
		t.Errorf("undo at start not refused:\n%s", out)
	}
	if s.Game().Ply() != 0 {
		t.Errorf("ply after undo = %d, want 0", s.Game().Ply())
	}
}

func TestDrawRecorded(t *testing.T) {
	// White's only move leaves bare kings.
	cfg := Config{
		Username:    "Tester",
		Difficulty:  engine.Medium,
		PlayerColor: chess.Black,
		StartFEN:    "8/8/8/8/8/8/n1k5/K7 w - - 0 1",
	}
	s, rec, _ := newSession(t, cfg, "")
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(rec.games) != 1 || rec.games[0].Result != storage.Draw {
		t.Fatalf("records = %+v", rec.games)
	}
	if s.Result() != "Draw by insufficient material" {
		t.Errorf("Result = %q", s.Result())
	}
}

package storage

import (
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/hailam/chessplay/internal/engine"
	"go.uber.org/zap/zaptest"
)

func openTemp(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func TestStorage(t *testing.T) {
	t.Run("DefaultPreferences", func(t *testing.T) {
		prefs := DefaultPreferences()
		if prefs.Username != "Player" {
			t.Errorf("Expected username 'Player', got '%s'", prefs.Username)
		}
		if prefs.Difficulty != engine.Medium {
			t.Errorf("Expected medium difficulty")
		}
		if prefs.Rating != DefaultRating {
			t.Errorf("Expected rating %d, got %d", DefaultRating, prefs.Rating)
		}
	})

	t.Run("NewGameStats", func(t *testing.T) {
		stats := NewGameStats()
		if stats.GamesPlayed != 0 {
			t.Errorf("Expected 0 games played")
		}
		if stats.GetWinRate() != 0 {
			t.Errorf("Expected 0 win rate")
		}
	})

	t.Run("WinRate", func(t *testing.T) {
		stats := &GameStats{
			GamesPlayed: 10,
			Wins:        5,
			Losses:      3,
			Draws:       2,
		}
		rate := stats.GetWinRate()
		if rate != 50 {
			t.Errorf("Expected 50%% win rate, got %.2f%%", rate)
		}
	})
}

func TestPreferencesRoundTrip(t *testing.T) {
	s := openTemp(t)

	first, err := s.IsFirstLaunch()
	if err != nil || !first {
		t.Fatalf("IsFirstLaunch = %v, %v; want true", first, err)
	}

	prefs, err := s.LoadPreferences()
	if err != nil {
		t.Fatal(err)
	}
	if prefs.Username != "Player" {
		t.Errorf("missing preferences should load defaults, got %+v", prefs)
	}

	prefs.Username = "CalmRook0001"
	prefs.Difficulty = engine.Expert
	prefs.PlayerColor = ColorBlack
	if err := s.SavePreferences(prefs); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkFirstLaunchComplete(); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadPreferences()
	if err != nil {
		t.Fatal(err)
	}
	if got.Username != "CalmRook0001" || got.Difficulty != engine.Expert || got.PlayerColor != ColorBlack {
		t.Errorf("LoadPreferences = %+v", got)
	}
	if first, _ := s.IsFirstLaunch(); first {
		t.Error("IsFirstLaunch still true after MarkFirstLaunchComplete")
	}
}

func TestRecordGame(t *testing.T) {
	s := openTemp(t)
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	games := []*GameRecord{
		{Difficulty: engine.Easy, PlayerColor: ColorWhite, Result: WhiteWins, Started: start, Duration: time.Minute,
			Moves: []string{"f3", "e5", "g4", "Qh4#"}},
		{Difficulty: engine.Easy, PlayerColor: ColorBlack, Result: BlackWins, Started: start.Add(time.Hour), Duration: time.Minute},
		{Difficulty: engine.Hard, PlayerColor: ColorWhite, Result: Draw, Started: start.Add(2 * time.Hour), Duration: time.Minute},
		{Difficulty: engine.Expert, PlayerColor: ColorWhite, Result: BlackWins, Started: start.Add(3 * time.Hour), Duration: time.Minute},
	}
	for _, g := range games {
		if err := s.RecordGame(g); err != nil {
			t.Fatal(err)
		}
		if g.ID == uuid.Nil {
			t.Fatal("RecordGame did not assign an ID")
		}
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatal(err)
	}
	want := &GameStats{
		GamesPlayed:    4,
		Wins:           2,
		Losses:         1,
		Draws:          1,
		WinsByDiff:     map[string]int{"easy": 2},
		TotalPlayTime:  4 * time.Minute,
		LongestWinStrk: 2,
		CurrentStreak:  0,
	}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}

	prefs, err := s.LoadPreferences()
	if err != nil {
		t.Fatal(err)
	}
	if want := DefaultRating + 2*RatingWin - RatingLoss; prefs.Rating != want {
		t.Errorf("rating after two wins, a draw and a loss = %d, want %d", prefs.Rating, want)
	}

	got, err := s.LoadGame(games[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(games[0], got); diff != "" {
		t.Errorf("LoadGame mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.LoadGame(uuid.New()); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("LoadGame(unknown) err = %v", err)
	}

	list, err := s.ListGames()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != len(games) {
		t.Fatalf("ListGames returned %d games, want %d", len(list), len(games))
	}
	for i := 1; i < len(list); i++ {
		if list[i].Started.After(list[i-1].Started) {
			t.Errorf("ListGames not most-recent-first at %d", i)
		}
	}
}

func TestApplyResult(t *testing.T) {
	tests := []struct {
		name   string
		rating int
		rec    GameRecord
		want   int
	}{
		{"white win", 1200, GameRecord{PlayerColor: ColorWhite, Result: WhiteWins}, 1210},
		{"black win", 1200, GameRecord{PlayerColor: ColorBlack, Result: BlackWins}, 1210},
		{"loss", 1200, GameRecord{PlayerColor: ColorWhite, Result: BlackWins}, 1195},
		{"resignation", 1200, GameRecord{PlayerColor: ColorBlack, Result: WhiteWins, Termination: "resignation"}, 1195},
		{"draw", 1200, GameRecord{PlayerColor: ColorWhite, Result: Draw}, 1200},
		{"loss floors at zero", 2, GameRecord{PlayerColor: ColorWhite, Result: BlackWins}, 0},
		{"loss at zero", 0, GameRecord{PlayerColor: ColorWhite, Result: BlackWins}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs := &UserPreferences{Rating: tt.rating}
			ApplyResult(prefs, &tt.rec)
			if prefs.Rating != tt.want {
				t.Errorf("rating = %d, want %d", prefs.Rating, tt.want)
			}
		})
	}
}

func TestRecordGameKeepsPreferences(t *testing.T) {
	s := openTemp(t)
	prefs := DefaultPreferences()
	prefs.Username = "SwiftKnight42"
	prefs.Difficulty = engine.Hard
	if err := s.SavePreferences(prefs); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := s.RecordGame(&GameRecord{PlayerColor: ColorWhite, Result: WhiteWins}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.LoadPreferences()
	if err != nil {
		t.Fatal(err)
	}
	if got.Rating != DefaultRating+3*RatingWin {
		t.Errorf("rating = %d, want %d", got.Rating, DefaultRating+3*RatingWin)
	}
	if got.Username != "SwiftKnight42" || got.Difficulty != engine.Hard {
		t.Errorf("preferences clobbered: %+v", got)
	}
}

func TestGenerateUsername(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z][a-z]+[A-Z][a-z]+\d{4}$`)
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		name := GenerateUsername(rng)
		if !pattern.MatchString(name) {
			t.Errorf("GenerateUsername() = %q", name)
		}
	}

	a := GenerateUsername(rand.New(rand.NewPCG(9, 9)))
	b := GenerateUsername(rand.New(rand.NewPCG(9, 9)))
	if a != b {
		t.Errorf("same seed gave %q and %q", a, b)
	}

	prefs := DefaultPreferences()
	if !EnsureUsername(prefs, func() string { return a }) || prefs.Username != a {
		t.Errorf("EnsureUsername did not replace the default name")
	}
	if EnsureUsername(prefs, func() string { return "other" }) {
		t.Errorf("EnsureUsername replaced a chosen name")
	}
}

func TestDataPaths(t *testing.T) {
	t.Setenv("CHESSPLAY_DATA_DIR", filepath.Join(t.TempDir(), "data"))

	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir == "" {
		t.Error("GetDataDir returned empty path")
	}

	// Verify directory exists
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}

	dbDir, err := GetDatabaseDir()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(dbDir) != dataDir {
		t.Errorf("database dir %s not under %s", dbDir, dataDir)
	}
}

// Command chessplay plays a game against the computer in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hailam/chessplay/internal/config"
	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/logging"
	"github.com/hailam/chessplay/internal/play"
	"github.com/hailam/chessplay/internal/storage"
	"github.com/notnil/chess"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "", "path to a YAML config file")
	difficulty = flag.String("difficulty", "", "easy, medium, hard or expert (default: saved preference)")
	color      = flag.String("color", "", "white or black (default: saved preference)")
	seed       = flag.Uint64("seed", 0, "random seed; 0 picks one")
	fen        = flag.String("fen", "", "start from this position")
	stats      = flag.Bool("stats", false, "print game statistics and exit")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var dbDir string
	if cfg.DataDir != "" {
		dbDir = filepath.Join(cfg.DataDir, "db")
	}
	store, err := storage.Open(dbDir, logger.Named("storage"))
	if err != nil {
		return err
	}
	defer store.Close()

	if *stats {
		return printStats(store)
	}

	prefs, isFirst, err := loadPreferences(store, logger)
	if err != nil {
		return err
	}
	if err := applyFlags(prefs, cfg, isFirst); err != nil {
		return err
	}
	if err := store.SavePreferences(prefs); err != nil {
		logger.Warn("failed to save preferences", zap.Error(err))
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}
	if *seed != 0 {
		opts = append(opts, engine.WithSeed(*seed))
	}
	opts = append(opts, engine.WithLogger(logger.Named("engine")))
	eng, err := engine.NewEngine(opts...)
	if err != nil {
		return err
	}

	playerColor := chess.White
	if prefs.PlayerColor == storage.ColorBlack {
		playerColor = chess.Black
	}
	session, err := play.NewSession(play.Config{
		Username:    prefs.Username,
		Difficulty:  prefs.Difficulty,
		PlayerColor: playerColor,
		StartFEN:    *fen,
	}, eng, store, logger.Named("play"), os.Stdin, os.Stdout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return session.Run(ctx)
}

// loadPreferences returns saved preferences, greeting a first-time user
// with a generated name.
func loadPreferences(store *storage.Storage, logger *zap.Logger) (*storage.UserPreferences, bool, error) {
	prefs, err := store.LoadPreferences()
	if err != nil {
		logger.Warn("failed to load preferences", zap.Error(err))
		prefs = storage.DefaultPreferences()
	}

	isFirst, err := store.IsFirstLaunch()
	if err != nil {
		return nil, false, err
	}
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	if storage.EnsureUsername(prefs, func() string { return storage.GenerateUsername(rng) }) || isFirst {
		fmt.Printf("Welcome, %s!\n", prefs.Username)
		if err := store.MarkFirstLaunchComplete(); err != nil {
			logger.Warn("failed to mark first launch complete", zap.Error(err))
		}
	}
	return prefs, isFirst, nil
}

// applyFlags overrides preferences with explicit flags. A first launch takes
// its difficulty from the config.
func applyFlags(prefs *storage.UserPreferences, cfg *config.Config, isFirst bool) error {
	if *difficulty != "" {
		d, err := engine.ParseDifficulty(*difficulty)
		if err != nil {
			return err
		}
		prefs.Difficulty = d
	} else if isFirst {
		d, err := cfg.Difficulty()
		if err != nil {
			return err
		}
		prefs.Difficulty = d
	}

	switch *color {
	case "":
	case "white", "w":
		prefs.PlayerColor = storage.ColorWhite
	case "black", "b":
		prefs.PlayerColor = storage.ColorBlack
	default:
		return fmt.Errorf("unknown color %q", *color)
	}
	return nil
}

func printStats(store *storage.Storage) error {
	st, err := store.LoadStats()
	if err != nil {
		return err
	}
	fmt.Printf("Games: %d  Wins: %d  Losses: %d  Draws: %d  Win rate: %.1f%%\n",
		st.GamesPlayed, st.Wins, st.Losses, st.Draws, st.GetWinRate())
	fmt.Printf("Longest win streak: %d  Play time: %s\n", st.LongestWinStrk, st.TotalPlayTime.Round(time.Second))
	for _, d := range engine.Difficulties() {
		fmt.Printf("  wins vs %-6s %d\n", d, st.WinsByDiff[d.String()])
	}

	games, err := store.ListGames()
	if err != nil {
		return err
	}
	for i, g := range games {
		if i == 10 {
			break
		}
		fmt.Printf("%s  %s  %-7s %-6s %s (%d moves)\n",
			g.Started.Format("2006-01-02 15:04"), g.ID.String()[:8], g.Result, g.Difficulty, g.Termination, len(g.Moves))
	}
	return nil
}

package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/hailam/chessplay/internal/config"
	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/logging"
	"github.com/hailam/chessplay/internal/uci"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "", "path to a YAML config file")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
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

	// stdout belongs to the protocol; logs go to stderr.
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		logger.Info("CPU profiling enabled", zap.String("path", profilePath))
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}
	opts = append(opts, engine.WithLogger(logger.Named("engine")))
	eng, err := engine.NewEngine(opts...)
	if err != nil {
		return err
	}
	difficulty, err := cfg.Difficulty()
	if err != nil {
		return err
	}

	// Create and run UCI protocol handler
	protocol := uci.New(eng, os.Stdin, os.Stdout,
		uci.WithDifficulty(difficulty),
		uci.WithLogger(logger.Named("uci")),
		uci.WithEngineFactory(func(seed uint64) (*engine.Engine, error) {
			return engine.NewEngine(append(opts, engine.WithSeed(seed))...)
		}),
	)
	return protocol.Run()
}

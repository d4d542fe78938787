// Command tierbench measures how strongly each difficulty tier plays.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/hailam/chessplay/internal/arena"
	"github.com/hailam/chessplay/internal/config"
	"github.com/hailam/chessplay/internal/logging"
	"github.com/hailam/chessplay/internal/rules"
)

var (
	configPath = flag.String("config", "", "path to a YAML config file")
	positions  = flag.String("positions", "", "file with one FEN per line (default: built-in set)")
	refDepth   = flag.Int("ref-depth", 3, "reference search depth")
	workers    = flag.Int("workers", 0, "concurrent positions (default GOMAXPROCS)")
	samples    = flag.Int("samples", 4, "choices per position")
	seed       = flag.Uint64("seed", 1, "base seed")
)

// builtin is a small mix of openings, middlegames and tactics.
var builtin = []string{
	rules.StartFEN,
	"r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3",
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"4k3/8/8/3q4/4P3/8/8/4K2R w - - 0 1",
	"6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1",
	"r1bq1rk1/ppp2ppp/2np1n2/2b1p3/2B1P3/2NP1N2/PPP2PPP/R1BQ1RK1 w - - 0 7",
	"8/2k5/8/3P4/8/8/5K2/8 w - - 0 40",
}

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

	fens := builtin
	if *positions != "" {
		if fens, err = readPositions(*positions); err != nil {
			return err
		}
	}
	profiles, err := cfg.Profiles()
	if err != nil {
		return err
	}

	reports, err := arena.Compare(context.Background(), fens, profiles, arena.Options{
		RefDepth: *refDepth,
		Workers:  *workers,
		Samples:  *samples,
		Seed:     *seed,
		Logger:   logger.Named("arena"),
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIER\tDEPTH\tRANDOM\tFILTER\tCHOICES\tMEAN CP")
	for _, r := range reports {
		p := profiles[r.Difficulty]
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%s\t%d\t%.1f\n", r.Difficulty, p.Depth, p.Random, p.Filter, len(r.Scores), r.Mean)
	}
	return w.Flush()
}

func readPositions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var fens []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fens = append(fens, line)
	}
	return fens, sc.Err()
}

// Package arena measures how well each difficulty tier plays by scoring its
// choices with a deeper reference search.
package arena

import (
	"context"
	"fmt"
	"runtime"

	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/rules"
	"github.com/notnil/chess"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ScoreClamp bounds a single reply's score so one mate cannot swamp the mean.
const ScoreClamp = 2000

// Options tune a Quality run.
type Options struct {
	RefDepth int         // reference search depth; default 3
	Workers  int         // concurrent positions; default GOMAXPROCS
	Samples  int         // choices per position with distinct seeds; default 1
	Seed     uint64      // base seed
	Logger   *zap.Logger // default discards
}

func (o Options) withDefaults() Options {
	if o.RefDepth <= 0 {
		o.RefDepth = 3
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Samples <= 0 {
		o.Samples = 1
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Report is the outcome of one tier over a position set.
type Report struct {
	Difficulty engine.Difficulty
	Scores     []int // per position and sample, mover-positive centipawns
	Mean       float64
}

// Quality lets tier d choose a move in every position and scores each choice
// with a fixed-depth reference search from the mover's point of view.
// Positions without a legal move are skipped.
func Quality(ctx context.Context, positions []string, d engine.Difficulty, profiles engine.Profiles, opts Options) (Report, error) {
	opts = opts.withDefaults()
	if profiles == nil {
		profiles = engine.DefaultProfiles()
	}
	if _, err := profiles.Lookup(d); err != nil {
		return Report{}, err
	}

	type job struct {
		fen  string
		seed uint64
	}
	var jobs []job
	for i, fen := range positions {
		for s := 0; s < opts.Samples; s++ {
			jobs = append(jobs, job{fen: fen, seed: opts.Seed + uint64(i*opts.Samples+s)})
		}
	}

	scores := make([]int, len(jobs))
	played := make([]bool, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			score, ok, err := scoreChoice(j.fen, j.seed, d, profiles, opts.RefDepth)
			if err != nil {
				return fmt.Errorf("%s: %w", j.fen, err)
			}
			scores[i], played[i] = score, ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	rep := Report{Difficulty: d}
	total := 0
	for i, ok := range played {
		if ok {
			rep.Scores = append(rep.Scores, scores[i])
			total += scores[i]
		}
	}
	if len(rep.Scores) > 0 {
		rep.Mean = float64(total) / float64(len(rep.Scores))
	}

	opts.Logger.Info("tier measured",
		zap.Stringer("tier", d),
		zap.Int("samples", len(rep.Scores)),
		zap.Float64("mean", rep.Mean))
	return rep, nil
}

// scoreChoice runs one sample with its own engine and game.
func scoreChoice(fen string, seed uint64, d engine.Difficulty, profiles engine.Profiles, refDepth int) (int, bool, error) {
	game, err := rules.FromFEN(fen)
	if err != nil {
		return 0, false, err
	}
	mover := game.Turn()

	eng, err := engine.NewEngine(engine.WithSeed(seed), engine.WithProfiles(profiles))
	if err != nil {
		return 0, false, err
	}
	m, err := eng.ChooseMove(game, d)
	if err != nil || m == nil {
		return 0, false, err
	}
	if err := game.Apply(m); err != nil {
		return 0, false, err
	}

	ref, err := eng.Search(game, refDepth)
	if err != nil {
		return 0, false, err
	}
	score := ref.Score
	if mover == chess.Black {
		score = -score
	}
	return max(-ScoreClamp, min(ScoreClamp, score)), true, nil
}

// Compare measures every tier over positions, weakest first.
func Compare(ctx context.Context, positions []string, profiles engine.Profiles, opts Options) ([]Report, error) {
	var reports []Report
	for _, d := range engine.Difficulties() {
		rep, err := Quality(ctx, positions, d, profiles, opts)
		if err != nil {
			return nil, fmt.Errorf("tier %s: %w", d, err)
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

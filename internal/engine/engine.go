package engine

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/notnil/chess"
	"go.uber.org/zap"
)

// SearchInfo contains information about a completed search.
type SearchInfo struct {
	Depth int
	Score int
	Nodes uint64
	Time  time.Duration
	Move  *chess.Move
}

// Result is the outcome of Search.
type Result struct {
	Move    *chess.Move // nil when the position has no legal moves
	Score   int         // White-positive, mate scores shortened by ply
	Depth   int
	Nodes   uint64
	Elapsed time.Duration
}

// Engine is the chess AI engine. It owns a random source, so use one engine
// per game; the evaluation tables it reads are shared and immutable.
type Engine struct {
	eval     *Evaluator
	profiles Profiles
	rng      *rand.Rand
	logger   *zap.Logger

	// Callbacks
	OnInfo func(SearchInfo)
}

// Option configures an Engine.
type Option func(*Engine)

// WithSeed seeds the engine's random source for reproducible games.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithRand sets the random source used for tier fallbacks and jitter.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = r
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithWeights sets the evaluation weights.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		e.eval = NewEvaluator(w)
	}
}

// WithProfiles replaces the tier table.
func WithProfiles(ps Profiles) Option {
	return func(e *Engine) {
		e.profiles = ps
	}
}

// NewEngine creates an engine. The tier table is validated once here.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		eval:     defaultEvaluator,
		profiles: DefaultProfiles(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		seed := uint64(time.Now().UnixNano())
		e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	if err := e.profiles.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Profiles returns the engine's tier table.
func (e *Engine) Profiles() Profiles {
	return e.profiles
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos Position) int {
	return e.eval.Evaluate(pos)
}

// ChooseMove picks a move for the side to move at tier d. It returns a nil
// move and nil error when there are no legal moves.
func (e *Engine) ChooseMove(pos Position, d Difficulty) (*chess.Move, error) {
	p, err := e.profiles.Lookup(d)
	if err != nil {
		return nil, err
	}
	return e.choose(pos, d.String(), p)
}

// ChooseMoveWithProfile is ChooseMove with an explicit profile.
func (e *Engine) ChooseMoveWithProfile(pos Position, p Profile) (*chess.Move, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return e.choose(pos, "custom", p)
}

func (e *Engine) choose(pos Position, tier string, p Profile) (*chess.Move, error) {
	moves, err := pos.LegalMoves()
	if err != nil {
		return nil, fmt.Errorf("legal moves: %w", err)
	}

	switch len(moves) {
	case 0:
		e.logger.Debug("no legal moves", zap.String("tier", tier))
		return nil, nil
	case 1:
		e.logger.Debug("forced move", zap.String("tier", tier), zap.Stringer("move", moves[0]))
		return moves[0], nil
	}

	if p.Random > 0 && e.rng.Float64() < p.Random {
		pool := p.Filter.Apply(pos, moves)
		if len(pool) == 0 {
			pool = moves
		}
		m := pool[e.rng.IntN(len(pool))]
		e.logger.Debug("random move",
			zap.String("tier", tier),
			zap.Stringer("filter", p.Filter),
			zap.Int("pool", len(pool)),
			zap.Stringer("move", m))
		return m, nil
	}

	res, err := e.search(pos, p.Depth, p.Jitter)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("searched move",
		zap.String("tier", tier),
		zap.Int("depth", res.Depth),
		zap.Stringer("move", res.Move),
		zap.Int("score", res.Score),
		zap.Uint64("nodes", res.Nodes),
		zap.Duration("elapsed", res.Elapsed))
	return res.Move, nil
}

// Search runs a full alpha-beta search of depth plies with no randomness.
func (e *Engine) Search(pos Position, depth int) (Result, error) {
	if depth < 1 || depth > MaxDepth {
		return Result{}, fmt.Errorf("%w: depth %d outside [1, %d]", ErrInvalidProfile, depth, MaxDepth)
	}
	return e.search(pos, depth, 0)
}

func (e *Engine) search(pos Position, depth, jitter int) (Result, error) {
	startTime := time.Now()
	s := &searcher{eval: e.eval}

	var noise func() int
	if jitter > 0 {
		noise = func() int { return e.rng.IntN(jitter + 1) }
	}

	best, err := s.root(pos, depth, noise)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Move:    best.move,
		Score:   best.score,
		Depth:   depth,
		Nodes:   s.nodes,
		Elapsed: time.Since(startTime),
	}

	if e.OnInfo != nil {
		e.OnInfo(SearchInfo{
			Depth: res.Depth,
			Score: res.Score,
			Nodes: res.Nodes,
			Time:  res.Elapsed,
			Move:  res.Move,
		})
	}
	return res, nil
}

// IsMateScore reports whether score encodes a forced mate.
func IsMateScore(score int) bool {
	return score > MateScore-MaxDepth-1 || score < -MateScore+MaxDepth+1
}

// MateIn returns the number of moves to mate encoded in score, positive when
// White mates. It returns 0 for non-mate scores and for a position that is
// already checkmate.
func MateIn(score int) int {
	if !IsMateScore(score) {
		return 0
	}
	if score > 0 {
		return (MateScore - score + 1) / 2
	}
	return -(MateScore + score + 1) / 2
}

// ScoreToString converts a White-positive score to a human-readable string.
func ScoreToString(score int) string {
	if !IsMateScore(score) {
		return fmt.Sprintf("%+.2f", float64(score)/100)
	}
	switch n := MateIn(score); {
	case n > 0:
		return fmt.Sprintf("Mate in %d", n)
	case n < 0:
		return fmt.Sprintf("Mated in %d", -n)
	}
	return "Checkmate"
}

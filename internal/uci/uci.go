// Package uci speaks the Universal Chess Interface over any reader and writer.
package uci

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/rules"
	"github.com/notnil/chess"
	"go.uber.org/zap"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine     *engine.Engine
	game       *rules.Game
	difficulty engine.Difficulty
	logger     *zap.Logger

	in  io.Reader
	out io.Writer
	mu  sync.Mutex // serialises writes to out

	// Search state
	searchDone chan struct{}

	// newEngine rebuilds the engine when the seed changes.
	newEngine func(seed uint64) (*engine.Engine, error)
}

// Option configures a UCI handler.
type Option func(*UCI)

// WithDifficulty sets the tier used by "go" without a depth.
func WithDifficulty(d engine.Difficulty) Option {
	return func(u *UCI) { u.difficulty = d }
}

// WithLogger sets the logger for protocol diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(u *UCI) { u.logger = l }
}

// WithEngineFactory sets how "setoption name Seed" rebuilds the engine.
func WithEngineFactory(f func(seed uint64) (*engine.Engine, error)) Option {
	return func(u *UCI) { u.newEngine = f }
}

// New creates a new UCI protocol handler reading commands from in and
// writing responses to out.
func New(eng *engine.Engine, in io.Reader, out io.Writer, opts ...Option) *UCI {
	u := &UCI{
		engine:     eng,
		game:       rules.New(),
		difficulty: engine.Medium,
		logger:     zap.NewNop(),
		in:         in,
		out:        out,
		newEngine: func(seed uint64) (*engine.Engine, error) {
			return engine.NewEngine(engine.WithSeed(seed))
		},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *UCI) println(format string, args ...any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintf(u.out, format+"\n", args...)
}

// infoString reports a problem to the GUI without breaking the protocol.
func (u *UCI) infoString(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	u.logger.Warn(msg)
	u.println("info string %s", msg)
}

// Run reads commands until "quit" or end of input. Any running search is
// allowed to finish before Run returns.
func (u *UCI) Run() error {
	scanner := bufio.NewScanner(u.in)
	defer u.waitSearch()

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]
		u.logger.Debug("command", zap.String("line", line))

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.waitSearch()
			u.println("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.waitSearch()
		case "quit":
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.waitSearch()
			u.println("%s\nFen: %s", u.game.String(), u.game.FEN())
		case "eval":
			u.waitSearch()
			score := u.engine.Evaluate(u.game)
			u.println("info string eval %d (%s) material %d endgame %t",
				score, engine.ScoreToString(score), engine.EvaluateMaterial(u.game), engine.IsEndgame(u.game))
		case "perft":
			u.handlePerft(args)
		default:
			u.infoString("unknown command: %s", cmd)
		}
	}
	return scanner.Err()
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	var tiers []string
	for _, d := range engine.Difficulties() {
		tiers = append(tiers, "var "+d.String())
	}
	u.println("id name ChessPlay")
	u.println("id author ChessPlay Team")
	u.println("")
	u.println("option name Difficulty type combo default %s %s", u.difficulty, strings.Join(tiers, " "))
	u.println("option name Seed type spin default 0 min 0 max 2147483647")
	u.println("uciok")
}

// handleNewGame resets the position for a new game.
func (u *UCI) handleNewGame() {
	u.waitSearch()
	u.game = rules.New()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}
	u.waitSearch()

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var game *rules.Game
	switch args[0] {
	case "startpos":
		game = rules.New()
	case "fen":
		fen := strings.Join(args[1:movesAt], " ")
		g, err := rules.FromFEN(fen)
		if err != nil {
			u.infoString("Invalid FEN: %v", err)
			return
		}
		game = g
	default:
		return
	}

	if movesAt < len(args) {
		for _, s := range args[movesAt+1:] {
			m, err := game.ParseMove(s)
			if err == nil {
				err = game.Apply(m)
			}
			if err != nil {
				u.infoString("Invalid move: %s", s)
				return
			}
		}
	}
	u.game = game
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth int
}

// handleGo starts a search with the given parameters. A depth runs a
// deterministic search; otherwise the configured tier picks the move.
func (u *UCI) handleGo(args []string) {
	opts := parseGoOptions(args)
	u.waitSearch()

	if opts.Depth > engine.MaxDepth {
		opts.Depth = engine.MaxDepth
	}

	// Configure info callback
	sign := 1
	if u.game.Turn() == chess.Black {
		sign = -1
	}
	u.engine.OnInfo = func(info engine.SearchInfo) { u.sendInfo(info, sign) }

	// Search a private copy so "d" and "position" never race the search.
	game := u.game.Clone()
	eng, d := u.engine, u.difficulty
	done := make(chan struct{})
	u.searchDone = done

	go func() {
		defer close(done)

		var best string
		if opts.Depth > 0 {
			res, err := eng.Search(game, opts.Depth)
			if err != nil {
				u.infoString("search failed: %v", err)
			}
			best = rules.UCI(res.Move)
		} else {
			m, err := eng.ChooseMove(game, d)
			if err != nil {
				u.infoString("search failed: %v", err)
			}
			best = rules.UCI(m)
		}
		u.println("bestmove %s", best)
	}()
}

// parseGoOptions parses "go" command arguments. Time controls are accepted
// and ignored since every tier searches to a fixed depth.
func parseGoOptions(args []string) GoOptions {
	opts := GoOptions{}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if i+1 < len(args) {
				opts.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "wtime", "btime", "winc", "binc", "movestogo", "movetime", "nodes":
			i++
		}
	}
	return opts
}

// sendInfo outputs search info in UCI format. Scores are reported from the
// side to move's point of view; the engine's are White-positive.
func (u *UCI) sendInfo(info engine.SearchInfo, sign int) {
	var parts []string

	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))

	// Score
	if engine.IsMateScore(info.Score) {
		parts = append(parts, fmt.Sprintf("score mate %d", sign*engine.MateIn(info.Score)))
	} else {
		parts = append(parts, fmt.Sprintf("score cp %d", sign*info.Score))
	}

	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))

	// NPS
	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}

	if info.Move != nil {
		parts = append(parts, "pv "+rules.UCI(info.Move))
	}

	u.println("info %s", strings.Join(parts, " "))
}

func (u *UCI) waitSearch() {
	if u.searchDone != nil {
		<-u.searchDone
		u.searchDone = nil
	}
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	// Format: setoption name <name> value <value>
	var name, value string
	readingName := false
	readingValue := false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName = true
			readingValue = false
		case "value":
			readingName = false
			readingValue = true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	u.waitSearch()

	// Handle options
	switch strings.ToLower(name) {
	case "difficulty":
		d, err := engine.ParseDifficulty(value)
		if err != nil {
			u.infoString("%v", err)
			return
		}
		u.difficulty = d
	case "seed":
		seed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			u.infoString("invalid seed %q", value)
			return
		}
		eng, err := u.newEngine(seed)
		if err != nil {
			u.infoString("%v", err)
			return
		}
		u.engine = eng
	default:
		u.infoString("unknown option: %s", name)
	}
}

// handlePerft runs a perft test.
func (u *UCI) handlePerft(args []string) {
	depth := 3
	if len(args) > 0 {
		depth, _ = strconv.Atoi(args[0])
	}
	u.waitSearch()

	start := time.Now()
	nodes, err := rules.Perft(u.game, depth)
	if err != nil {
		u.infoString("perft failed: %v", err)
		return
	}
	elapsed := time.Since(start)

	u.println("Nodes: %d", nodes)
	u.println("Time: %v", elapsed)
	if elapsed > 0 {
		nps := float64(nodes) / elapsed.Seconds()
		u.println("NPS: %.0f", nps)
	}
}

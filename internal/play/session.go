// Package play runs a human-versus-computer game over a text terminal.
package play

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/rules"
	"github.com/hailam/chessplay/internal/storage"
	"github.com/notnil/chess"
	"go.uber.org/zap"
)

// Recorder persists finished games.
type Recorder interface {
	RecordGame(rec *storage.GameRecord) error
}

// Config describes one game.
type Config struct {
	Username    string
	Difficulty  engine.Difficulty
	PlayerColor chess.Color
	StartFEN    string // empty for the standard start
}

// Session is a single game between the user and the engine.
type Session struct {
	cfg      Config
	engine   *engine.Engine
	game     *rules.Game
	recorder Recorder
	logger   *zap.Logger

	in  *bufio.Scanner
	out io.Writer

	started    time.Time
	gameResult string
}

// NewSession prepares a game. recorder may be nil.
func NewSession(cfg Config, eng *engine.Engine, recorder Recorder, logger *zap.Logger, in io.Reader, out io.Writer) (*Session, error) {
	game := rules.New()
	if cfg.StartFEN != "" {
		var err error
		if game, err = rules.FromFEN(cfg.StartFEN); err != nil {
			return nil, err
		}
	}
	if cfg.PlayerColor != chess.Black {
		cfg.PlayerColor = chess.White
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		cfg:      cfg,
		engine:   eng,
		game:     game,
		recorder: recorder,
		logger:   logger,
		in:       bufio.NewScanner(in),
		out:      out,
	}, nil
}

// Game returns the position being played.
func (s *Session) Game() *rules.Game {
	return s.game
}

// Result returns the end-of-game message, empty while the game is running.
func (s *Session) Result() string {
	return s.gameResult
}

// Run plays until the game ends, the user quits or input runs out.
func (s *Session) Run(ctx context.Context) error {
	s.started = time.Now()
	fmt.Fprintf(s.out, "%s (%s) vs computer (%s). Type a move in SAN or UCI, or: moves, hint, undo, resign, quit.\n",
		s.cfg.Username, colorName(s.cfg.PlayerColor), s.cfg.Difficulty)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.printBoard()
		if s.checkGameEnd() {
			fmt.Fprintln(s.out, s.gameResult)
			return s.record(resultOf(s.game), s.game.Outcome().String())
		}

		if s.game.Turn() != s.cfg.PlayerColor {
			if err := s.computerMove(); err != nil {
				return err
			}
			continue
		}

		quit, err := s.humanTurn()
		if err != nil || quit {
			return err
		}
	}
}

func (s *Session) printBoard() {
	score := s.engine.Evaluate(s.game)
	fmt.Fprintf(s.out, "\n%s\nAdvantage: %s\n", s.game, engine.ScoreToString(score))
}

// checkGameEnd sets gameResult when the game is over.
func (s *Session) checkGameEnd() bool {
	switch o := s.game.Outcome(); o {
	case rules.Ongoing:
		if s.game.InCheck() {
			fmt.Fprintln(s.out, "Check!")
		}
		return false
	case rules.Checkmate:
		if s.game.Turn() == chess.White {
			s.gameResult = "Black wins by checkmate!"
		} else {
			s.gameResult = "White wins by checkmate!"
		}
	default:
		s.gameResult = "Draw by " + o.String()
	}
	return true
}

func (s *Session) computerMove() error {
	start := time.Now()
	m, err := s.engine.ChooseMove(s.game, s.cfg.Difficulty)
	if err != nil {
		return fmt.Errorf("computer move: %w", err)
	}
	if m == nil {
		// Outcome already reported the game over; nothing to play.
		return nil
	}
	if err := s.game.Apply(m); err != nil {
		return fmt.Errorf("computer move %s: %w", rules.UCI(m), err)
	}
	history := s.game.History()
	s.logger.Debug("computer moved",
		zap.String("move", rules.UCI(m)),
		zap.Duration("elapsed", time.Since(start)))
	fmt.Fprintf(s.out, "Computer plays %s\n", history[len(history)-1])
	return nil
}

// humanTurn reads commands until the user moves or quits.
func (s *Session) humanTurn() (quit bool, err error) {
	for {
		fmt.Fprint(s.out, "Your move: ")
		if !s.in.Scan() {
			fmt.Fprintln(s.out)
			return true, s.in.Err()
		}
		line := strings.TrimSpace(s.in.Text())

		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			fmt.Fprintln(s.out, "Game abandoned.")
			return true, nil
		case "resign":
			return true, s.resign()
		case "moves":
			s.listMoves()
			continue
		case "hint":
			s.hint()
			continue
		case "undo":
			s.undo()
			return false, nil
		}

		m, err := s.game.ParseMove(line)
		if err == nil {
			err = s.game.Apply(m)
		}
		if err != nil {
			fmt.Fprintf(s.out, "Illegal move %q.\n", line)
			continue
		}
		return false, nil
	}
}

func (s *Session) listMoves() {
	moves, err := s.game.LegalMoves()
	if err != nil {
		fmt.Fprintf(s.out, "Cannot list moves: %v\n", err)
		return
	}
	var names []string
	for _, m := range moves {
		names = append(names, rules.UCI(m))
	}
	fmt.Fprintln(s.out, strings.Join(names, " "))
}

// hint suggests the strongest tier's move without playing it.
func (s *Session) hint() {
	res, err := s.engine.Search(s.game, s.engine.Profiles()[engine.Hard].Depth)
	if err != nil || res.Move == nil {
		fmt.Fprintln(s.out, "No hint available.")
		return
	}
	fmt.Fprintf(s.out, "Hint: %s (%s)\n", rules.UCI(res.Move), engine.ScoreToString(res.Score))
}

// undo takes back the user's last move and the computer's reply.
func (s *Session) undo() {
	if s.game.Ply() < 2 {
		fmt.Fprintln(s.out, "Nothing to undo.")
		return
	}
	for i := 0; i < 2; i++ {
		if err := s.game.Undo(); err != nil {
			fmt.Fprintf(s.out, "Undo failed: %v\n", err)
			return
		}
	}
}

// resign ends the game as a loss for the user.
func (s *Session) resign() error {
	result := storage.BlackWins
	if s.cfg.PlayerColor == chess.Black {
		result = storage.WhiteWins
	}
	s.gameResult = fmt.Sprintf("%s resigns. %s wins.", s.cfg.Username, titleColor(s.cfg.PlayerColor.Other()))
	fmt.Fprintln(s.out, s.gameResult)
	return s.record(result, "resignation")
}

func (s *Session) record(result storage.Result, termination string) error {
	if s.recorder == nil {
		return nil
	}
	rec := &storage.GameRecord{
		Username:    s.cfg.Username,
		Difficulty:  s.cfg.Difficulty,
		PlayerColor: storage.ColorWhite,
		Result:      result,
		Termination: termination,
		Moves:       s.game.History(),
		FinalFEN:    s.game.FEN(),
		Started:     s.started,
		Duration:    time.Since(s.started),
	}
	if s.cfg.PlayerColor == chess.Black {
		rec.PlayerColor = storage.ColorBlack
	}
	if err := s.recorder.RecordGame(rec); err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	return nil
}

func resultOf(g *rules.Game) storage.Result {
	if g.Outcome() != rules.Checkmate {
		return storage.Draw
	}
	if g.Turn() == chess.White {
		return storage.BlackWins
	}
	return storage.WhiteWins
}

func titleColor(c chess.Color) string {
	if c == chess.Black {
		return "Black"
	}
	return "White"
}

func colorName(c chess.Color) string {
	if c == chess.Black {
		return "black"
	}
	return "white"
}

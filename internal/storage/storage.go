package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/logging"
	"go.uber.org/zap"
)

// Storage keys
const (
	keyPreferences = "preferences"
	keyStats       = "stats"
	keyFirstLaunch = "first_launch"
	gamePrefix     = "game/"
)

// ErrGameNotFound is returned by LoadGame for an unknown id.
var ErrGameNotFound = errors.New("game not found")

// DefaultRating is the rating given to a new player.
const DefaultRating = 1200

// Rating changes per finished game. A rating never drops below zero.
const (
	RatingWin  = 10
	RatingLoss = 5
)

// PlayerColor represents which color the human plays
type PlayerColor int

const (
	ColorWhite PlayerColor = iota
	ColorBlack
)

func (c PlayerColor) String() string {
	if c == ColorBlack {
		return "black"
	}
	return "white"
}

// UserPreferences stores user settings
type UserPreferences struct {
	Username    string            `json:"username"`
	Rating      int               `json:"rating"`
	Difficulty  engine.Difficulty `json:"difficulty"`
	PlayerColor PlayerColor       `json:"player_color"`
	LastPlayed  time.Time         `json:"last_played"`
}

// DefaultPreferences returns default user preferences
func DefaultPreferences() *UserPreferences {
	return &UserPreferences{
		Username:    "Player",
		Rating:      DefaultRating,
		Difficulty:  engine.Medium,
		PlayerColor: ColorWhite,
		LastPlayed:  time.Now(),
	}
}

// Result is a finished game's score in PGN notation.
type Result string

const (
	WhiteWins Result = "1-0"
	BlackWins Result = "0-1"
	Draw      Result = "1/2-1/2"
)

// GameRecord is one finished game against the computer.
type GameRecord struct {
	ID          uuid.UUID         `json:"id"`
	Username    string            `json:"username"`
	Difficulty  engine.Difficulty `json:"difficulty"`
	PlayerColor PlayerColor       `json:"player_color"`
	Result      Result            `json:"result"`
	Termination string            `json:"termination"`
	Moves       []string          `json:"moves"` // SAN
	FinalFEN    string            `json:"final_fen"`
	Started     time.Time         `json:"started"`
	Duration    time.Duration     `json:"duration"`
}

// PlayerWon reports whether the human won.
func (r *GameRecord) PlayerWon() bool {
	return (r.Result == WhiteWins && r.PlayerColor == ColorWhite) ||
		(r.Result == BlackWins && r.PlayerColor == ColorBlack)
}

// ApplyResult adjusts prefs.Rating for rec: up on a win, down on a loss or
// resignation, unchanged on a draw.
func ApplyResult(prefs *UserPreferences, rec *GameRecord) {
	switch {
	case rec.Result == Draw:
	case rec.PlayerWon():
		prefs.Rating += RatingWin
	default:
		prefs.Rating = max(prefs.Rating-RatingLoss, 0)
	}
}

// GameStats stores game statistics
type GameStats struct {
	GamesPlayed    int            `json:"games_played"`
	Wins           int            `json:"wins"`
	Losses         int            `json:"losses"`
	Draws          int            `json:"draws"`
	WinsByDiff     map[string]int `json:"wins_by_difficulty"`
	TotalPlayTime  time.Duration  `json:"total_play_time"`
	LongestWinStrk int            `json:"longest_win_streak"`
	CurrentStreak  int            `json:"current_streak"`
}

// NewGameStats returns empty game statistics
func NewGameStats() *GameStats {
	return &GameStats{
		WinsByDiff: make(map[string]int),
	}
}

// GetWinRate returns the win rate as a percentage (0-100)
func (s *GameStats) GetWinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.GamesPlayed) * 100
}

func (s *GameStats) add(rec *GameRecord) {
	s.GamesPlayed++
	s.TotalPlayTime += rec.Duration

	switch {
	case rec.Result == Draw:
		s.Draws++
		s.CurrentStreak = 0
	case rec.PlayerWon():
		s.Wins++
		s.CurrentStreak++
		if s.CurrentStreak > s.LongestWinStrk {
			s.LongestWinStrk = s.CurrentStreak
		}
		s.WinsByDiff[rec.Difficulty.String()]++
	default:
		s.Losses++
		s.CurrentStreak = 0
	}
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db     *badger.DB
	logger *zap.Logger
}

// Open opens the database in dir, or in GetDatabaseDir when dir is empty.
func Open(dir string, logger *zap.Logger) (*Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		var err error
		if dir, err = GetDatabaseDir(); err != nil {
			return nil, err
		}
	}

	opts := badger.DefaultOptions(dir)
	// Badger is chatty at info; only surface its warnings.
	opts.Logger = logging.NewBadger(logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel)))

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dir, err)
	}
	logger.Debug("database opened", zap.String("dir", dir))

	return &Storage{db: db, logger: logger}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// IsFirstLaunch returns true if this is the first launch
func (s *Storage) IsFirstLaunch() (bool, error) {
	firstLaunch := true

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keyFirstLaunch))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		firstLaunch = false
		return nil
	})

	return firstLaunch, err
}

// MarkFirstLaunchComplete marks that first launch setup is complete
func (s *Storage) MarkFirstLaunchComplete() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyFirstLaunch), []byte("done"))
	})
}

// SavePreferences saves user preferences
func (s *Storage) SavePreferences(prefs *UserPreferences) error {
	prefs.LastPlayed = time.Now()
	return s.db.Update(func(txn *badger.Txn) error {
		return putJSON(txn, keyPreferences, prefs)
	})
}

// LoadPreferences loads user preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*UserPreferences, error) {
	prefs := DefaultPreferences()
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := getJSON(txn, keyPreferences, prefs)
		return err
	})
	return prefs, err
}

// EnsureUsername gives prefs a generated name if it still has the default.
func EnsureUsername(prefs *UserPreferences, gen func() string) bool {
	if prefs.Username != "" && prefs.Username != "Player" {
		return false
	}
	prefs.Username = gen()
	return true
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := NewGameStats()
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := getJSON(txn, keyStats, stats)
		return err
	})
	return stats, err
}

// RecordGame stores rec and updates the statistics and the player's rating in
// one transaction. A record without an ID is given a new one.
func (s *Storage) RecordGame(rec *GameRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	var rating int
	err := s.db.Update(func(txn *badger.Txn) error {
		stats := NewGameStats()
		if _, err := getJSON(txn, keyStats, stats); err != nil {
			return err
		}
		stats.add(rec)

		prefs := DefaultPreferences()
		if _, err := getJSON(txn, keyPreferences, prefs); err != nil {
			return err
		}
		ApplyResult(prefs, rec)
		rating = prefs.Rating

		if err := putJSON(txn, gamePrefix+rec.ID.String(), rec); err != nil {
			return err
		}
		if err := putJSON(txn, keyPreferences, prefs); err != nil {
			return err
		}
		return putJSON(txn, keyStats, stats)
	})
	if err != nil {
		return fmt.Errorf("record game %s: %w", rec.ID, err)
	}

	s.logger.Info("game recorded",
		zap.Stringer("id", rec.ID),
		zap.String("result", string(rec.Result)),
		zap.Stringer("difficulty", rec.Difficulty),
		zap.Int("moves", len(rec.Moves)),
		zap.Int("rating", rating))
	return nil
}

// LoadGame returns the game with the given id.
func (s *Storage) LoadGame(id uuid.UUID) (*GameRecord, error) {
	var rec GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		found, err := getJSON(txn, gamePrefix+id.String(), &rec)
		if err == nil && !found {
			err = fmt.Errorf("%w: %s", ErrGameNotFound, id)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListGames returns every stored game, most recent first.
func (s *Storage) ListGames() ([]*GameRecord, error) {
	var games []*GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(gamePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			rec := new(GameRecord)
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, rec)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			games = append(games, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(games, func(i, j int) bool {
		return games[i].Started.After(games[j].Started)
	})
	return games, nil
}

func putJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}

// getJSON decodes the value at key into v. A missing key leaves v untouched
// and reports found == false.
func getJSON(txn *badger.Txn, key string, v any) (found bool, err error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

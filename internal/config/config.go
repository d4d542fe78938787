// Package config loads chessplay settings from an optional YAML file and
// CHESSPLAY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hailam/chessplay/internal/engine"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned for settings that cannot drive the engine.
var ErrInvalidConfig = errors.New("invalid config")

// EnvPrefix prefixes every environment override, e.g. CHESSPLAY_DIFFICULTY.
const EnvPrefix = "CHESSPLAY"

// ProfileConfig overrides parts of one tier. Unset fields keep the built-in value.
type ProfileConfig struct {
	Depth  *int     `mapstructure:"depth"`
	Random *float64 `mapstructure:"random"`
	Filter *string  `mapstructure:"filter"`
	Jitter *int     `mapstructure:"jitter"`
}

// WeightsConfig holds the evaluation weights.
type WeightsConfig struct {
	Mobility       int `mapstructure:"mobility"`
	Check          int `mapstructure:"check"`
	KingExposure   int `mapstructure:"king_exposure"`
	ProtectedPiece int `mapstructure:"protected_piece"`
}

// Config is the decoded configuration: viper defaults overlaid by the optional
// YAML file and CHESSPLAY_ environment variables.
type Config struct {
	DifficultyName string                   `mapstructure:"difficulty"`
	Seed           uint64                   `mapstructure:"seed"`
	LogLevel       string                   `mapstructure:"log_level"`
	DataDir        string                   `mapstructure:"data_dir"`
	ProfileConfigs map[string]ProfileConfig `mapstructure:"profiles"`
	WeightsConfig  WeightsConfig            `mapstructure:"weights"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("difficulty", engine.Medium.String())
	v.SetDefault("seed", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("data_dir", "")
	v.SetDefault("weights.mobility", engine.DefaultWeights.Mobility)
	v.SetDefault("weights.check", engine.DefaultWeights.Check)
	v.SetDefault("weights.king_exposure", engine.DefaultWeights.KingExposure)
	v.SetDefault("weights.protected_piece", engine.DefaultWeights.ProtectedPiece)
}

// Load reads the config file at path, if any, then applies environment
// overrides. An empty path uses defaults and the environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the difficulty and the merged tier table.
func (c *Config) Validate() error {
	if _, err := c.Difficulty(); err != nil {
		return err
	}
	if _, err := c.Profiles(); err != nil {
		return err
	}
	return nil
}

// Difficulty returns the configured default tier.
func (c *Config) Difficulty() (engine.Difficulty, error) {
	return engine.ParseDifficulty(c.DifficultyName)
}

// Weights returns the evaluation weights.
func (c *Config) Weights() engine.Weights {
	return engine.Weights{
		Mobility:       c.WeightsConfig.Mobility,
		Check:          c.WeightsConfig.Check,
		KingExposure:   c.WeightsConfig.KingExposure,
		ProtectedPiece: c.WeightsConfig.ProtectedPiece,
	}
}

// Profiles returns the built-in tier table with the configured overrides
// applied. Unknown tier names fail with engine.ErrUnknownDifficulty.
func (c *Config) Profiles() (engine.Profiles, error) {
	ps := engine.DefaultProfiles()
	for name, o := range c.ProfileConfigs {
		d, err := engine.ParseDifficulty(name)
		if err != nil {
			return nil, err
		}
		p := ps[d]
		if o.Depth != nil {
			p.Depth = *o.Depth
		}
		if o.Random != nil {
			p.Random = *o.Random
		}
		if o.Jitter != nil {
			p.Jitter = *o.Jitter
		}
		if o.Filter != nil {
			f, err := engine.ParseMoveFilter(*o.Filter)
			if err != nil {
				return nil, fmt.Errorf("%w: tier %s: %v", ErrInvalidConfig, name, err)
			}
			p.Filter = f
		}
		ps[d] = p
	}
	if err := ps.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return ps, nil
}

// EngineOptions returns the engine options described by c.
func (c *Config) EngineOptions() ([]engine.Option, error) {
	ps, err := c.Profiles()
	if err != nil {
		return nil, err
	}
	opts := []engine.Option{
		engine.WithProfiles(ps),
		engine.WithWeights(c.Weights()),
	}
	if c.Seed != 0 {
		opts = append(opts, engine.WithSeed(c.Seed))
	}
	return opts, nil
}

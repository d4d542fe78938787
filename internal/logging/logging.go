// Package logging builds the zap loggers shared by the chessplay binaries.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger writing to stderr at the given level
// ("debug", "info", "warn", "error"). An empty level means info.
func New(level string) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		lvl,
	)
	return zap.New(core), nil
}

// ParseLevel converts a level name to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return 0, fmt.Errorf("log level %q: %w", level, err)
	}
	return lvl, nil
}

// Badger adapts a zap logger to badger's Logger interface.
type Badger struct {
	s *zap.SugaredLogger
}

// NewBadger wraps l for use as badger.Options.Logger.
func NewBadger(l *zap.Logger) *Badger {
	return &Badger{s: l.Named("badger").WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (b *Badger) Errorf(format string, args ...any) {
	b.s.Errorf(strings.TrimRight(format, "\n"), args...)
}

func (b *Badger) Warningf(format string, args ...any) {
	b.s.Warnf(strings.TrimRight(format, "\n"), args...)
}

func (b *Badger) Infof(format string, args ...any) {
	b.s.Infof(strings.TrimRight(format, "\n"), args...)
}

func (b *Badger) Debugf(format string, args ...any) {
	b.s.Debugf(strings.TrimRight(format, "\n"), args...)
}

// Package logging builds the zap loggers used across pressdata: the process
// logger on stderr and the human-readable run log written next to a dataset.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level  string // debug, info, warn, error
	Format string // console, json
}

// ParseLevel maps a config level name onto a zap level. Unknown names fall
// back to info.
func ParseLevel(name string) zapcore.Level {
	switch strings.ToLower(name) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds the process logger.
func New(cfg Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zc.DisableStacktrace = true
	}
	zc.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.Level))
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// FileEncoderConfig renders entries as
// "2006-01-02 15:04:05 [INFO] message {"key": "value"}".
func FileEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "T",
		LevelKey:         "L",
		MessageKey:       "M",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(time.DateTime),
		EncodeLevel:      bracketLevelEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
}

func bracketLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

// NewFileCore returns a core writing the run log format to w.
func NewFileCore(w io.Writer, level zapcore.Level) zapcore.Core {
	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(FileEncoderConfig()),
		zapcore.AddSync(w),
		level,
	)
}

// Tee returns a logger that writes to base and to the extra cores.
func Tee(base *zap.Logger, cores ...zapcore.Core) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(append([]zapcore.Core{c}, cores...)...)
	}))
}

// Forward returns a logger that also hands every entry at or above level to
// fn. It is used to mirror log lines onto live session clients.
func Forward(base *zap.Logger, level zapcore.Level, fn func(zapcore.Entry)) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return Tee(base, &forwardCore{LevelEnabler: level, fn: fn})
}

type forwardCore struct {
	zapcore.LevelEnabler
	fn func(zapcore.Entry)
}

func (c *forwardCore) With([]zapcore.Field) zapcore.Core { return c }

func (c *forwardCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c *forwardCore) Write(e zapcore.Entry, _ []zapcore.Field) error {
	c.fn(e)
	return nil
}

func (c *forwardCore) Sync() error { return nil }

// Package logging builds the structured logger injected into every stage.
package logging

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a zap logger writing to w. format is "console" or "json";
// level is any zap level name ("debug", "info", "warn", "error").
func New(w io.Writer, level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unsupported log format: %s (use console|json)", format)
	}
	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), lvl)
	return zap.New(core), nil
}

// Tee returns a copy of log that also writes its warnings and errors to w,
// so they land next to a stage's console output. Entries log drops are
// dropped from w as well.
func Tee(log *zap.Logger, w io.Writer) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	enc := zapcore.NewConsoleEncoder(encCfg)
	return log.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		enabled := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= zapcore.WarnLevel && c.Enabled(l)
		})
		return zapcore.NewTee(c, zapcore.NewCore(enc, zapcore.AddSync(w), enabled))
	}))
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger { return zap.NewNop() }

// Package wlog wraps zap logger construction the way
// source-build-go-fit/flog does: a small Options struct, a console encoder
// for development and a JSON encoder for production, with an optional
// rotating file sink via lumberjack.
package wlog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options configures logger construction.
type Options struct {
	Development bool
	Level       zapcore.Level

	// Filename, when non-empty, additionally writes JSON-encoded entries to
	// a rotating file via lumberjack.
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultOptions returns a development-friendly console logger at Info level.
func DefaultOptions() Options {
	return Options{Development: true, Level: zapcore.InfoLevel}
}

// New builds a *zap.Logger from Options. A zero Options produces a JSON
// logger to stdout at Info level; DefaultOptions selects the console
// encoder instead.
func New(opts Options) (*zap.Logger, error) {
	var encoderCfg zapcore.EncoderConfig
	if opts.Development {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderCfg = zap.NewProductionEncoderConfig()
	}
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if opts.Development {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), opts.Level),
	}

	if opts.Filename != "" {
		sink := &lumberjack.Logger{
			Filename:   opts.Filename,
			MaxSize:    nonZero(opts.MaxSizeMB, 100),
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(sink), opts.Level))
	}

	core := zapcore.NewTee(cores...)
	return zap.New(core, zap.AddCaller()), nil
}

// Nop returns a logger that discards everything, used as the fallback when a
// component is constructed without an explicit logger.
func Nop() *zap.Logger { return zap.NewNop() }

func nonZero(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

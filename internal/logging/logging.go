// Package logging builds the zap logger shared by the pqs commands.
package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger writing to w. Only warnings and errors are
// written unless debug is set.
func New(w io.Writer, debug bool) *zap.Logger {
	level := zapcore.WarnLevel
	if debug {
		level = zapcore.DebugLevel
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.CallerKey = ""
	enc.NameKey = "logger"

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core).Named("pqs")
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger { return zap.NewNop() }

// Package enginelog provides the engine's logging entrypoints. The teacher
// codebase hand-rolled a Field/String/Int/Err-style logger that mirrors
// zap's own field API; this package adopts zap directly instead of
// re-deriving it, and exposes only the handful of constructors the engine's
// components need.
package enginelog

import "go.uber.org/zap"

// NewDevelopment returns a human-readable, colorized logger suitable for
// local runs of cmd/ecsdemo.
func NewDevelopment() *zap.Logger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return logger
}

// NewProduction returns a JSON-structured logger suitable for a hosted run.
func NewProduction() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return logger
}

// Nop returns a logger that discards everything; the default used by engine
// components constructed without an explicit logger.
func Nop() *zap.Logger {
	return zap.NewNop()
}

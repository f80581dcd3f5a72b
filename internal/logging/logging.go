// Package logging is the core's structured logging sink: a zerolog.Logger
// writing to stdout by default, re-pointed at a file when -l/--log-file is
// given, with per-subsystem child loggers.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// RedirectToFile re-points the global sink at path, appending if it already
// exists. Called once at startup when -l/--log-file is given.
func RedirectToFile(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	var w io.Writer = f
	log = zerolog.New(w).With().Timestamp().Logger()
	return nil
}

// SetLevel parses a level name ("debug", "info", "warn", "error") and
// applies it globally. Unknown names fall back to info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// For returns a child logger tagged with subsystem, so every line it emits
// is attributable without per-call fields.
func For(subsystem string) zerolog.Logger {
	return log.With().Str("subsystem", subsystem).Logger()
}

// Global returns the root logger, for call sites that predate subsystem
// attribution (startup, CLI parsing).
func Global() zerolog.Logger {
	return log
}

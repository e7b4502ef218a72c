// Package logging builds the zerolog loggers used by the CLI, TUI and web
// server.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const timeFormat = "15:04:05"

// New returns a console logger writing to w at the given level ("debug",
// "info", "warn", "error"; unknown values mean info).
func New(w io.Writer, level string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: timeFormat}
	return zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// NewFile returns a logger appending plain JSON lines to path, plus a close
// func. The TUI uses this so log lines never land on the alt screen.
func NewFile(path string, level string) (zerolog.Logger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	l := zerolog.New(f).Level(ParseLevel(level)).With().Timestamp().Logger()
	return l, f.Close, nil
}

func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

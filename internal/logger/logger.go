// Package logger builds the zerolog loggers used by the CLI, the preview
// server and the build and export pipelines.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// Level is one of trace, debug, info, warn or error. Anything else is
	// treated as info.
	Level string
	// Console writes human-readable output instead of JSON lines.
	Console bool
	// File, when set, adds a rotating log file sink.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// ParseLevel converts a level string to a zerolog level.
// Returns InfoLevel for unrecognized strings.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New creates a logger writing to w, plus the rotating file named in opts.
// The returned io.Closer flushes and closes the file sink; it is a no-op
// when no file is configured.
func New(w io.Writer, opts Options) (zerolog.Logger, io.Closer) {
	if w == nil {
		w = os.Stderr
	}
	if opts.Console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    max(opts.MaxSizeMB, 1),
			MaxBackups: opts.MaxBackups,
			MaxAge:     28,
		}
		w = zerolog.MultiLevelWriter(w, zerolog.SyncWriter(lj))
		closer = lj
	}

	l := zerolog.New(w).Level(ParseLevel(opts.Level)).With().Timestamp().Logger()
	return l, closer
}

// Nop returns a disabled logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

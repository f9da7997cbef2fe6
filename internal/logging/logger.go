// Package logging builds the zerolog logger used by a run.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation settings for the detached log file.
const (
	maxSizeMB  = 5
	maxBackups = 3
	maxAgeDays = 28
)

// Options selects level and destination.
type Options struct {
	Verbose bool
	Quiet   bool

	// File, when set, sends logs to a rotating file instead of the console.
	// Detached runs have no terminal to write to.
	File string

	// Console defaults to os.Stderr.
	Console io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates a logger tagged with a fresh run_id and the process pid. The
// returned Closer flushes and closes the log file, if any.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	var (
		w      io.Writer
		closer io.Closer = nopCloser{}
		level  zerolog.Level
	)

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o750); err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("failed to create log directory: %w", err)
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
		}
		w, closer = lj, lj
		level = selectLevel(opts.Verbose, opts.Quiet, zerolog.InfoLevel)
	} else {
		w = selectOutput(opts.Console)
		level = selectLevel(opts.Verbose, opts.Quiet, zerolog.WarnLevel)
	}

	logger := zerolog.New(w).Level(level).With().
		Timestamp().
		Str("run_id", uuid.NewString()).
		Int("pid", os.Getpid()).
		Logger()
	return logger, closer, nil
}

// selectLevel returns Debug when verbose, Error when quiet, def otherwise.
func selectLevel(verbose, quiet bool, def zerolog.Level) zerolog.Level {
	switch {
	case verbose:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.ErrorLevel
	default:
		return def
	}
}

// selectOutput wraps a terminal in a ConsoleWriter and leaves anything else
// as JSON.
func selectOutput(out io.Writer) io.Writer {
	if out == nil {
		out = os.Stderr
	}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) && os.Getenv("NO_COLOR") == "" {
		return zerolog.ConsoleWriter{Out: f, TimeFormat: time.Kitchen}
	}
	return out
}

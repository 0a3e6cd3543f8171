// Package logging builds the zerolog logger shared by the CLI, the server
// and the report engine.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultFile is the log file name inside Options.Dir.
const DefaultFile = "worklens.log"

// Options configures New.
type Options struct {
	// Verbose lowers the level from info to debug.
	Verbose bool

	// Dir enables a rotating log file in this directory. Empty disables it.
	Dir string

	// File overrides DefaultFile.
	File string

	// Console receives human-readable output. Defaults to os.Stderr.
	Console io.Writer

	// JSONConsole writes raw JSON lines to Console instead of the
	// human-readable format.
	JSONConsole bool
}

// New builds a logger writing to the console and, when Dir is set, to a
// rotating file. The returned closer flushes and closes the file; it is a
// no-op without one.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{consoleWriter(console, opts.JSONConsole)}

	var closer io.Closer = nopCloser{}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory %q: %w", opts.Dir, err)
		}
		name := opts.File
		if name == "" {
			name = DefaultFile
		}
		file := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, name),
			MaxSize:    16, // megabytes
			MaxBackups: 8,
			MaxAge:     90, // days
			Compress:   true,
		}
		writers = append(writers, file)
		closer = file
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
	return logger, closer, nil
}

// consoleWriter colours output only when w is a terminal.
func consoleWriter(w io.Writer, raw bool) io.Writer {
	if raw {
		return w
	}
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    !IsTerminal(w),
	}
}

// IsTerminal reports whether w is a terminal (including Cygwin ptys).
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

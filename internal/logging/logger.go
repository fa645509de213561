// Package logging configures structured JSON logging for pagelore, with
// optional size-rotated file output alongside the console.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options control where log records go and at which level.
type Options struct {
	Level      string // debug, info, warn, error
	FilePath   string // empty disables file output
	MaxSizeMB  int64
	MaxBackups int
	Console    bool
}

// DefaultOptions logs info-level records to stderr only.
func DefaultOptions() Options {
	return Options{
		Level:      "info",
		MaxSizeMB:  100,
		MaxBackups: 5,
		Console:    true,
	}
}

// ParseLevel converts a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger from the options. The returned closer flushes and
// closes the file writer when one was configured; it is a no-op otherwise.
func New(opts Options) (*slog.Logger, func() error, error) {
	var writers []io.Writer
	closer := func() error { return nil }

	if opts.Console {
		writers = append(writers, os.Stderr)
	}

	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
			return nil, nil, err
		}
		fw, err := newRotatingWriter(opts.FilePath, opts.MaxSizeMB*1024*1024, opts.MaxBackups)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, fw)
		closer = fw.Close
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	var w io.Writer = writers[0]
	if len(writers) > 1 {
		w = io.MultiWriter(writers...)
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
	})
	return slog.New(handler), closer, nil
}

// Setup builds a logger from the options and installs it as the slog
// default. The returned closer must be called before exit when file
// output is enabled.
func Setup(opts Options) (func() error, error) {
	logger, closer, err := New(opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return closer, nil
}

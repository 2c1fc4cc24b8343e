// Package logging builds the structured logger shared by the CLI, server
// and watcher. Records go to stderr and, when a file is configured, to a
// size-rotated log file as well.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/natefinch/lumberjack"

	"github.com/scrypster/coref/internal/config"
)

// Options configures New.
type Options struct {
	Level      string // debug, info, warn, error
	Format     string // text or json
	File       string // rotated log file, empty for none
	MaxSizeMB  int
	MaxBackups int

	// Output receives every record besides the file. Defaults to os.Stderr.
	Output io.Writer
}

// FromConfig maps the logging config section onto Options.
func FromConfig(c config.LoggingConfig) Options {
	return Options{
		Level:      c.Level,
		Format:     c.Format,
		File:       c.File,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
	}
}

// Logger is a slog.Logger that may own a rotating file.
type Logger struct {
	*slog.Logger
	file *lumberjack.Logger
}

// New builds a logger. Call Close to release the log file.
func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	l := &Logger{}
	if opts.File != "" {
		l.file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB, // megabytes
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
		out = io.MultiWriter(out, l.file)
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}
	l.Logger = slog.New(handler).With(slog.String("service", "coref"))
	return l
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ParseLevel maps a level name onto slog.Level. Unknown names are Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

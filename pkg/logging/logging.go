// Package logging holds the process-wide slog logger. Output is JSON by
// default and can go to a size-rotated file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	current  atomic.Pointer[slog.Logger]
	fromEnvs sync.Once
)

// Options controls how a logger is built.
type Options struct {
	Level  string // debug|info|warn|error
	Format string // json|text
	// File, when set, sends output to a size-rotated file instead of stdout.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Writer replaces stdout when File is empty.
	Writer io.Writer
}

// Logger returns the shared logger. Until Configure or SetLogger runs it is
// built from AGRI_LOG_LEVEL, AGRI_LOG_FORMAT and AGRI_LOG_FILE.
func Logger() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	fromEnvs.Do(func() {
		current.CompareAndSwap(nil, New(Options{
			Level:  os.Getenv("AGRI_LOG_LEVEL"),
			Format: os.Getenv("AGRI_LOG_FORMAT"),
			File:   os.Getenv("AGRI_LOG_FILE"),
		}))
	})
	return current.Load()
}

// SetLogger replaces the shared logger. A nil l is ignored.
func SetLogger(l *slog.Logger) {
	if l != nil {
		current.Store(l)
	}
}

// Configure builds a logger from opts and makes it the shared one.
func Configure(opts Options) *slog.Logger {
	l := New(opts)
	SetLogger(l)
	return l
}

// WithComponent tags the shared logger's records with component.
func WithComponent(component string) *slog.Logger {
	return Logger().With("component", component)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// New builds a logger without touching the shared one.
func New(opts Options) *slog.Logger {
	ho := &slog.HandlerOptions{Level: parseLevel(opts.Level)}

	w := opts.Writer
	switch {
	case opts.File != "":
		w = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    positive(opts.MaxSizeMB, 50),
			MaxBackups: positive(opts.MaxBackups, 5),
			MaxAge:     positive(opts.MaxAgeDays, 14),
			Compress:   true,
		}
	case w == nil:
		w = os.Stdout
	}

	var h slog.Handler = slog.NewJSONHandler(w, ho)
	if strings.EqualFold(opts.Format, "text") {
		h = slog.NewTextHandler(w, ho)
	}
	return slog.New(h).With("service", "agri-advisor")
}

// parseLevel accepts slog level names in any case; anything else is info.
func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func positive(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

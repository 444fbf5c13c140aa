package cli

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/roach88/graphmirror/internal/config"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// NewLogger builds the slog logger described by cfg. Output goes to
// stderr, or to a rotating file when cfg.File is set; the returned closer
// releases that file. verbose forces debug level.
func NewLogger(cfg config.Log, verbose bool, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}

	w := stderr
	var closer io.Closer = closerFunc(func() error { return nil })
	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		w, closer = rotating, rotating
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), closer, nil
}

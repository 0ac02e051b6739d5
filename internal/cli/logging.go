package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// LogLevel maps the -v count and -q flag to a level.
// Quiet wins over verbosity.
func LogLevel(verbose int, quiet bool) slog.Level {
	switch {
	case quiet:
		return slog.LevelWarn
	case verbose > 0:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a tint logger writing to stderr. Colour is only used
// when stderr is a terminal.
func NewLogger(level slog.Level) *slog.Logger {
	return newLogger(colorable.NewColorable(os.Stderr), level, !isatty.IsTerminal(os.Stderr.Fd()))
}

func newLogger(w io.Writer, level slog.Level, noColor bool) *slog.Logger {
	ll := &slog.LevelVar{}
	ll.Set(level)
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Statement params are noisy when empty.
			if a.Key == "params" && len(groups) == 0 {
				if m, ok := a.Value.Any().(map[string]any); ok && len(m) == 0 {
					return slog.Attr{}
				}
			}
			return a
		},
	}))
}

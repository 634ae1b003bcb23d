// Package logging builds the process logger: text on the console plus an
// optional GELF sink for Graylog.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
)

type Options struct {
	Level string
	// Console defaults to os.Stdout.
	Console io.Writer
	// GraylogAddress enables the GELF sink when set, e.g. "localhost:12201".
	GraylogAddress string
}

// ParseLevel converts a string log level to slog.Level. Unknown levels are
// treated as info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func handlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}
}

// Setup builds the logger described by opts and installs it as the slog
// default.
func Setup(opts Options) (*slog.Logger, error) {
	lvl := ParseLevel(opts.Level)
	hopts := handlerOptions(lvl)

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	handlers := []slog.Handler{slog.NewTextHandler(console, hopts)}

	if opts.GraylogAddress != "" {
		w, err := gelf.NewWriter(opts.GraylogAddress)
		if err != nil {
			return nil, fmt.Errorf("graylog writer: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(w, hopts))
	}

	logger := slog.New(NewMultiHandler(handlers...))
	slog.SetDefault(logger)
	logger.Info("logging initialized", "level", lvl.String(), "graylog", opts.GraylogAddress != "")
	return logger, nil
}

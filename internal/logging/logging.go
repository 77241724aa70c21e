// Package logging configures the zerolog loggers used across the client.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config controls the log output.
type Config struct {
	Level  string    // trace, debug, info, warn, error; empty disables logging
	Format string    // "console" or "json"
	Output io.Writer // defaults to stderr
}

// New builds a logger from cfg. An empty level yields a disabled logger so
// library callers stay silent unless they opt in.
func New(cfg Config) (zerolog.Logger, error) {
	if cfg.Level == "" {
		return zerolog.Nop(), nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	switch strings.ToLower(cfg.Format) {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q (want console or json)", cfg.Format)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// Leveled adapts a zerolog logger to the key/value logger interface used by
// go-retryablehttp.
type Leveled struct {
	Log zerolog.Logger
}

func (l Leveled) Error(msg string, keysAndValues ...interface{}) {
	l.emit(l.Log.Error(), msg, keysAndValues)
}

func (l Leveled) Warn(msg string, keysAndValues ...interface{}) {
	l.emit(l.Log.Warn(), msg, keysAndValues)
}

func (l Leveled) Info(msg string, keysAndValues ...interface{}) {
	// retryablehttp reports every attempt at info; that is debug noise here.
	l.emit(l.Log.Debug(), msg, keysAndValues)
}

func (l Leveled) Debug(msg string, keysAndValues ...interface{}) {
	l.emit(l.Log.Trace(), msg, keysAndValues)
}

func (l Leveled) emit(ev *zerolog.Event, msg string, kv []interface{}) {
	if ev == nil {
		return
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}

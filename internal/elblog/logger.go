// Package elblog provides the injectable logging sink used across
// elastic-blast-go. Components take a Logger explicitly instead of
// reaching for a package-level global, so a driver can run multiple
// searches with independent log destinations/levels in the same process.
package elblog

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the sink interface library code depends on. It never exposes
// the underlying zerolog type so callers can't reach past the interface
// into implementation-specific behavior.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, err error, kv ...any)
	// With returns a child logger that always includes the given key/value
	// pairs, e.g. log.With("results", resultsURI).
	With(kv ...any) Logger
}

type zlog struct {
	z zerolog.Logger
}

// Level is the subset of levels exposed on the CLI (--loglevel).
type Level string

const (
	LevelDebug    Level = "DEBUG"
	LevelInfo     Level = "INFO"
	LevelWarning  Level = "WARNING"
	LevelError    Level = "ERROR"
	LevelCritical Level = "CRITICAL"
)

// New builds a Logger writing to w (os.Stderr for "stderr", or an opened
// file for --logfile) at the given level. Unrecognized levels default to
// INFO rather than rejecting the flag.
func New(w io.Writer, level Level) Logger {
	if w == nil {
		w = os.Stderr
	}
	zerolog.TimeFieldFormat = time.RFC3339
	z := zerolog.New(w).With().Timestamp().Logger().Level(toZerologLevel(level))
	return &zlog{z: z}
}

// OpenLogfile resolves the --logfile flag value to a writer. The literal
// value "stderr" (case-insensitive) means os.Stderr rather than a file
// named "stderr".
func OpenLogfile(path string) (io.Writer, func() error, error) {
	if path == "" || strings.EqualFold(path, "stderr") {
		return os.Stderr, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func toZerologLevel(l Level) zerolog.Level {
	switch Level(strings.ToUpper(string(l))) {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarning:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelCritical:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *zlog) Debug(msg string, kv ...any) { l.event(l.z.Debug(), kv).Msg(msg) }
func (l *zlog) Info(msg string, kv ...any)  { l.event(l.z.Info(), kv).Msg(msg) }
func (l *zlog) Warn(msg string, kv ...any)  { l.event(l.z.Warn(), kv).Msg(msg) }

func (l *zlog) Error(msg string, err error, kv ...any) {
	e := l.z.Error()
	if err != nil {
		e = e.Err(err)
	}
	l.event(e, kv).Msg(msg)
}

func (l *zlog) With(kv ...any) Logger {
	ctx := l.z.With()
	ctx = applyPairs(ctx, kv)
	return &zlog{z: ctx.Logger()}
}

// event applies key/value pairs (supplied as alternating key, value
// arguments) to a zerolog.Event. Non-string keys and unmatched trailing
// values are ignored rather than panicking, since these are almost always
// log-site typos we don't want to crash the driver over.
func (l *zlog) event(e *zerolog.Event, kv []any) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	return e
}

func applyPairs(ctx zerolog.Context, kv []any) zerolog.Context {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, kv[i+1])
	}
	return ctx
}

// Nop returns a Logger that discards everything. Useful in unit tests for
// packages that require a Logger but don't exercise logging behavior.
func Nop() Logger { return New(io.Discard, LevelCritical) }

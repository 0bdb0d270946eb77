// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log is a thin structured logging layer over log/slog. Packages hold
// a logger obtained via WithContext and never touch the handler; the process
// entry point decides where and how records are written.
package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

const (
	// LevelTrace sits below slog's built-in debug level.
	LevelTrace = slog.Level(-8)
)

// Logger writes key/value structured records.
type Logger interface {
	// With returns a logger that includes the given attributes in each output.
	With(ctx ...any) Logger

	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
}

type logger struct {
	inner *slog.Logger
}

func (l *logger) With(ctx ...any) Logger {
	return &logger{l.inner.With(ctx...)}
}

func (l *logger) Trace(msg string, ctx ...any) { l.write(LevelTrace, msg, ctx...) }
func (l *logger) Debug(msg string, ctx ...any) { l.write(slog.LevelDebug, msg, ctx...) }
func (l *logger) Info(msg string, ctx ...any)  { l.write(slog.LevelInfo, msg, ctx...) }
func (l *logger) Warn(msg string, ctx ...any)  { l.write(slog.LevelWarn, msg, ctx...) }
func (l *logger) Error(msg string, ctx ...any) { l.write(slog.LevelError, msg, ctx...) }

func (l *logger) write(level slog.Level, msg string, ctx ...any) {
	l.inner.Log(context.Background(), level, msg, ctx...)
}

var root atomic.Pointer[slog.Logger]

func init() {
	root.Store(slog.New(DiscardHandler()))
}

// SetDefault replaces the process-wide handler. Loggers created before the
// call pick up the new handler on their next write.
func SetDefault(handler slog.Handler) {
	root.Store(slog.New(handler))
}

// WithContext creates a logger carrying the given attributes, backed by the
// process-wide handler.
func WithContext(ctx ...any) Logger {
	return &rootLogger{ctx: ctx}
}

// rootLogger resolves the current default handler on every write, so that
// SetDefault applies retroactively to package-level loggers.
type rootLogger struct {
	ctx []any
}

func (l *rootLogger) resolve() *logger {
	return &logger{root.Load().With(l.ctx...)}
}

func (l *rootLogger) With(ctx ...any) Logger {
	return &rootLogger{ctx: append(append([]any{}, l.ctx...), ctx...)}
}

func (l *rootLogger) Trace(msg string, ctx ...any) { l.resolve().Trace(msg, ctx...) }
func (l *rootLogger) Debug(msg string, ctx ...any) { l.resolve().Debug(msg, ctx...) }
func (l *rootLogger) Info(msg string, ctx ...any)  { l.resolve().Info(msg, ctx...) }
func (l *rootLogger) Warn(msg string, ctx ...any)  { l.resolve().Warn(msg, ctx...) }
func (l *rootLogger) Error(msg string, ctx ...any) { l.resolve().Error(msg, ctx...) }

// NewTerminalHandlerWithLevel creates a text handler writing to stderr,
// filtering records below the given level.
func NewTerminalHandlerWithLevel(level slog.Level) slog.Handler {
	return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
}

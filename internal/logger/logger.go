// Package logger provides structured logging over logrus. Output goes to
// stderr because stdout carries the MCP stdio protocol.
package logger

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Ctx holds structured fields attached to a log line.
type Ctx map[string]any

// Logger is the logging interface used across the server.
type Logger interface {
	Debug(msg string, ctx ...Ctx)
	Info(msg string, ctx ...Ctx)
	Warn(msg string, ctx ...Ctx)
	Error(msg string, ctx ...Ctx)
	AddContext(ctx Ctx) Logger
}

type logWrapper struct {
	target logrus.FieldLogger
}

func (lw *logWrapper) ctxLogger(ctx ...Ctx) logrus.FieldLogger {
	l := lw.target
	for _, c := range ctx {
		l = l.WithFields(logrus.Fields(c))
	}
	return l
}

func (lw *logWrapper) Debug(msg string, ctx ...Ctx) { lw.ctxLogger(ctx...).Debug(msg) }
func (lw *logWrapper) Info(msg string, ctx ...Ctx)  { lw.ctxLogger(ctx...).Info(msg) }
func (lw *logWrapper) Warn(msg string, ctx ...Ctx)  { lw.ctxLogger(ctx...).Warn(msg) }
func (lw *logWrapper) Error(msg string, ctx ...Ctx) { lw.ctxLogger(ctx...).Error(msg) }

// AddContext returns a sub-logger with ctx applied to every line.
func (lw *logWrapper) AddContext(ctx Ctx) Logger {
	return &logWrapper{target: lw.ctxLogger(ctx)}
}

// New returns a Logger writing text lines to out at the given level
// ("debug", "info", "warn", "error"). Unknown levels fall back to info.
func New(out io.Writer, level string) Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return &logWrapper{target: l}
}

var defaultLogger atomic.Pointer[Logger]

func init() {
	SetDefault(New(os.Stderr, "info"))
}

// SetDefault replaces the package-level logger.
func SetDefault(l Logger) {
	defaultLogger.Store(&l)
}

// Default returns the package-level logger.
func Default() Logger {
	return *defaultLogger.Load()
}

// Init configures the package-level logger for stderr at level.
func Init(level string) {
	SetDefault(New(os.Stderr, level))
}

func Debug(msg string, ctx ...Ctx) { Default().Debug(msg, ctx...) }
func Info(msg string, ctx ...Ctx)  { Default().Info(msg, ctx...) }
func Warn(msg string, ctx ...Ctx)  { Default().Warn(msg, ctx...) }
func Error(msg string, ctx ...Ctx) { Default().Error(msg, ctx...) }

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return New(io.Discard, "panic")
}

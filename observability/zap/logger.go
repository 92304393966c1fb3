// Package zap adapts go.uber.org/zap to the core.Logger interface, so a
// queue's lifecycle and discard events land in the application's
// structured log stream.
package zap

import (
	uberzap "go.uber.org/zap"

	"github.com/rtckit/go-task-queue/core"
)

// Logger forwards core log records to a zap logger.
type Logger struct {
	base *uberzap.Logger
}

var _ core.Logger = (*Logger)(nil)

// NewLogger wraps an existing zap logger. Pass a named or pre-configured
// logger to control level and encoding from the application side; a nil
// base degrades to a nop logger.
func NewLogger(base *uberzap.Logger) *Logger {
	if base == nil {
		base = uberzap.NewNop()
	}
	return &Logger{base: base}
}

// NewDevelopmentLogger builds a console-encoded debug-level logger for
// local runs and tests.
func NewDevelopmentLogger() *Logger {
	base, err := uberzap.NewDevelopment()
	if err != nil {
		base = uberzap.NewNop()
	}
	return &Logger{base: base}
}

func (l *Logger) Debug(msg string, fields ...core.Field) {
	l.base.Debug(msg, convertFields(fields)...)
}

func (l *Logger) Info(msg string, fields ...core.Field) {
	l.base.Info(msg, convertFields(fields)...)
}

func (l *Logger) Warn(msg string, fields ...core.Field) {
	l.base.Warn(msg, convertFields(fields)...)
}

func (l *Logger) Error(msg string, fields ...core.Field) {
	l.base.Error(msg, convertFields(fields)...)
}

func convertFields(fields []core.Field) []uberzap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]uberzap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, uberzap.Any(f.Key, f.Value))
	}
	return out
}

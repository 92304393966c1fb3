package core

import (
	"fmt"
	"log"
	"strings"
)

// Logger is the structured logging interface the queue emits through.
// Implementations can bridge to any logging backend; a zap-backed adapter
// lives in observability/zap. Queues log lifecycle transitions and task
// discards at Debug level only, never on the run hot path.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is one key-value pair attached to a log message.
type Field struct {
	Key   string
	Value any
}

// F builds a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// DefaultLogger writes through the standard log package with a level tag
// and a flat "key=value" field rendering.
type DefaultLogger struct{}

func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{}
}

func (l *DefaultLogger) Debug(msg string, fields ...Field) { l.emit("DEBUG", msg, fields) }
func (l *DefaultLogger) Info(msg string, fields ...Field)  { l.emit("INFO", msg, fields) }
func (l *DefaultLogger) Warn(msg string, fields ...Field)  { l.emit("WARN", msg, fields) }
func (l *DefaultLogger) Error(msg string, fields ...Field) { l.emit("ERROR", msg, fields) }

func (l *DefaultLogger) emit(level, msg string, fields []Field) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level, msg)
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	log.Println(b.String())
}

// NoOpLogger discards everything. It is the default for queues so that the
// library stays silent unless a caller opts in.
type NoOpLogger struct{}

func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (l *NoOpLogger) Debug(msg string, fields ...Field) {}
func (l *NoOpLogger) Info(msg string, fields ...Field)  {}
func (l *NoOpLogger) Warn(msg string, fields ...Field)  {}
func (l *NoOpLogger) Error(msg string, fields ...Field) {}

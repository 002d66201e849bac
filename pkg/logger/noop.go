package logger

import (
	"github.com/harpoonmedia/harpoon/pkg/interfaces"
)

// NoopLogger discards all log output. Used in tests.
type NoopLogger struct{}

// NewNoop creates a logger that discards everything.
func NewNoop() interfaces.Logger {
	return &NoopLogger{}
}

func (l *NoopLogger) Debug(msg string, fields ...interfaces.Field) {}
func (l *NoopLogger) Info(msg string, fields ...interfaces.Field)  {}
func (l *NoopLogger) Warn(msg string, fields ...interfaces.Field)  {}
func (l *NoopLogger) Error(msg string, fields ...interfaces.Field) {}
func (l *NoopLogger) Fatal(msg string, fields ...interfaces.Field) {}

func (l *NoopLogger) WithFields(fields ...interfaces.Field) interfaces.Logger { return l }

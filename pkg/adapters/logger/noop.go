package logger

import "github.com/user/x264go/pkg/ports"

// NoopLogger drops every message. --quiet and most tests use it.
type NoopLogger struct{}

var discard = &NoopLogger{}

// NewNoop returns the shared discarding logger.
func NewNoop() *NoopLogger {
	return discard
}

func (*NoopLogger) Debug(string, ...interface{}) {}
func (*NoopLogger) Info(string, ...interface{})  {}
func (*NoopLogger) Warn(string, ...interface{})  {}
func (*NoopLogger) Error(string, ...interface{}) {}

// WithComponent has no prefix to record and returns l.
func (l *NoopLogger) WithComponent(string) ports.Logger {
	return l
}

var _ ports.Logger = (*NoopLogger)(nil)

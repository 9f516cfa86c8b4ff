package logger

import (
	"go.uber.org/zap"
)

// HTTPLogger adapts zap to the retryablehttp.LeveledLogger interface.
type HTTPLogger struct {
	s *zap.SugaredLogger
}

// NewHTTPLogger returns a leveled logger for the JSON-RPC transport.
func NewHTTPLogger() *HTTPLogger {
	return &HTTPLogger{s: Named("rpc-http").Sugar()}
}

func (l *HTTPLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}

func (l *HTTPLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...) // 每次请求都会打印，降级为 Debug
}

func (l *HTTPLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l *HTTPLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Warnw(msg, keysAndValues...)
}

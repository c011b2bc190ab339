package broker

import (
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"

	"rider-publisher/src/logger"
)

// KgoLogger adapts a logger.Logger to franz-go's logging interface.
// Warnings and errors go to Error, info and debug go to Debug so the
// client stays quiet unless verbose output is on.
type KgoLogger struct {
	log logger.Logger
}

var _ kgo.Logger = (*KgoLogger)(nil)

// NewKgoLogger wraps log for use with kgo.WithLogger.
func NewKgoLogger(log logger.Logger) *KgoLogger {
	return &KgoLogger{log: log}
}

// Level implements kgo.Logger.
func (l *KgoLogger) Level() kgo.LogLevel {
	return kgo.LogLevelInfo
}

// Log implements kgo.Logger.
func (l *KgoLogger) Log(level kgo.LogLevel, msg string, keyvals ...any) {
	line := "[kgo] " + msg + formatKeyvals(keyvals)
	switch level {
	case kgo.LogLevelError, kgo.LogLevelWarn:
		l.log.Error("%s", line)
	default:
		l.log.Debug("%s", line)
	}
}

func formatKeyvals(keyvals []any) string {
	if len(keyvals) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(keyvals); i += 2 {
		b.WriteString(" ")
		if i+1 < len(keyvals) {
			fmt.Fprintf(&b, "%v=%v", keyvals[i], keyvals[i+1])
		} else {
			fmt.Fprintf(&b, "%v", keyvals[i])
		}
	}
	return b.String()
}

package utils

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type loggerKey struct{}

// NewLogger builds the process logger. format is "json" or "text".
func NewLogger(level, format string, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stderr
	}
	l := logrus.New()
	l.SetOutput(out)
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// WithLogger stores a request scoped logger in ctx.
func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, entry)
}

// LoggerFromContext returns the request logger, or the standard logger.
func LoggerFromContext(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		switch typed := ctx.Value(loggerKey{}).(type) {
		case *logrus.Entry:
			return typed
		case *logrus.Logger:
			return logrus.NewEntry(typed)
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// LogEvent writes one module/action line. Keep message summarized, never raw payloads.
func LogEvent(ctx context.Context, module, action, message string) {
	LoggerFromContext(ctx).WithFields(logrus.Fields{
		"module": strings.ToUpper(module),
		"action": action,
	}).Info(message)
}

// ABOUTME: Structured JSON logging for the bot and its command-line tools.
// ABOUTME: Level comes from LOG_LEVEL; every entry carries a service field.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// ServiceName tags every log entry.
const ServiceName = "postgate"

// LevelFromEnv maps LOG_LEVEL to a logrus level, defaulting to info.
func LevelFromEnv() logrus.Level {
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}

// ParseLevel accepts debug, info, warn or error. Anything else is info.
func ParseLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// New creates a JSON logger writing to stderr.
func New() *logrus.Logger {
	return NewWithOutput(os.Stderr)
}

// NewWithOutput creates a JSON logger writing to w.
func NewWithOutput(w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(LevelFromEnv())
	return logger
}

// WithService returns an entry that stamps the service name on every line.
func WithService(logger *logrus.Logger) *logrus.Entry {
	return logger.WithField("service", ServiceName)
}

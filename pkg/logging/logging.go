// Package logging builds the logrus loggers shared by every telegen package.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// EnvLevel overrides the default log level when set.
const EnvLevel = "TELEGEN_LOG_LEVEL"

// Config controls logger construction
type Config struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	Output io.Writer
}

var defaultLogger = New(Config{Level: os.Getenv(EnvLevel)})

// New creates a logger from the given configuration
func New(cfg Config) *logrus.Logger {
	logger := logrus.New()
	if strings.ToLower(cfg.Format) == "json" {
		logger.Formatter = &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}
	} else {
		logger.Formatter = &logrus.TextFormatter{TimestampFormat: time.RFC3339Nano, FullTimestamp: true}
	}
	if cfg.Output != nil {
		logger.SetOutput(cfg.Output)
	} else {
		logger.SetOutput(os.Stderr)
	}
	logger.SetLevel(ParseLevel(cfg.Level))
	return logger
}

// ParseLevel maps a level name to a logrus level, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// Default returns the process-wide logger
func Default() *logrus.Logger {
	return defaultLogger
}

// SetLevel changes the level of the process-wide logger
func SetLevel(level string) {
	defaultLogger.SetLevel(ParseLevel(level))
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// Package logging configures the structured logger shared by the editor.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// LoggerConfig configures the logger.
type LoggerConfig struct {
	// Level is the minimum log level to output (debug, info, warn, error).
	Level string

	// Output is where logs are written. Ignored when File is set.
	// Defaults to os.Stderr.
	Output io.Writer

	// File, when non-empty, is a path that logs are appended to.
	// The terminal frontend owns the screen, so the editor logs to a file.
	File string
}

// DefaultLoggerConfig returns the default logger configuration.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:  "info",
		Output: os.Stderr,
	}
}

// ParseLogLevel parses a level name. Unknown names map to info.
func ParseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// ValidLevel reports whether s names a supported log level.
func ValidLevel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// NewLogger creates a logger from cfg. The returned closer releases the log
// file, if one was opened; it is never nil.
func NewLogger(cfg LoggerConfig) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()
	logger.SetLevel(ParseLogLevel(cfg.Level))
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000",
		DisableColors:   cfg.File != "",
	})

	if cfg.File == "" {
		out := cfg.Output
		if out == nil {
			out = os.Stderr
		}
		logger.SetOutput(out)
		return logger, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", cfg.File, err)
	}
	logger.SetOutput(f)
	return logger, f, nil
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// WithComponent returns an entry tagged with the component field.
// A nil logger yields a discarding entry.
func WithComponent(logger *logrus.Logger, component string) *logrus.Entry {
	if logger == nil {
		logger = Discard()
	}
	return logger.WithField("component", component)
}

// RouteStandard points logrus's package-level logger at logger's output,
// level and formatter. Go plugins share the host's logrus package, so this
// is how their log lines reach the configured log. Output is resolved on
// every write, so a later SetOutput on logger is followed. The returned
// function restores the previous settings.
func RouteStandard(logger *logrus.Logger) (restore func()) {
	std := logrus.StandardLogger()
	out, level, formatter := std.Out, std.GetLevel(), std.Formatter

	std.SetFormatter(logger.Formatter)
	std.SetLevel(logger.GetLevel())
	std.SetOutput(forwardWriter{logger})

	return func() {
		std.SetOutput(out)
		std.SetLevel(level)
		std.SetFormatter(formatter)
	}
}

// forwardWriter writes to the current output of a logger.
type forwardWriter struct {
	logger *logrus.Logger
}

func (w forwardWriter) Write(p []byte) (int, error) {
	return w.logger.Out.Write(p)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

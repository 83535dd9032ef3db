// Package logging configures the process-wide structured logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// EnvLevel names the variable read when no level flag is given.
const EnvLevel = "HOOPTRIAGE_LOG_LEVEL"

// Logger is the shared logger. Components take prefixed children of it.
var Logger = newLogger(os.Stderr, log.InfoLevel)

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
	})
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ParseLevel converts a level name. Unknown or empty names are an error.
func ParseLevel(name string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return log.DebugLevel, nil
	case "info":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	case "fatal":
		return log.FatalLevel, nil
	}
	return log.InfoLevel, fmt.Errorf("unknown log level %q", name)
}

// Configure replaces Logger. The level falls back to $HOOPTRIAGE_LOG_LEVEL
// and then info. When file is set, output is appended there instead of
// stderr; the returned closer releases it.
func Configure(level, file string) (io.Closer, error) {
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	lvl := log.InfoLevel
	if level != "" {
		var err error
		if lvl, err = ParseLevel(level); err != nil {
			return nil, err
		}
	}

	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}

	Logger = newLogger(out, lvl)
	return closer, nil
}

// For returns a child of Logger tagged with the component name.
func For(component string) *log.Logger {
	return Logger.WithPrefix(component)
}

package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/phuslu/log"
)

// Log output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// NewLogger builds a leveled logger writing to stderr. Unknown levels fall
// back to info; any format other than "console" produces JSON lines.
func NewLogger(level, format string) *log.Logger {
	return newLogger(level, format, os.Stderr)
}

func newLogger(level, format string, out io.Writer) *log.Logger {
	logger := &log.Logger{
		Level:      parseLevel(level),
		TimeField:  "time",
		TimeFormat: time.RFC3339,
	}

	if strings.EqualFold(format, FormatConsole) {
		logger.Writer = &log.ConsoleWriter{
			Writer:         out,
			ColorOutput:    false,
			QuoteString:    true,
			EndWithMessage: true,
		}
	} else {
		logger.Writer = &log.IOWriter{Writer: out}
	}

	return logger
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// NopLogger discards everything; used by tests and when no logger is injected.
func NopLogger() *log.Logger {
	return &log.Logger{Level: log.PanicLevel, Writer: &log.IOWriter{Writer: io.Discard}}
}

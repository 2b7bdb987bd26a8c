// Package logger builds the structured logger shared by the pipeline.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Options configure New.
type Options struct {
	Level  string // debug, info, warn, error
	JSON   bool
	Output io.Writer
}

// ParseLevel maps a level name to a log.Level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// New returns a logger. JSON output is meant for CloudWatch, text for terminals.
func New(opts Options) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	l := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           ParseLevel(opts.Level),
	})
	if opts.JSON {
		l.SetFormatter(log.JSONFormatter)
	}
	return l
}

/*
File: logger.go
Description: Logging setup for the Riven Fuzzer. Builds a configured logrus
logger from the campaign configuration: level, optional log file, and either
JSON output for machine consumption or the colored console formatter.
*/

package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Options selects logger behavior.
type Options struct {
	Level    string // debug, info, warn, error
	File     string // Optional log file, appended to stderr output
	JSON     bool   // JSON formatter instead of the console formatter
	NoColors bool   // Disable ANSI colors on console output
}

// NewLogger builds a logger from options. The returned logger writes to
// stderr, and additionally to the log file when one is configured.
func NewLogger(opts Options) (*logrus.Logger, error) {
	logger := logrus.New()

	level := opts.Level
	if level == "" {
		level = "info"
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}
	logger.SetLevel(parsed)

	if opts.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&ConsoleFormatter{Colors: !opts.NoColors})
	}

	out := io.Writer(os.Stderr)
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
	}
	logger.SetOutput(out)
	return logger, nil
}

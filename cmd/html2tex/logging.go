package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Sentinel errors for logging setup.
var (
	ErrInvalidLogLevel = errors.New("invalid log level")
	ErrOpenLogFile     = errors.New("failed to open log file")
)

// logFileSuffix replaces .tex in the per-document log file name.
const logFileSuffix = ".conversion.log"

// newLogger builds a text logger at level writing to w.
// "warning" and "warn" are both accepted.
func newLogger(level string, w io.Writer) (*logrus.Logger, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLogLevel, level)
	}

	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return log, nil
}

// logFilePath returns <dir>/<stem>.conversion.log for a .tex path.
func logFilePath(texPath string) string {
	return strings.TrimSuffix(texPath, ".tex") + logFileSuffix
}

// openLogFile creates or truncates the conversion log for texPath.
func openLogFile(texPath string) (*os.File, error) {
	path := logFilePath(texPath)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermissions) // #nosec G304 -- derived from output path
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpenLogFile, path, err)
	}
	return f, nil
}

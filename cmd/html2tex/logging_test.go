package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"", logrus.InfoLevel},
		{"debug", logrus.DebugLevel},
		{"WARNING", logrus.WarnLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			t.Parallel()

			log, err := newLogger(tt.level, &bytes.Buffer{})
			if err != nil {
				t.Fatalf("newLogger(%q) error = %v", tt.level, err)
			}
			if log.GetLevel() != tt.want {
				t.Errorf("level = %v, want %v", log.GetLevel(), tt.want)
			}
		})
	}
}

func TestNewLogger_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := newLogger("loud", &bytes.Buffer{}); !errors.Is(err, ErrInvalidLogLevel) {
		t.Errorf("error = %v, want ErrInvalidLogLevel", err)
	}
}

func TestNewLogger_WritesFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := newLogger("info", &buf)
	if err != nil {
		t.Fatal(err)
	}
	log.WithField("tag", "table").Warn("placeholder")

	out := buf.String()
	if !strings.Contains(out, "level=warning") || !strings.Contains(out, "tag=table") {
		t.Errorf("log line = %q", out)
	}
}

func TestOpenLogFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tex := filepath.Join(dir, "doc.tex")

	if got := logFilePath(tex); got != filepath.Join(dir, "doc.conversion.log") {
		t.Errorf("logFilePath() = %q", got)
	}

	f, err := openLogFile(tex)
	if err != nil {
		t.Fatalf("openLogFile() error = %v", err)
	}
	_ = f.Close()
	if _, err := os.Stat(filepath.Join(dir, "doc.conversion.log")); err != nil {
		t.Errorf("log file not created: %v", err)
	}

	if _, err := openLogFile(filepath.Join(dir, "missing", "doc.tex")); !errors.Is(err, ErrOpenLogFile) {
		t.Errorf("error = %v, want ErrOpenLogFile", err)
	}
}

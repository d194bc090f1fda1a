package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	html2tex "github.com/alnah/go-html2tex"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Fakes and helpers
// ---------------------------------------------------------------------------

// notFoundGetter fails every download, so images and emoji fall back to
// the placeholder without touching the network.
type notFoundGetter struct{}

func (notFoundGetter) Get(_ context.Context, url string) ([]byte, error) {
	return nil, fmt.Errorf("404 for %s", url)
}

// pdfRunner pretends to be the TeX engine and writes <stem>.pdf into the
// -output-directory argument.
type pdfRunner struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (r *pdfRunner) Run(_ context.Context, _ string, _ []string, _ string, args ...string) (string, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}

	var outDir string
	for _, a := range args {
		if v, ok := strings.CutPrefix(a, "-output-directory="); ok {
			outDir = v
		}
	}
	stem := strings.TrimSuffix(filepath.Base(args[len(args)-1]), ".tex")
	if err := os.WriteFile(filepath.Join(outDir, stem+".pdf"), []byte("%PDF-1.7"), 0o644); err != nil {
		return "", err
	}
	return "Output written on " + stem + ".pdf", nil
}

func (r *pdfRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func errNotFound() error {
	return fmt.Errorf("exec: %q: %w", "xelatex", exec.ErrNotFound)
}

// testEnv returns an Environment with captured output and fake
// collaborators for the converter.
func testEnv(runner *pdfRunner) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Now:    time.Now,
		Stdout: &stdout,
		Stderr: &stderr,
		Options: []html2tex.Option{
			html2tex.WithGetter(notFoundGetter{}),
			html2tex.WithDownloadRetries(1, 0),
			html2tex.WithCommandRunner(runner),
		},
	}
	return env, &stdout, &stderr
}

// setupTestDir creates a temp directory with the given file structure.
// Files map paths to content. Returns the temp directory path.
func setupTestDir(t *testing.T, files map[string]string) string {
	t.Helper()
	tempDir := t.TempDir()

	for path, content := range files {
		fullPath := filepath.Join(tempDir, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
			t.Fatalf("failed to create dir for %s: %v", path, err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}

	return tempDir
}

const arabicHTML = `<html><head><title>تجربة</title></head><body><h1>مرحبا</h1><p>نص <b>عربي</b> قصير.</p></body></html>`

const arabicMarkdown = "# مرحبا\n\nنص **عربي** قصير.\n"

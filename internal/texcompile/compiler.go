// Package texcompile drives an external TeX engine (xelatex by default) to
// turn a generated .tex file into PDF, retrying with automatic repairs.
package texcompile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-html2tex/internal/fileutil"
)

const (
	// DefaultEngine is the TeX engine; it must support fontspec and bidi.
	DefaultEngine = "xelatex"

	// DefaultMaxRetries is the number of engine runs before giving up.
	DefaultMaxRetries = 3

	// DefaultTimeout bounds a single engine run.
	DefaultTimeout = 5 * time.Minute
)

// Sentinel errors for compilation.
var (
	ErrEngineNotFound = errors.New("TeX engine not found")
	ErrCompileFailed  = errors.New("PDF compilation failed")
	ErrCompileTimeout = errors.New("PDF compilation timed out")
	ErrNoTexFile      = errors.New("tex file not found")
)

// Compiler runs a TeX engine over a .tex file.
type Compiler struct {
	Runner      CommandRunner
	Engine      string
	MaxRetries  int
	Timeout     time.Duration
	ShellEscape bool
	KeepAux     bool
	Log         logrus.FieldLogger
}

// NewCompiler returns a Compiler with the default engine, retry count and
// timeout. A nil logger discards output.
func NewCompiler(log logrus.FieldLogger) *Compiler {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Compiler{
		Runner:     &ExecRunner{},
		Engine:     DefaultEngine,
		MaxRetries: DefaultMaxRetries,
		Timeout:    DefaultTimeout,
		Log:        log,
	}
}

// Compile builds texPath into outDir and returns the PDF path.
// Between failed attempts the engine output is diagnosed and the source is
// repaired with FixCommonErrors. A run that exceeds Timeout aborts with
// ErrCompileTimeout; a missing engine aborts with ErrEngineNotFound.
func (c *Compiler) Compile(ctx context.Context, texPath, outDir string) (string, error) {
	texPath, err := filepath.Abs(texPath)
	if err != nil {
		return "", fmt.Errorf("resolving tex path: %w", err)
	}
	if !fileutil.FileExists(texPath) {
		return "", fmt.Errorf("%w: %s", ErrNoTexFile, texPath)
	}

	if outDir == "" {
		outDir = filepath.Dir(texPath)
	}
	outDir, err = filepath.Abs(outDir)
	if err != nil {
		return "", fmt.Errorf("resolving output directory: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	engine := c.Engine
	if engine == "" {
		engine = DefaultEngine
	}
	retries := c.MaxRetries
	if retries < 1 {
		retries = 1
	}

	pdfPath := filepath.Join(outDir, filepath.Base(fileutil.ReplaceExt(texPath, ".pdf")))
	logPath := fileutil.ReplaceExt(pdfPath, ".log")
	args := c.args(texPath, outDir)
	env := []string{"TEXMFVAR=" + outDir}

	log := c.logger().WithFields(logrus.Fields{"engine": engine, "tex": texPath})

	var lastDiag []Diagnostic
	for attempt := 1; attempt <= retries; attempt++ {
		log.WithField("attempt", attempt).Info("compiling PDF")

		output, runErr := c.run(ctx, filepath.Dir(texPath), env, engine, args)

		switch {
		case errors.Is(runErr, exec.ErrNotFound):
			return "", fmt.Errorf("%w: %s", ErrEngineNotFound, engine)
		case errors.Is(runErr, ErrCompileTimeout):
			return "", fmt.Errorf("%w after %s", ErrCompileTimeout, c.timeout())
		case ctx.Err() != nil:
			return "", ctx.Err()
		}

		if runErr == nil && fileutil.FileExists(pdfPath) {
			if !c.KeepAux {
				if n, err := Cleanup(outDir, texPath); err != nil {
					log.WithField("error", err).Warn("removing auxiliary files")
				} else {
					log.WithField("removed", n).Debug("auxiliary files removed")
				}
			}
			log.WithField("pdf", pdfPath).Info("PDF compiled")
			return pdfPath, nil
		}

		lastDiag = c.diagnose(log, output, logPath)

		if attempt < retries {
			changed, err := FixCommonErrors(texPath)
			switch {
			case err != nil:
				log.WithField("error", err).Warn("repairing tex file")
			case changed:
				log.Info("applied automatic fixes to tex file")
			}
		}
	}

	return "", fmt.Errorf("%w after %d attempts%s", ErrCompileFailed, retries, summarize(lastDiag))
}

func (c *Compiler) args(texPath, outDir string) []string {
	args := []string{
		"-interaction=nonstopmode",
		"-halt-on-error",
		"-output-directory=" + outDir,
	}
	if c.ShellEscape {
		args = append(args, "-shell-escape")
	}
	return append(args, texPath)
}

// run executes one engine pass under the per-attempt timeout.
func (c *Compiler) run(ctx context.Context, dir string, env []string, engine string, args []string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	runner := c.Runner
	if runner == nil {
		runner = &ExecRunner{}
	}

	output, err := runner.Run(runCtx, dir, env, engine, args...)
	if err != nil && ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return output, ErrCompileTimeout
	}
	return output, err
}

// diagnose logs the problems found in output and in the .log file.
func (c *Compiler) diagnose(log logrus.FieldLogger, output, logPath string) []Diagnostic {
	diags := Diagnose(output)
	if fromLog, err := AnalyzeLog(logPath); err == nil {
		diags = append(diags, fromLog...)
	}

	if len(diags) == 0 {
		log.Warn("compilation failed without a recognized error")
		return nil
	}
	for _, d := range diags {
		log.WithFields(logrus.Fields{"kind": string(d.Kind), "detail": d.Detail}).Warn("compilation error")
	}
	return diags
}

func (c *Compiler) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c *Compiler) logger() logrus.FieldLogger {
	if c.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return c.Log
}

func summarize(diags []Diagnostic) string {
	if len(diags) == 0 {
		return ""
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = d.String()
	}
	return ": " + strings.Join(parts, "; ")
}

package texcompile

// Notes:
// - Compile is driven by a fake CommandRunner that writes the PDF (and an
//   optional .log) itself; no TeX installation is needed
// - ExecRunner is tested with POSIX shell utilities and skipped on Windows
// - The timeout test uses a runner that blocks until its context is done,
//   which is how a hung xelatex looks from the outside

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

type fakeRunner struct {
	succeedOn int    // attempt number that produces a PDF; 0 never
	output    string // returned on failure
	logText   string // written as <stem>.log on failure
	block     bool   // wait for ctx instead of returning
	err       error  // returned instead of running

	calls []fakeCall
}

type fakeCall struct {
	dir  string
	env  []string
	name string
	args []string
}

func (f *fakeRunner) Run(ctx context.Context, dir string, env []string, name string, args ...string) (string, error) {
	f.calls = append(f.calls, fakeCall{dir: dir, env: env, name: name, args: args})

	if f.err != nil {
		return "", f.err
	}
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}

	var outDir string
	for _, a := range args {
		if v, ok := strings.CutPrefix(a, "-output-directory="); ok {
			outDir = v
		}
	}
	tex := args[len(args)-1]
	stem := strings.TrimSuffix(filepath.Base(tex), ".tex")

	if len(f.calls) == f.succeedOn {
		for _, ext := range []string{".pdf", ".aux", ".log"} {
			if err := os.WriteFile(filepath.Join(outDir, stem+ext), []byte("x"), 0o644); err != nil {
				return "", err
			}
		}
		return "Output written on " + stem + ".pdf", nil
	}

	if f.logText != "" {
		_ = os.WriteFile(filepath.Join(outDir, stem+".log"), []byte(f.logText), 0o644)
	}
	return f.output, fmt.Errorf("exit status 1")
}

func writeTex(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "doc.tex")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validTex = "\\documentclass{article}\n\\usepackage{fontspec}\n\\begin{document}\nx\n\\end{document}\n"

// ---------------------------------------------------------------------------
// TestCompile - Success paths
// ---------------------------------------------------------------------------

func TestCompile_FirstAttempt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tex := writeTex(t, dir, validTex)
	out := filepath.Join(dir, "out")

	r := &fakeRunner{succeedOn: 1}
	c := NewCompiler(nil)
	c.Runner = r

	pdf, err := c.Compile(context.Background(), tex, out)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if pdf != filepath.Join(out, "doc.pdf") {
		t.Errorf("pdf = %q", pdf)
	}
	if len(r.calls) != 1 {
		t.Fatalf("runs = %d, want 1", len(r.calls))
	}

	call := r.calls[0]
	if call.name != DefaultEngine {
		t.Errorf("engine = %q", call.name)
	}
	wantArgs := []string{"-interaction=nonstopmode", "-halt-on-error", "-output-directory=" + out, tex}
	if strings.Join(call.args, " ") != strings.Join(wantArgs, " ") {
		t.Errorf("args = %v, want %v", call.args, wantArgs)
	}
	if len(call.env) != 1 || call.env[0] != "TEXMFVAR="+out {
		t.Errorf("env = %v", call.env)
	}
	if call.dir != dir {
		t.Errorf("dir = %q, want %q", call.dir, dir)
	}

	for _, ext := range []string{".aux", ".log"} {
		if _, err := os.Stat(filepath.Join(out, "doc"+ext)); !os.IsNotExist(err) {
			t.Errorf("%s not cleaned up", ext)
		}
	}
}

func TestCompile_KeepAuxAndShellEscape(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tex := writeTex(t, dir, validTex)

	r := &fakeRunner{succeedOn: 1}
	c := NewCompiler(nil)
	c.Runner = r
	c.KeepAux = true
	c.ShellEscape = true

	if _, err := c.Compile(context.Background(), tex, ""); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "doc.aux")); err != nil {
		t.Errorf("aux file removed despite KeepAux: %v", err)
	}
	if !strings.Contains(strings.Join(r.calls[0].args, " "), "-shell-escape") {
		t.Errorf("args missing -shell-escape: %v", r.calls[0].args)
	}
}

func TestCompile_RetriesAndRepairs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tex := writeTex(t, dir, "\\documentclass{article}\nbody\n")

	r := &fakeRunner{succeedOn: 2, output: "! Emergency stop."}
	c := NewCompiler(nil)
	c.Runner = r

	if _, err := c.Compile(context.Background(), tex, ""); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if len(r.calls) != 2 {
		t.Errorf("runs = %d, want 2", len(r.calls))
	}

	data, err := os.ReadFile(tex)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{fontspecLine, beginDocument, endDocument} {
		if !strings.Contains(string(data), want) {
			t.Errorf("repaired source missing %q:\n%s", want, data)
		}
	}
}

// ---------------------------------------------------------------------------
// TestCompile - Failure paths
// ---------------------------------------------------------------------------

func TestCompile_Exhausted(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tex := writeTex(t, dir, validTex)

	r := &fakeRunner{
		output:  "! Font Amiri not found.\n! Emergency stop.",
		logText: "! Package polyglossia Error: The current roman font does not contain the Arabic script!",
	}
	c := NewCompiler(nil)
	c.Runner = r

	_, err := c.Compile(context.Background(), tex, "")
	if !errors.Is(err, ErrCompileFailed) {
		t.Fatalf("Compile() error = %v, want ErrCompileFailed", err)
	}
	if len(r.calls) != DefaultMaxRetries {
		t.Errorf("runs = %d, want %d", len(r.calls), DefaultMaxRetries)
	}
	for _, want := range []string{"missing font: Amiri", "critical error", "RTL package error"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestCompile_EngineNotFound(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tex := writeTex(t, dir, validTex)

	r := &fakeRunner{err: &exec.Error{Name: "xelatex", Err: exec.ErrNotFound}}
	c := NewCompiler(nil)
	c.Runner = r

	_, err := c.Compile(context.Background(), tex, "")
	if !errors.Is(err, ErrEngineNotFound) {
		t.Fatalf("Compile() error = %v, want ErrEngineNotFound", err)
	}
	if len(r.calls) != 1 {
		t.Errorf("runs = %d, want 1", len(r.calls))
	}
}

func TestCompile_Timeout(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tex := writeTex(t, dir, validTex)

	r := &fakeRunner{block: true}
	c := NewCompiler(nil)
	c.Runner = r
	c.Timeout = 20 * time.Millisecond

	_, err := c.Compile(context.Background(), tex, "")
	if !errors.Is(err, ErrCompileTimeout) {
		t.Fatalf("Compile() error = %v, want ErrCompileTimeout", err)
	}
	if len(r.calls) != 1 {
		t.Errorf("runs = %d, want 1 (timeouts are not retried)", len(r.calls))
	}
}

func TestCompile_Canceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tex := writeTex(t, dir, validTex)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCompiler(nil)
	c.Runner = &fakeRunner{block: true}

	_, err := c.Compile(ctx, tex, "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Compile() error = %v, want context.Canceled", err)
	}
}

func TestCompile_MissingTex(t *testing.T) {
	t.Parallel()

	c := NewCompiler(nil)
	c.Runner = &fakeRunner{}

	_, err := c.Compile(context.Background(), filepath.Join(t.TempDir(), "nope.tex"), "")
	if !errors.Is(err, ErrNoTexFile) {
		t.Fatalf("Compile() error = %v, want ErrNoTexFile", err)
	}
}

// ---------------------------------------------------------------------------
// TestDiagnose / TestAnalyzeLog
// ---------------------------------------------------------------------------

func TestDiagnose(t *testing.T) {
	t.Parallel()

	output := strings.Join([]string{
		"! LaTeX Error: File `mdframed.sty' not found.",
		"! Undefined control sequence.",
		"! Undefined control sequence.",
		`! Package fontspec Error: The font "Noto Naskh" cannot be found.`,
		"! Missing number, treated as zero.",
		"! Emergency stop.",
	}, "\n")

	got := Diagnose(output)
	want := []Diagnostic{
		{KindMissingPackage, "mdframed.sty"},
		{KindUndefinedCommand, ""},
		{KindMissingFont, "Noto Naskh"},
		{KindInvalidNumber, ""},
		{KindEmergencyStop, ""},
	}

	if len(got) != len(want) {
		t.Fatalf("Diagnose() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("diagnostic %d = %v, want %v", i, got[i], want[i])
		}
	}

	if d := Diagnose("Output written on doc.pdf"); len(d) != 0 {
		t.Errorf("Diagnose(clean output) = %v", d)
	}
}

func TestAnalyzeLog(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "doc.log")
	log := "! Package bidi Error: Oops.\nline\n! LaTeX Error: File `soul.sty' not found.\n"
	if err := os.WriteFile(path, []byte(log), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := AnalyzeLog(path)
	if err != nil {
		t.Fatalf("AnalyzeLog() error = %v", err)
	}
	if len(got) != 2 || got[0].Kind != KindRTLPackage || got[0].Detail != "Oops." ||
		got[1].Kind != KindMissingPackage || got[1].Detail != "soul.sty" {
		t.Errorf("AnalyzeLog() = %v", got)
	}

	if _, err := AnalyzeLog(filepath.Join(t.TempDir(), "none.log")); err == nil {
		t.Error("AnalyzeLog() on missing file should fail")
	}
}

func TestDiagnostic_String(t *testing.T) {
	t.Parallel()

	if got := (Diagnostic{Kind: KindEmergencyStop}).String(); got != "critical error" {
		t.Errorf("String() = %q", got)
	}
	if got := (Diagnostic{Kind: KindMissingFont, Detail: "Amiri"}).String(); got != "missing font: Amiri" {
		t.Errorf("String() = %q", got)
	}
}

// ---------------------------------------------------------------------------
// TestFixSource
// ---------------------------------------------------------------------------

func TestFixSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "already valid",
			input: validTex,
			want:  validTex,
		},
		{
			name:  "missing fontspec",
			input: "\\documentclass{article}\n\\begin{document}\nx\n\\end{document}\n",
			want:  "\\documentclass{article}\n\\usepackage{fontspec}\n\\begin{document}\nx\n\\end{document}\n",
		},
		{
			name:  "missing begin before arabic",
			input: "\\documentclass{article}\n\\usepackage{fontspec}\n\\begin{arabic}\nx\n\\end{arabic}\n\\end{document}\n",
			want:  "\\documentclass{article}\n\\usepackage{fontspec}\n\\begin{document}\n\\begin{arabic}\nx\n\\end{arabic}\n\\end{document}\n",
		},
		{
			name:  "missing begin after packages",
			input: "\\documentclass{article}\n\\usepackage{fontspec}\n\\usepackage{graphicx}\nx\n\\end{document}\n",
			want:  "\\documentclass{article}\n\\usepackage{fontspec}\n\\usepackage{graphicx}\n\\begin{document}\nx\n\\end{document}\n",
		},
		{
			name:  "missing end without trailing newline",
			input: "\\documentclass{article}\n\\usepackage{fontspec}\n\\begin{document}\nx",
			want:  "\\documentclass{article}\n\\usepackage{fontspec}\n\\begin{document}\nx\n\\end{document}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := FixSource(tt.input); got != tt.want {
				t.Errorf("FixSource()\n got: %q\nwant: %q", got, tt.want)
			}
		})
	}
}

func TestFixCommonErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeTex(t, dir, validTex)

	changed, err := FixCommonErrors(path)
	if err != nil || changed {
		t.Errorf("FixCommonErrors(valid) = %v, %v; want false, nil", changed, err)
	}

	if _, err := FixCommonErrors(filepath.Join(dir, "missing.tex")); err == nil {
		t.Error("FixCommonErrors() on missing file should fail")
	}
}

// ---------------------------------------------------------------------------
// TestCleanup
// ---------------------------------------------------------------------------

func TestCleanup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"doc.aux", "doc.log", "doc.toc", "doc.pdf", "other.aux"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	n, err := Cleanup(dir, "/src/doc.tex")
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if n != 3 {
		t.Errorf("removed = %d, want 3", n)
	}
	for _, keep := range []string{"doc.pdf", "other.aux"} {
		if _, err := os.Stat(filepath.Join(dir, keep)); err != nil {
			t.Errorf("%s removed: %v", keep, err)
		}
	}
}

// ---------------------------------------------------------------------------
// TestExecRunner
// ---------------------------------------------------------------------------

func TestExecRunner_Run(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX shell")
	}

	out, err := (&ExecRunner{}).Run(context.Background(), t.TempDir(), []string{"HTML2TEX_PROBE=ok"},
		"sh", "-c", `echo "$HTML2TEX_PROBE"; echo err >&2`)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out, "ok") || !strings.Contains(out, "err") {
		t.Errorf("output = %q, want stdout and stderr combined", out)
	}
}

func TestExecRunner_KilledOnCancel(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX shell")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := (&ExecRunner{}).Run(ctx, "", nil, "sh", "-c", "sleep 30")
	if err == nil {
		t.Fatal("Run() should fail when the context expires")
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("Run() took %v after cancellation", elapsed)
	}
}

func TestExecRunner_NotFound(t *testing.T) {
	t.Parallel()

	_, err := (&ExecRunner{}).Run(context.Background(), "", nil, "html2tex-no-such-engine")
	if !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("Run() error = %v, want exec.ErrNotFound", err)
	}
}

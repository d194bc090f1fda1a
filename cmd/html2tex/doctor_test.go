package main

// Notes:
// - External tools are replaced by a fake prober, so results do not depend
//   on the TeX installation of the machine running the tests
// - checkSystem and container detection read the real host; assertions on
//   them are limited to fields that are always set

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

// fakeProber answers lookPath from tools and output from outputs, keyed by
// "name arg1 arg2".
func fakeProber(tools map[string]bool, outputs map[string]string) prober {
	return prober{
		lookPath: func(file string) (string, error) {
			if tools[file] {
				return "/usr/bin/" + file, nil
			}
			return "", exec.ErrNotFound
		},
		output: func(_ context.Context, name string, args ...string) ([]byte, error) {
			key := strings.Join(append([]string{name}, args...), " ")
			if out, ok := outputs[key]; ok {
				return []byte(out), nil
			}
			return nil, errors.New("exit status 1")
		},
		getenv: func(string) string { return "" },
	}
}

func healthyProber() prober {
	return fakeProber(
		map[string]bool{"xelatex": true, "fc-list": true, "kpsewhich": true},
		map[string]string{
			"/usr/bin/xelatex --version": "XeTeX 3.141592653-2.6-0.999995 (TeX Live 2023)\nmore\n",
			"fc-list :lang=ar family":    "Amiri\nNoto Sans Arabic,Noto Sans Arabic UI\n",
			"kpsewhich polyglossia.sty":  "/texmf/polyglossia.sty\n",
			"kpsewhich fontspec.sty":     "/texmf/fontspec.sty\n",
			"kpsewhich bidi.sty":         "/texmf/bidi.sty\n",
			"kpsewhich auxhook.sty":      "/texmf/auxhook.sty\n",
			"kpsewhich xkeyval.sty":      "/texmf/xkeyval.sty\n",
		},
	)
}

// ---------------------------------------------------------------------------
// TestRunDoctor - Diagnostics
// ---------------------------------------------------------------------------

func TestRunDoctor_Healthy(t *testing.T) {
	t.Parallel()

	r := runDoctor(context.Background(), healthyProber(), "xelatex", "Amiri")

	if len(r.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
	if !r.Engine.Found || r.Engine.Version != "XeTeX 3.141592653-2.6-0.999995 (TeX Live 2023)" {
		t.Errorf("engine = %+v", r.Engine)
	}
	if len(r.Fonts) != 2 {
		t.Errorf("fonts = %+v, want Amiri and Noto Sans Arabic", r.Fonts)
	}
	if len(r.Packages) != len(latexPackages) {
		t.Errorf("packages = %+v", r.Packages)
	}
	for _, p := range r.Packages {
		if !p.Found || strings.HasSuffix(p.Name, ".sty") {
			t.Errorf("package = %+v", p)
		}
	}
}

func TestRunDoctor_MissingPieces(t *testing.T) {
	t.Parallel()

	p := fakeProber(
		map[string]bool{"fc-list": true, "kpsewhich": true},
		map[string]string{
			"fc-list :lang=ar family":   "Amiri\n",
			"kpsewhich fontspec.sty":    "/texmf/fontspec.sty\n",
			"kpsewhich polyglossia.sty": "/texmf/polyglossia.sty\n",
			"kpsewhich bidi.sty":        "/texmf/bidi.sty\n",
			"kpsewhich auxhook.sty":     "/texmf/auxhook.sty\n",
		},
	)

	r := runDoctor(context.Background(), p, "xelatex", "Amiri")

	if r.Status != "errors" {
		t.Errorf("status = %q, want errors", r.Status)
	}
	joined := strings.Join(r.Errors, "\n")
	if !strings.Contains(joined, "xelatex not found") {
		t.Errorf("errors should report the engine: %v", r.Errors)
	}
	if !strings.Contains(joined, "tlmgr install xkeyval") {
		t.Errorf("errors should report xkeyval: %v", r.Errors)
	}
	if !strings.Contains(strings.Join(r.Warnings, "\n"), "Noto Sans Arabic") {
		t.Errorf("warnings should report the optional font: %v", r.Warnings)
	}
}

func TestRunDoctor_MainFontMissingIsError(t *testing.T) {
	t.Parallel()

	r := runDoctor(context.Background(), healthyProber(), "xelatex", "Scheherazade New")

	if len(r.Fonts) != 3 || r.Fonts[0].Name != "Scheherazade New" || r.Fonts[0].Found {
		t.Errorf("fonts = %+v", r.Fonts)
	}
	if !strings.Contains(strings.Join(r.Errors, "\n"), "Main font Scheherazade New") {
		t.Errorf("errors = %v", r.Errors)
	}
}

func TestRunDoctor_ToolsMissing(t *testing.T) {
	t.Parallel()

	p := fakeProber(map[string]bool{"xelatex": true}, map[string]string{
		"/usr/bin/xelatex --version": "XeTeX\n",
	})
	r := runDoctor(context.Background(), p, "xelatex", "Amiri")

	warnings := strings.Join(r.Warnings, "\n")
	if !strings.Contains(warnings, "fc-list not found") || !strings.Contains(warnings, "kpsewhich not found") {
		t.Errorf("warnings = %v", r.Warnings)
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorWith - Output formats and exit codes
// ---------------------------------------------------------------------------

func TestRunDoctorWith_JSONOutput(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	env := &Environment{Stdout: &stdout, Stderr: &stderr}

	code := runDoctorWith(context.Background(), []string{"--json"}, env, healthyProber())

	var result doctorResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, stdout.String())
	}
	if result.Env.OS == "" || result.Env.Arch == "" {
		t.Error("JSON should contain OS and Arch")
	}
	if result.Engine.Name != "xelatex" {
		t.Errorf("engine = %+v", result.Engine)
	}
	if result.Status == "errors" && code != ExitGeneral {
		t.Errorf("exit code = %d for errors status", code)
	}
	if result.Status != "errors" && code != ExitSuccess {
		t.Errorf("exit code = %d for %s status", code, result.Status)
	}
}

func TestRunDoctorWith_HumanOutput(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	env := &Environment{Stdout: &stdout, Stderr: &stderr}

	code := runDoctorWith(context.Background(), []string{"--engine", "lualatex"}, env, healthyProber())

	out := stdout.String()
	for _, want := range []string{"html2tex doctor", "TeX engine", "[ERROR] lualatex not found", "LaTeX packages", "Status: Not ready"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if code != ExitGeneral {
		t.Errorf("exit code = %d, want %d", code, ExitGeneral)
	}
}

func TestRunDoctorWith_BadFlag(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	env := &Environment{Stdout: &stdout, Stderr: &stderr}

	if code := runDoctorWith(context.Background(), []string{"--nope"}, env, healthyProber()); code != ExitUsage {
		t.Errorf("exit code = %d, want %d", code, ExitUsage)
	}
}

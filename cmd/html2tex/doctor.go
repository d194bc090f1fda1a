package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-html2tex/internal/config"
)

// doctorTimeout bounds each external probe.
const doctorTimeout = 10 * time.Second

// arabicFonts are checked in addition to the configured main font.
var arabicFonts = []string{"Amiri", "Noto Sans Arabic"}

// latexPackages are the style files the generated preamble loads
// unconditionally or most often.
var latexPackages = []string{"polyglossia.sty", "fontspec.sty", "bidi.sty", "auxhook.sty", "xkeyval.sty"}

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string        `json:"status"` // "ready", "warnings", "errors"
	Engine   engineInfo    `json:"engine"`
	Fonts    []fontInfo    `json:"fonts"`
	Packages []packageInfo `json:"packages"`
	Env      envInfo       `json:"environment"`
	System   systemInfo    `json:"system"`
	Warnings []string      `json:"warnings,omitempty"`
	Errors   []string      `json:"errors,omitempty"`
}

// engineInfo holds TeX engine detection results.
type engineInfo struct {
	Name    string `json:"name"`
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// fontInfo holds the result of one fontconfig lookup.
type fontInfo struct {
	Name  string `json:"name"`
	Found bool   `json:"found"`
}

// packageInfo holds the result of one kpsewhich lookup.
type packageInfo struct {
	Name  string `json:"name"`
	Found bool   `json:"found"`
	Path  string `json:"path,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// prober runs the external lookups; tests replace it.
type prober struct {
	lookPath func(file string) (string, error)
	output   func(ctx context.Context, name string, args ...string) ([]byte, error)
	getenv   func(string) string
}

func execProber() prober {
	return prober{
		lookPath: exec.LookPath,
		output: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output() // #nosec G204 -- fixed tool names
		},
		getenv: os.Getenv,
	}
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = bad flags.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	return runDoctorWith(ctx, args, env, execProber())
}

func runDoctorWith(ctx context.Context, args []string, env *Environment, p prober) int {
	defaults := config.DefaultConfig()

	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	jsonOutput := fs.Bool("json", false, "machine-readable output")
	engine := fs.String("engine", defaults.Compile.Engine, "TeX engine to check")
	font := fs.String("font", defaults.Fonts.Main, "main font to check")
	fs.Usage = func() { printDoctorUsage(env.Stderr) }
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return ExitSuccess
		}
		return ExitUsage
	}

	result := runDoctor(ctx, p, *engine, *font)

	if *jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, p prober, engine, font string) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
	}

	checkEngine(ctx, p, result, engine)
	checkFonts(ctx, p, result, font)
	checkPackages(ctx, p, result)
	checkEnvironment(p, result)
	checkSystem(result)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkEngine locates the TeX engine and reads its version banner.
func checkEngine(ctx context.Context, p prober, result *doctorResult, engine string) {
	result.Engine.Name = engine

	path, err := p.lookPath(engine)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("%s not found. Install TeX Live with XeTeX or add it to PATH", engine))
		return
	}
	result.Engine.Found = true
	result.Engine.Path = path

	ctx, cancel := context.WithTimeout(ctx, doctorTimeout)
	defer cancel()
	out, err := p.output(ctx, path, "--version")
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get %s version: %v", engine, err))
		return
	}
	first, _, _ := strings.Cut(string(out), "\n")
	result.Engine.Version = strings.TrimSpace(first)
}

// checkFonts looks up Arabic font families through fontconfig. The main
// font is an error when missing; the others are warnings.
func checkFonts(ctx context.Context, p prober, result *doctorResult, mainFont string) {
	if _, err := p.lookPath("fc-list"); err != nil {
		result.Warnings = append(result.Warnings, "fc-list not found; cannot check installed fonts")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, doctorTimeout)
	defer cancel()
	out, err := p.output(ctx, "fc-list", ":lang=ar", "family")
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("fc-list failed: %v", err))
		return
	}
	families := strings.ToLower(string(out))

	names := arabicFonts
	if !containsFold(names, mainFont) {
		names = append([]string{mainFont}, names...)
	}

	for _, name := range names {
		found := strings.Contains(families, strings.ToLower(name))
		result.Fonts = append(result.Fonts, fontInfo{Name: name, Found: found})
		switch {
		case found:
		case strings.EqualFold(name, mainFont):
			result.Errors = append(result.Errors, fmt.Sprintf("Main font %s not installed", name))
		default:
			result.Warnings = append(result.Warnings, fmt.Sprintf("Font %s not installed", name))
		}
	}
}

// checkPackages resolves each required style file with kpsewhich.
func checkPackages(ctx context.Context, p prober, result *doctorResult) {
	if _, err := p.lookPath("kpsewhich"); err != nil {
		result.Warnings = append(result.Warnings, "kpsewhich not found; cannot check LaTeX packages")
		return
	}

	for _, pkg := range latexPackages {
		info := packageInfo{Name: strings.TrimSuffix(pkg, ".sty")}

		pctx, cancel := context.WithTimeout(ctx, doctorTimeout)
		out, err := p.output(pctx, "kpsewhich", pkg)
		cancel()

		if path := strings.TrimSpace(string(out)); err == nil && path != "" {
			info.Found = true
			info.Path = path
		} else {
			result.Errors = append(result.Errors,
				fmt.Sprintf("LaTeX package %s not found (tlmgr install %s)", info.Name, info.Name))
		}
		result.Packages = append(result.Packages, info)
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(p prober, result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer(p.getenv)

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if p.getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	if getenv("HTML2TEX_CONTAINER") == "1" {
		return true, "HTML2TEX_CONTAINER=1"
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory is writable; engine runs and
// atomic writes need it.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	f, err := os.CreateTemp(tmpDir, "html2tex-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
		return
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "html2tex doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "TeX engine")
	if r.Engine.Found {
		fmt.Fprintf(w, "  [OK] %s found at %s\n", r.Engine.Name, r.Engine.Path)
		if r.Engine.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Engine.Version)
		}
	} else {
		fmt.Fprintf(w, "  [ERROR] %s not found\n", r.Engine.Name)
	}
	fmt.Fprintln(w)

	if len(r.Fonts) > 0 {
		fmt.Fprintln(w, "Fonts")
		for _, f := range r.Fonts {
			fmt.Fprintf(w, "  %s %s\n", mark(f.Found), f.Name)
		}
		fmt.Fprintln(w)
	}

	if len(r.Packages) > 0 {
		fmt.Fprintln(w, "LaTeX packages")
		for _, p := range r.Packages {
			fmt.Fprintf(w, "  %s %s\n", mark(p.Found), p.Name)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to convert")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}

func mark(ok bool) string {
	if ok {
		return "[OK]"
	}
	return "[MISSING]"
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

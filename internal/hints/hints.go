// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"runtime"
	"strings"

	"github.com/alnah/go-html2tex/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForEngineNotFound returns hints for a missing TeX engine.
// Suggests the TeX Live package matching the platform.
func ForEngineNotFound(engine string) string {
	var hints []string

	switch {
	case IsInContainer():
		hints = append(hints, "install texlive-xetex and texlive-lang-arabic in the image")
	case runtime.GOOS == "darwin":
		hints = append(hints, "install MacTeX (brew install --cask mactex)")
	case runtime.GOOS == "windows":
		hints = append(hints, "install MiKTeX or TeX Live and add it to PATH")
	default:
		hints = append(hints, "install texlive-xetex and texlive-lang-arabic")
	}
	hints = append(hints, "check that "+engine+" is on PATH, or pass --no-compile")

	return formatHints(hints)
}

// ForMissingFont returns hints when the engine cannot load a font.
func ForMissingFont(font string) string {
	return format("install " + font + " (fonts-hosny-amiri on Debian) or pick another with --font; run 'fc-list :lang=ar' to see installed Arabic fonts")
}

// ForMissingPackage returns hints when a LaTeX package is absent.
func ForMissingPackage(pkg string) string {
	pkg = strings.TrimSuffix(pkg, ".sty")
	if pkg == "" {
		return format("run 'html2tex doctor' to list missing LaTeX packages")
	}
	return format("install the " + pkg + " package (tlmgr install " + pkg + ")")
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for large documents, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, "go-html2tex") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}

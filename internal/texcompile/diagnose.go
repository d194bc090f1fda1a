package texcompile

import (
	"fmt"
	"os"
	"regexp"
	"slices"
)

// Kind classifies a compilation problem.
type Kind string

const (
	KindMissingPackage   Kind = "missing package"
	KindMissingFont      Kind = "missing font"
	KindUndefinedCommand Kind = "undefined control sequence"
	KindInvalidNumber    Kind = "invalid numeric value"
	KindEmergencyStop    Kind = "critical error"
	KindRTLPackage       Kind = "RTL package error"
)

// Diagnostic is one problem found in engine output or in the .log file.
type Diagnostic struct {
	Kind   Kind
	Detail string
}

func (d Diagnostic) String() string {
	if d.Detail == "" {
		return string(d.Kind)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Detail)
}

type pattern struct {
	re   *regexp.Regexp
	kind Kind
}

// outputPatterns match the engine's terminal output.
// A capture group, when present, becomes the diagnostic detail.
var outputPatterns = []pattern{
	{regexp.MustCompile("File `([^']+)' not found"), KindMissingPackage},
	{regexp.MustCompile(`Font (\S+) not found`), KindMissingFont},
	{regexp.MustCompile(`The font "([^"]+)" cannot be found`), KindMissingFont},
	{regexp.MustCompile(`Undefined control sequence`), KindUndefinedCommand},
	{regexp.MustCompile(`Missing number, treated as zero`), KindInvalidNumber},
	{regexp.MustCompile(`Emergency stop`), KindEmergencyStop},
}

// logPatterns match lines of the engine's .log file.
var logPatterns = []pattern{
	{regexp.MustCompile(`Package (?:bidi|polyglossia) Error: ([^\n]+)`), KindRTLPackage},
	{regexp.MustCompile("File `([^']+\\.sty)' not found"), KindMissingPackage},
}

// Diagnose extracts known problems from engine output.
// Each (kind, detail) pair is reported once, in order of first appearance.
func Diagnose(output string) []Diagnostic {
	return match(output, outputPatterns)
}

// AnalyzeLog reads an engine .log file and extracts RTL package errors and
// missing style files.
func AnalyzeLog(path string) ([]Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading log file: %w", err)
	}
	return match(string(data), logPatterns), nil
}

func match(text string, patterns []pattern) []Diagnostic {
	type hit struct {
		at int
		d  Diagnostic
	}

	var hits []hit
	for _, p := range patterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			d := Diagnostic{Kind: p.kind}
			if len(loc) >= 4 && loc[2] >= 0 {
				d.Detail = text[loc[2]:loc[3]]
			}
			hits = append(hits, hit{at: loc[0], d: d})
		}
	}

	slices.SortStableFunc(hits, func(a, b hit) int { return a.at - b.at })

	seen := make(map[Diagnostic]bool)
	var out []Diagnostic
	for _, h := range hits {
		if seen[h.d] {
			continue
		}
		seen[h.d] = true
		out = append(out, h.d)
	}
	return out
}

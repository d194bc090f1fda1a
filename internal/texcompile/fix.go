package texcompile

import (
	"fmt"
	"os"
	"strings"

	"github.com/alnah/go-html2tex/internal/fileutil"
)

const (
	fontspecLine  = `\usepackage{fontspec}`
	beginDocument = `\begin{document}`
	endDocument   = `\end{document}`
	beginArabic   = `\begin{arabic}`
)

// FixCommonErrors repairs a .tex file in place: a missing fontspec package,
// a missing \begin{document} and a missing \end{document}. It reports
// whether the file was changed.
func FixCommonErrors(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading tex file: %w", err)
	}

	fixed := FixSource(string(data))
	if fixed == string(data) {
		return false, nil
	}

	if err := fileutil.WriteFileAtomic(path, []byte(fixed), 0o644); err != nil {
		return false, fmt.Errorf("writing tex file: %w", err)
	}
	return true, nil
}

// FixSource applies the FixCommonErrors repairs to LaTeX source.
func FixSource(src string) string {
	lines := strings.Split(src, "\n")

	if !strings.Contains(src, fontspecLine) {
		at := indexOf(lines, func(l string) bool { return strings.HasPrefix(strings.TrimSpace(l), `\documentclass`) })
		lines = insertAt(lines, at+1, fontspecLine)
	}

	if !strings.Contains(src, beginDocument) {
		at := indexOf(lines, func(l string) bool { return strings.TrimSpace(l) == beginArabic })
		if at < 0 {
			at = lastIndexOf(lines, func(l string) bool {
				t := strings.TrimSpace(l)
				return strings.HasPrefix(t, `\usepackage`) || strings.HasPrefix(t, `\documentclass`)
			}) + 1
		}
		lines = insertAt(lines, at, beginDocument)
	}

	out := strings.Join(lines, "\n")
	if !strings.Contains(out, endDocument) {
		if !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += endDocument + "\n"
	}
	return out
}

// indexOf returns the first line matching fn, or -1.
func indexOf(lines []string, fn func(string) bool) int {
	for i, l := range lines {
		if fn(l) {
			return i
		}
	}
	return -1
}

// lastIndexOf returns the last line matching fn, or -1.
func lastIndexOf(lines []string, fn func(string) bool) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if fn(lines[i]) {
			return i
		}
	}
	return -1
}

func insertAt(lines []string, at int, line string) []string {
	if at < 0 {
		at = 0
	}
	if at > len(lines) {
		at = len(lines)
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:at]...)
	out = append(out, line)
	return append(out, lines[at:]...)
}

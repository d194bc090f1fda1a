package html2tex

import (
	"context"
	"strings"

	"github.com/alnah/go-html2tex/internal/fileutil"
)

// Format identifies the markup of Input.Content.
type Format int

const (
	// FormatHTML is an HTML document or fragment.
	FormatHTML Format = iota
	// FormatMarkdown is CommonMark with GitHub extensions.
	FormatMarkdown
)

// String returns the format name.
func (f Format) String() string {
	if f == FormatMarkdown {
		return "markdown"
	}
	return "html"
}

// FormatFor guesses the format from a file name: .md and .markdown are
// Markdown, everything else is HTML.
func FormatFor(path string) Format {
	if fileutil.HasExt(strings.ToLower(path), ".md", ".markdown") {
		return FormatMarkdown
	}
	return FormatHTML
}

// Input contains the per-conversion data.
type Input struct {
	Content     []byte // raw HTML or Markdown (required)
	Format      Format
	ContentType string // optional HTTP-style charset hint, e.g. "text/html; charset=windows-1256"
	SourceDir   string // base for relative image paths; empty = current directory
	OutputPath  string // .tex destination (required); images go to <dir>/images
	SkipCompile bool   // stop after writing the .tex file
}

// Result describes a finished conversion.
type Result struct {
	TexPath   string
	PDFPath   string   // empty when compilation was skipped
	Title     string   // <title> of the source document, if any
	Images    []string // localized images, in order of first use
	Packages  []string // package flags set at the end of the run, sorted
	Optimized int      // images rewritten by the optimizer
}

// Getter downloads remote images and emoji.
// Implementations must be safe for concurrent use.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// CommandRunner runs the TeX engine. dir is the working directory and env
// is appended to the process environment. It returns combined output.
type CommandRunner interface {
	Run(ctx context.Context, dir string, env []string, name string, args ...string) (string, error)
}

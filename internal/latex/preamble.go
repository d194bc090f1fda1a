package latex

import "strings"

// DefaultMainFont is the Arabic font family used when none is configured.
const DefaultMainFont = "Amiri"

// Document markers.
const (
	BeginDocument = `\begin{document}`
	EndDocument   = `\end{document}`
	beginArabic   = `\begin{arabic}`
	endArabic     = `\end{arabic}`
)

// tailLength is the number of fixed lines after which optional package
// lines are inserted: the layout block plus the two begin markers.
const tailLength = 5

// optionalPackages are emitted, in this order, when their flag is set.
var optionalPackages = []struct {
	flag string
	line string
}{
	{PkgListings, `\usepackage{listings}`},
	{PkgSoul, `\usepackage{soul}`},
	{PkgMdframed, `\usepackage{mdframed}`},
}

// PreambleOptions customizes the fixed preamble.
type PreambleOptions struct {
	MainFont string // Arabic main font family (default Amiri)
}

// Preamble returns the document head for state, up to and including the
// language environment begin.
func Preamble(state *State, opts PreambleOptions) string {
	font := opts.MainFont
	if font == "" {
		font = DefaultMainFont
	}

	header := []string{
		`\listfiles`,
		`\documentclass[12pt]{article}`,
		`\usepackage[a4paper,margin=2.5cm]{geometry}`,
		`\usepackage{fontspec}`,
		`\usepackage{graphicx}`,
		`\usepackage{float}`,
		`\usepackage{longtable}`,
		`\usepackage{titlesec}`,
		`\usepackage{enumitem}`,
		`\usepackage{multirow}`,
		`\usepackage{booktabs}`,
		`\usepackage{hyperref}`,
		`\usepackage{etoolbox}`,
		`\usepackage{polyglossia}`,
		`\setmainlanguage[numerals=maghrib]{arabic}`,
		`\setotherlanguage{english}`,
		`\setmainfont[Script=Arabic]{` + font + "}",
		`\newfontfamily\arabicfont[Script=Arabic]{` + font + "}",
		`\titleformat{\section}{\Large\bfseries}{\thesection}{1em}{}`,
		`\titleformat{\subsection}{\large\bfseries}{\thesubsection}{1em}{}`,
		`\XeTeXlinebreak 0`,
		`\setlength{\parindent}{0pt}`,
		`\setlength{\parskip}{1em}`,
		BeginDocument,
		beginArabic,
	}

	var extra []string
	for _, p := range optionalPackages {
		if state.Requires(p.flag) {
			extra = append(extra, p.line)
		}
	}

	if len(extra) > 0 {
		at := len(header) - tailLength
		lines := make([]string, 0, len(header)+len(extra))
		lines = append(lines, header[:at]...)
		lines = append(lines, extra...)
		lines = append(lines, header[at:]...)
		header = lines
	}

	return strings.Join(header, "\n")
}

// Assemble wraps a converted body in the preamble and footer.
// Call it after the dispatch pass so that package flags are final.
func Assemble(body string, state *State, opts PreambleOptions) string {
	var b strings.Builder
	b.WriteString(Preamble(state, opts))
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(endArabic)
	b.WriteString("\n")
	b.WriteString(EndDocument)
	b.WriteString("\n")
	return b.String()
}

package latex

import (
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// listingsDialects maps lower-cased chroma lexer names to the dialect names
// shipped with the listings package.
var listingsDialects = map[string]string{
	"ada":         "Ada",
	"awk":         "Awk",
	"bash":        "bash",
	"c":           "C",
	"c++":         "C++",
	"cobol":       "Cobol",
	"common lisp": "Lisp",
	"erlang":      "erlang",
	"fortran":     "Fortran",
	"gnuplot":     "Gnuplot",
	"haskell":     "Haskell",
	"html":        "HTML",
	"java":        "Java",
	"makefile":    "make",
	"matlab":      "Matlab",
	"ocaml":       "Caml",
	"octave":      "Octave",
	"perl":        "Perl",
	"php":         "PHP",
	"postscript":  "PostScript",
	"prolog":      "Prolog",
	"python":      "Python",
	"python 2":    "Python",
	"r":           "R",
	"ruby":        "Ruby",
	"scilab":      "Scilab",
	"sparql":      "SPARQL",
	"sql":         "SQL",
	"tcl":         "tcl",
	"tex":         "TeX",
	"verilog":     "Verilog",
	"vhdl":        "VHDL",
	"xml":         "XML",
}

// ListingLanguage resolves a code-fence language (name, alias, or extension
// such as "py" or "sh") to a listings dialect. It returns false when listings
// has no matching dialect.
func ListingLanguage(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}

	key := strings.ToLower(name)
	if lexer := lexers.Get(name); lexer != nil {
		key = strings.ToLower(lexer.Config().Name)
	}

	dialect, ok := listingsDialects[key]
	return dialect, ok
}

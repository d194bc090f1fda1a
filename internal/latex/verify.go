package latex

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// arabicScript covers the Arabic, Arabic Supplement, Arabic Extended-A and
// Arabic Presentation Forms blocks.
var arabicScript = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0600, Hi: 0x06FF, Stride: 1},
		{Lo: 0x0750, Hi: 0x077F, Stride: 1},
		{Lo: 0x08A0, Hi: 0x08FF, Stride: 1},
		{Lo: 0xFB50, Hi: 0xFDFF, Stride: 1},
		{Lo: 0xFE70, Hi: 0xFEFF, Stride: 1},
	},
}

var (
	rePolyglossia  = regexp.MustCompile(`\\usepackage\{polyglossia\}`)
	reMainLanguage = regexp.MustCompile(`\\setmainlanguage\[numerals=maghrib\]\{arabic\}`)
	reMainFont     = regexp.MustCompile(`\\setmainfont\[Script=Arabic\]\{[^}]+\}`)
)

// HasArabicScript reports whether s contains any Arabic-script rune.
func HasArabicScript(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return unicode.Is(arabicScript, r) }) >= 0
}

// VerifyRTL checks that a document holding Arabic text declares the RTL setup.
// Documents without Arabic text always pass.
func VerifyRTL(doc string) error {
	if !HasArabicScript(doc) {
		return nil
	}

	checks := []struct {
		re   *regexp.Regexp
		name string
	}{
		{rePolyglossia, `\usepackage{polyglossia}`},
		{reMainLanguage, `\setmainlanguage[numerals=maghrib]{arabic}`},
		{reMainFont, `\setmainfont[Script=Arabic]{...}`},
	}
	for _, c := range checks {
		if !c.re.MatchString(doc) {
			return fmt.Errorf("%w: %s", ErrMissingRTLConfig, c.name)
		}
	}
	return nil
}

// requiredElements must appear in every generated document.
var requiredElements = []string{
	`\documentclass`,
	`\usepackage{fontspec}`,
	`\usepackage{polyglossia}`,
	BeginDocument,
	EndDocument,
}

// ValidateDocument checks the document skeleton: required declarations and
// exactly one begin and one end marker.
func ValidateDocument(doc string) error {
	var missing []string
	for _, elem := range requiredElements {
		if !strings.Contains(doc, elem) {
			missing = append(missing, elem)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidDocument, strings.Join(missing, ", "))
	}

	if n := strings.Count(doc, BeginDocument); n != 1 {
		return fmt.Errorf("%w: %d %s markers", ErrInvalidDocument, n, BeginDocument)
	}
	if n := strings.Count(doc, EndDocument); n != 1 {
		return fmt.Errorf("%w: %d %s markers", ErrInvalidDocument, n, EndDocument)
	}
	return nil
}

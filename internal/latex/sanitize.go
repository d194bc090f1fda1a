package latex

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// ImageDir is the directory, relative to the .tex file, holding all images.
const ImageDir = "images"

// EmojiResolver maps hyphen-joined hex code points to a cached image file name
// inside ImageDir. Implementations never fail; they fall back to a placeholder.
type EmojiResolver interface {
	Resolve(ctx context.Context, codePoints string) string
}

// escapeTable lists literal characters and their LaTeX replacements.
// The table is applied in a single pass over the input runes, so text emitted
// for one character is never rescanned for another.
var escapeTable = []struct {
	char        rune
	replacement string
}{
	{'&', `\&`},
	{'%', `\%`},
	{'$', `\$`},
	{'#', `\#`},
	{'_', `\_`},
	{'{', `\{`},
	{'}', `\}`},
	{'~', `\textasciitilde{}`},
	{'^', `\^{}`},
	{'\\', `\textbackslash{}`},
	{'|', `\textbar{}`},
	{'<', `\textless{}`},
	{'>', `\textgreater{}`},
	{'[', `{[}`},
	{']', `{]}`},
	{'"', `\textquotedbl{}`},
	{'\'', `'`},
}

var escapes = func() map[rune]string {
	m := make(map[rune]string, len(escapeTable))
	for _, e := range escapeTable {
		m[e.char] = e.replacement
	}
	return m
}()

// emojiRanges are the code point ranges replaced by emoji images.
var emojiRanges = [][2]rune{
	{0x1F300, 0x1F9FF},
	{0x1FA00, 0x1FA6F},
	{0x2600, 0x26FF},
	{0x2700, 0x27BF},
}

// IsEmoji reports whether r falls in one of the emoji ranges.
func IsEmoji(r rune) bool {
	for _, rg := range emojiRanges {
		if r >= rg[0] && r <= rg[1] {
			return true
		}
	}
	return false
}

// IsArabic reports whether r is in the Arabic block (U+0600–U+06FF).
func IsArabic(r rune) bool {
	return r >= 0x0600 && r <= 0x06FF
}

// ContainsArabic reports whether s holds at least one Arabic-block rune.
func ContainsArabic(s string) bool {
	return strings.IndexFunc(s, IsArabic) >= 0
}

// Sanitizer escapes text for LaTeX and records Arabic usage in a State.
type Sanitizer struct {
	state *State
	emoji EmojiResolver
	log   logrus.FieldLogger
}

// NewSanitizer creates a Sanitizer. A nil resolver leaves emoji untouched;
// a nil logger discards log output.
func NewSanitizer(state *State, resolver EmojiResolver, log logrus.FieldLogger) *Sanitizer {
	if log == nil {
		log = discardLogger()
	}
	return &Sanitizer{state: state, emoji: resolver, log: log}
}

// Sanitize returns text safe to embed in a LaTeX body.
// Emoji become image inclusions, special characters are escaped, and any
// Arabic rune marks the Arabic font as required. It never fails: an internal
// panic is logged and yields an empty string.
func (s *Sanitizer) Sanitize(ctx context.Context, text string) (out string) {
	if text == "" {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("panic", fmt.Sprint(r)).Error("sanitization error")
			out = ""
		}
	}()

	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		if s.emoji != nil && IsEmoji(r) {
			b.WriteString(s.emojiDirective(ctx, r))
			continue
		}
		if esc, ok := escapes[r]; ok {
			b.WriteString(esc)
			continue
		}
		b.WriteRune(r)
	}

	if ContainsArabic(text) {
		s.state.Require(PkgAmiri)
	}

	return b.String()
}

// emojiDirective resolves r to a cached image and returns its inclusion command.
func (s *Sanitizer) emojiDirective(ctx context.Context, r rune) string {
	s.state.Require(PkgEmoji)
	name := s.emoji.Resolve(ctx, fmt.Sprintf("%04X", r))
	return `\includegraphics[height=1em]{` + ImageDir + "/" + name + "}"
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

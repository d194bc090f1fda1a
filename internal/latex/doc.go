// Package latex turns a parsed HTML tree into right-to-left LaTeX source.
//
// # Conversion
//
// A Dispatcher walks the tree depth-first and picks a rule by tag name:
//
//	h1..h6          sectioning commands (LTR-wrapped unless Arabic)
//	ul, ol          itemize / enumerate over direct <li> children
//	img             \includegraphics, figure with caption when alt is set
//	pre             lstlisting, language from <code class="language-*">
//	p               plain, center, flushright, or mdframed paragraph
//	a               \href when both target and text are present
//	strong, em      \textbf / \emph over the element's own string
//	blockquote      quote environment over the element's own string
//	mark            \hl from soul
//	table           fixed placeholder
//
// Any other element yields its converted children. Text leaves go through
// the Sanitizer, which escapes LaTeX specials in one pass and swaps emoji
// for cached images.
//
// A rule that fails or panics blanks only its own subtree; the error is
// logged and conversion continues with the next sibling.
//
// # State
//
// Side effects of a run (list depth, package flags, image cache) live in a
// State owned by that run. Assemble reads the final flags to decide which
// optional \usepackage lines the preamble needs.
package latex

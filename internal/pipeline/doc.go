// Package pipeline prepares input documents for LaTeX conversion.
//
// It covers the stages before the tag dispatcher runs:
//   - charset detection and decoding of raw HTML bytes
//   - parsing of full documents and fragments with x/net/html
//   - locating the <body> element and the document title
//   - Markdown to HTML conversion via Goldmark, with ==highlight== support
//
// The HTML tree produced here is read-only input for internal/latex.
package pipeline

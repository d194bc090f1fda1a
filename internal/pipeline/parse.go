package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// DecodeHTML converts raw HTML bytes to UTF-8. The encoding is taken from a
// byte order mark, the contentType hint, or a <meta> declaration, in that
// order. Undeclared input is read as UTF-8 when it is valid UTF-8 and as
// windows-1252 otherwise.
func DecodeHTML(data []byte, contentType string) (string, error) {
	enc, name, _ := charset.DetermineEncoding(data, contentType)
	if name == "utf-8" {
		return strings.TrimPrefix(string(data), "\uFEFF"), nil
	}

	out, err := io.ReadAll(enc.NewDecoder().Reader(bytes.NewReader(data)))
	if err != nil {
		return "", fmt.Errorf("decoding %s input: %w", name, err)
	}
	return string(out), nil
}

// ParseHTML parses a full document or a fragment.
// Fragments are parsed in a <body> context and returned under a bare
// document node, so callers walk both shapes the same way.
func ParseHTML(content string) (*html.Node, error) {
	trimmed := strings.ToLower(strings.TrimSpace(content))

	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		return html.Parse(strings.NewReader(content))
	}

	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, nil
}

// FindBody returns the <body> element of doc, or doc itself when there is
// none (a parsed fragment).
func FindBody(doc *html.Node) *html.Node {
	if body := findElement(doc, atom.Body); body != nil {
		return body
	}
	return doc
}

// Title returns the trimmed text of the first <title> element, if any.
func Title(doc *html.Node) string {
	t := findElement(doc, atom.Title)
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return strings.TrimSpace(t.FirstChild.Data)
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

package latex

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// TablePlaceholder is emitted in place of every <table>.
const TablePlaceholder = `\textbf{[TABLE NOT CONVERTED]}` + "\n\n"

// headingCommands maps heading levels to sectioning commands.
var headingCommands = map[int]string{
	1: "section",
	2: "subsection",
	3: "subsubsection",
	4: "paragraph",
	5: "subparagraph",
	6: "subparagraph*",
}

func (d *Dispatcher) heading(ctx context.Context, n *html.Node) (string, error) {
	level := int(n.Data[1] - '0')
	command, ok := headingCommands[level]
	if !ok {
		command = "paragraph"
	}

	content := strings.TrimSpace(d.children(ctx, n))

	if ContainsArabic(content) {
		return `\` + command + "{" + content + "}\n\n", nil
	}
	return `\begin{english}\` + command + "{" + content + `}\end{english}` + "\n\n", nil
}

// list emits itemize/enumerate for the direct <li> children of n.
// Nested lists are reached through the recursive conversion of each item.
func (d *Dispatcher) list(ctx context.Context, n *html.Node) (string, error) {
	d.state.ListDepth++
	defer func() { d.state.ListDepth-- }()

	env := "itemize"
	if n.Data == "ol" {
		env = "enumerate"
	}
	indent := strings.Repeat("    ", d.state.ListDepth-1)

	lines := []string{indent + `\begin{` + env + "}"}
	goquery.NewDocumentFromNode(n).ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		item := d.children(ctx, li.Get(0))
		lines = append(lines, indent+`\item `+strings.TrimSpace(item))
	})
	lines = append(lines, indent+`\end{`+env+"}")

	return strings.Join(lines, "\n") + "\n\n", nil
}

func (d *Dispatcher) image(ctx context.Context, n *html.Node) (string, error) {
	src := attr(n, "src")
	if src == "" {
		return "", nil
	}

	if err, failed := d.state.imageErrors[src]; failed {
		return "", err
	}

	path, ok := d.state.ImageCache[src]
	if !ok {
		if d.images == nil {
			return "", ErrNoImageLocalizer
		}
		local, err := d.images.Localize(ctx, src)
		if err != nil {
			err = fmt.Errorf("localizing image %q: %w", src, err)
			d.state.rememberImageError(src, err)
			return "", err
		}
		d.state.rememberImage(src, local)
		path = local
	}

	var options []string
	if w := attr(n, "width"); w != "" {
		options = append(options, "width="+w+"px")
	}
	if h := attr(n, "height"); h != "" {
		options = append(options, "height="+h+"px")
	}
	opts := ""
	if len(options) > 0 {
		opts = "[" + strings.Join(options, ", ") + "]"
	}

	include := `\includegraphics` + opts + "{" + ImageDir + "/" + filepath.Base(path) + "}"

	if alt := attr(n, "alt"); alt != "" {
		caption := d.sanitizer.Sanitize(ctx, alt)
		return `\begin{figure}[H]` + "\n" +
			`\centering` + "\n" +
			include + "\n" +
			`\caption{` + caption + "}\n" +
			`\end{figure}` + "\n\n", nil
	}
	return include + "\n\n", nil
}

// Listing escape delimiters passed to escapeinside.
const (
	escapeOpen  = "(*@"
	escapeClose = "@*)"
)

// reservedInListing would end the listing or the document if left verbatim.
var reservedInListing = []string{`\end{lstlisting}`, BeginDocument, EndDocument}

// protectListing typesets the backslash of each reserved sequence through
// an escape so the raw sequence never reaches the output. It reports
// whether any replacement was made.
func protectListing(code string) (string, bool) {
	changed := false
	for _, seq := range reservedInListing {
		if strings.Contains(code, seq) {
			code = strings.ReplaceAll(code, seq, escapeOpen+`\textbackslash`+escapeClose+seq[1:])
			changed = true
		}
	}
	return code, changed
}

// pre emits a verbatim listing. The text is taken as-is, without escaping,
// except for sequences that would close the listing or the document.
func (d *Dispatcher) pre(_ context.Context, n *html.Node) (string, error) {
	d.state.Require(PkgListings)

	sel := goquery.NewDocumentFromNode(n).Selection
	code := sel.Text()

	language := ""
	if c := sel.Find("code").First(); c.Length() > 0 {
		for _, cls := range strings.Fields(c.AttrOr("class", "")) {
			if name, ok := strings.CutPrefix(cls, "language-"); ok {
				language = name
				break
			}
		}
	}

	var options []string
	if language != "" {
		if dialect, ok := ListingLanguage(language); ok {
			options = append(options, "language="+dialect)
		} else {
			d.log.WithField("language", language).Debug("no listings dialect for language")
		}
	}

	code, escaped := protectListing(code)
	if escaped {
		options = append(options, "escapeinside={"+escapeOpen+"}{"+escapeClose+"}")
	}

	opts := ""
	if len(options) > 0 {
		opts = "[" + strings.Join(options, ", ") + "]"
	}
	return `\begin{lstlisting}` + opts + "\n" + code + "\n" + `\end{lstlisting}` + "\n\n", nil
}

func (d *Dispatcher) paragraph(ctx context.Context, n *html.Node) (string, error) {
	content := strings.TrimSpace(d.children(ctx, n))
	if content == "" {
		return "", nil
	}

	env := ""
	switch {
	case hasClass(n, "text-center"):
		env = "center"
	case hasClass(n, "text-right"):
		env = "flushright"
	case hasClass(n, "highlighted"):
		env = "mdframed"
		d.state.Require(PkgMdframed)
	}

	if env != "" {
		return `\begin{` + env + "}\n" + content + "\n" + `\end{` + env + "}\n\n", nil
	}
	return content + "\n\n", nil
}

// link emits \href only when there is both a target and visible text.
func (d *Dispatcher) link(ctx context.Context, n *html.Node) (string, error) {
	href := attr(n, "href")
	text := d.children(ctx, n)

	if href == "" || text == "" {
		return text, nil
	}

	d.state.Require(PkgHyperref)
	return `\href{` + href + "}{" + text + "}", nil
}

func (d *Dispatcher) strong(ctx context.Context, n *html.Node) (string, error) {
	return `\textbf{` + d.ownText(ctx, n) + "}", nil
}

func (d *Dispatcher) emphasis(ctx context.Context, n *html.Node) (string, error) {
	return `\emph{` + d.ownText(ctx, n) + "}", nil
}

func (d *Dispatcher) blockquote(ctx context.Context, n *html.Node) (string, error) {
	return `\begin{quote}` + "\n" + d.ownText(ctx, n) + "\n" + `\end{quote}` + "\n", nil
}

func (d *Dispatcher) mark(ctx context.Context, n *html.Node) (string, error) {
	d.state.Require(PkgSoul)
	return `\hl{` + d.children(ctx, n) + "}", nil
}

func (d *Dispatcher) table(_ context.Context, _ *html.Node) (string, error) {
	d.log.Warn("table conversion not yet implemented")
	return TablePlaceholder, nil
}

// ownText sanitizes the own string of n; elements without one give "".
func (d *Dispatcher) ownText(ctx context.Context, n *html.Node) string {
	s, ok := ownString(n)
	if !ok {
		return ""
	}
	return d.sanitizer.Sanitize(ctx, s)
}

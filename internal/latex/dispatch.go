package latex

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// ImageLocalizer copies or downloads an image source into ImageDir and
// returns the local file path.
type ImageLocalizer interface {
	Localize(ctx context.Context, src string) (string, error)
}

// Options configures a Dispatcher.
type Options struct {
	Emoji  EmojiResolver
	Images ImageLocalizer
	Logger logrus.FieldLogger
}

// tagHandler converts one element into a LaTeX fragment.
type tagHandler func(ctx context.Context, n *html.Node) (string, error)

// skippedTags never contribute text to the document body.
var skippedTags = map[string]bool{
	"head":     true,
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// Dispatcher walks an HTML tree and emits LaTeX, one rule per tag name.
// It is bound to the State of a single run.
type Dispatcher struct {
	state     *State
	sanitizer *Sanitizer
	images    ImageLocalizer
	log       logrus.FieldLogger
	handlers  map[string]tagHandler
}

// NewDispatcher creates a Dispatcher writing its side effects into state.
func NewDispatcher(state *State, opts Options) *Dispatcher {
	log := opts.Logger
	if log == nil {
		log = discardLogger()
	}

	d := &Dispatcher{
		state:     state,
		sanitizer: NewSanitizer(state, opts.Emoji, log),
		images:    opts.Images,
		log:       log,
	}

	d.handlers = map[string]tagHandler{
		"h1":         d.heading,
		"h2":         d.heading,
		"h3":         d.heading,
		"h4":         d.heading,
		"h5":         d.heading,
		"h6":         d.heading,
		"table":      d.table,
		"ul":         d.list,
		"ol":         d.list,
		"img":        d.image,
		"pre":        d.pre,
		"p":          d.paragraph,
		"a":          d.link,
		"strong":     d.strong,
		"em":         d.emphasis,
		"blockquote": d.blockquote,
		"mark":       d.mark,
	}

	return d
}

// State returns the run state the dispatcher writes into.
func (d *Dispatcher) State() *State {
	return d.state
}

// Convert returns the LaTeX fragment for n and its descendants.
// Text leaves are sanitized, known tags use their rule, and any other element
// yields the concatenation of its converted children.
func (d *Dispatcher) Convert(ctx context.Context, n *html.Node) string {
	if n == nil || ctx.Err() != nil {
		return ""
	}

	switch n.Type {
	case html.TextNode:
		return d.sanitizer.Sanitize(ctx, n.Data)
	case html.DocumentNode:
		return d.children(ctx, n)
	case html.ElementNode:
		return d.element(ctx, n)
	default:
		return ""
	}
}

// element dispatches on the tag name. A failing rule only blanks its own subtree.
func (d *Dispatcher) element(ctx context.Context, n *html.Node) string {
	if skippedTags[n.Data] {
		return ""
	}

	handler, ok := d.handlers[n.Data]
	if !ok {
		return d.children(ctx, n)
	}

	fragment, err := d.apply(ctx, handler, n)
	if err != nil {
		d.log.WithFields(logrus.Fields{"tag": n.Data, "error": err}).Error("tag conversion error")
		return ""
	}
	return fragment
}

// apply runs handler and turns a panic into an error.
func (d *Dispatcher) apply(ctx context.Context, handler tagHandler, n *html.Node) (fragment string, err error) {
	defer func() {
		if r := recover(); r != nil {
			fragment = ""
			err = fmt.Errorf("%w: <%s>: %v", ErrTagPanic, n.Data, r)
		}
	}()
	return handler(ctx, n)
}

// children concatenates the converted children of n in document order.
func (d *Dispatcher) children(ctx context.Context, n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(d.Convert(ctx, c))
	}
	return b.String()
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// hasClass reports whether the class attribute of n lists name.
func hasClass(n *html.Node, name string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == name {
			return true
		}
	}
	return false
}

// ownString returns the text of n when n holds a single chain of only
// children ending in a text leaf. Any other shape has no own string.
func ownString(n *html.Node) (string, bool) {
	for {
		c := n.FirstChild
		if c == nil || c.NextSibling != nil {
			return "", false
		}
		switch c.Type {
		case html.TextNode:
			return c.Data, true
		case html.ElementNode:
			n = c
		default:
			return "", false
		}
	}
}

// Package emoji caches emoji images on disk for inclusion in LaTeX output.
//
// Images are named after their normalized code points ("1f600.png") and
// fetched from a Twemoji CDN on first use. When a fetch fails for good, the
// placeholder image is used instead so the document still compiles.
package emoji

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-html2tex/internal/fetch"
	"github.com/alnah/go-html2tex/internal/fileutil"
)

const (
	// DefaultURLTemplate locates an emoji image; %s is the normalized code points.
	DefaultURLTemplate = "https://cdnjs.cloudflare.com/ajax/libs/twemoji/14.0.2/72x72/%s.png"

	// Placeholder is the file name used when an emoji cannot be fetched.
	Placeholder = "missing.png"

	placeholderSize = 72
)

// ErrNoGetter indicates a cache miss with no way to download the image.
var ErrNoGetter = errors.New("no emoji getter configured")

// Resolver maps code points to image files in Dir.
// It is safe for concurrent use.
type Resolver struct {
	Dir         string
	URLTemplate string
	Getter      fetch.Getter
	Log         logrus.FieldLogger

	mu   sync.Mutex
	seen map[string]string
}

// NewResolver returns a Resolver storing images in dir and downloading them
// with g. A nil logger discards output.
func NewResolver(dir string, g fetch.Getter, log logrus.FieldLogger) *Resolver {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Resolver{
		Dir:         dir,
		URLTemplate: DefaultURLTemplate,
		Getter:      g,
		Log:         log,
		seen:        make(map[string]string),
	}
}

// Normalize lower-cases a hyphen-joined code point sequence and strips leading
// zeros from each component: "0001F600-FE0F" becomes "1f600-fe0f".
func Normalize(codePoints string) string {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(codePoints)), "-")
	for i, p := range parts {
		p = strings.TrimLeft(p, "0")
		if p == "" {
			p = "0"
		}
		parts[i] = p
	}
	return strings.Join(parts, "-")
}

// Resolve returns the file name (relative to Dir) of the image for codePoints.
// It never fails: on error it returns Placeholder. Successful names are
// memoized for the Resolver's lifetime; failures are retried on the next
// call. Use a Run to memoize them for one conversion.
func (r *Resolver) Resolve(ctx context.Context, codePoints string) string {
	key := Normalize(codePoints)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seen == nil {
		r.seen = make(map[string]string)
	}
	if name, ok := r.seen[key]; ok {
		return name
	}

	name := r.resolve(ctx, key)
	if name != Placeholder {
		r.seen[key] = name
	}
	return name
}

// Run resolves emoji for a single conversion. Sequences that fell back to
// Placeholder are not fetched again by the same Run; later runs retry them.
// A Run is not safe for concurrent use.
type Run struct {
	resolver *Resolver
	failed   map[string]bool
}

// NewRun returns a Run backed by r.
func (r *Resolver) NewRun() *Run {
	return &Run{resolver: r, failed: make(map[string]bool)}
}

// Resolve behaves like Resolver.Resolve with failures memoized.
func (run *Run) Resolve(ctx context.Context, codePoints string) string {
	key := Normalize(codePoints)
	if run.failed[key] {
		return Placeholder
	}

	name := run.resolver.Resolve(ctx, key)
	if name == Placeholder {
		run.failed[key] = true
	}
	return name
}

func (r *Resolver) resolve(ctx context.Context, key string) string {
	name := key + ".png"
	path := filepath.Join(r.Dir, name)

	if fileutil.FileExists(path) {
		return name
	}

	log := r.Log.WithField("emoji", key)

	if err := r.download(ctx, key, path); err != nil {
		log.WithField("error", err).Warn("emoji download failed, using placeholder")
		if err := r.ensurePlaceholder(); err != nil {
			log.WithField("error", err).Error("writing emoji placeholder")
		}
		return Placeholder
	}

	log.Debug("emoji cached")
	return name
}

func (r *Resolver) download(ctx context.Context, key, path string) error {
	if r.Getter == nil {
		return ErrNoGetter
	}

	tmpl := r.URLTemplate
	if tmpl == "" {
		tmpl = DefaultURLTemplate
	}

	data, err := r.Getter.Get(ctx, fmt.Sprintf(tmpl, key))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return fmt.Errorf("creating emoji directory: %w", err)
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// ensurePlaceholder writes a blank transparent image as Placeholder unless
// one already exists.
func (r *Resolver) ensurePlaceholder() error {
	path := filepath.Join(r.Dir, Placeholder)
	if fileutil.FileExists(path) {
		return nil
	}

	var buf bytes.Buffer
	img := image.NewNRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encoding placeholder: %w", err)
	}

	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return fmt.Errorf("creating emoji directory: %w", err)
	}
	return fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

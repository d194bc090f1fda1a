// Package images gathers the pictures referenced by a document into the
// output images directory and shrinks them for TeX.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"github.com/alnah/go-html2tex/internal/fetch"
	"github.com/alnah/go-html2tex/internal/fileutil"
)

// Sentinel errors for image localization.
var (
	ErrImageNotFound     = errors.New("image not found")
	ErrNotImage          = errors.New("not an image")
	ErrUnsupportedSource = errors.New("unsupported image source")
)

const fallbackName = "image"

// Store copies or downloads image sources into Dir.
// It is safe for concurrent use.
type Store struct {
	Dir     string // destination directory, usually <output>/images
	BaseDir string // directory that relative sources are resolved against
	Getter  fetch.Getter
	Log     logrus.FieldLogger

	mu    sync.Mutex
	taken map[string]bool
}

// NewStore returns a Store writing into dir and resolving relative paths
// against baseDir. A nil logger discards output.
func NewStore(dir, baseDir string, g fetch.Getter, log logrus.FieldLogger) *Store {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Store{
		Dir:     dir,
		BaseDir: baseDir,
		Getter:  g,
		Log:     log,
		taken:   make(map[string]bool),
	}
}

// Localize places the image behind src into Dir and returns its path.
// Remote sources (http, https) are downloaded; local paths, absolute or
// relative to BaseDir, optionally with a file:// prefix, are copied.
func (s *Store) Localize(ctx context.Context, src string) (string, error) {
	switch {
	case fileutil.IsURL(src):
		return s.download(ctx, src)
	case strings.HasPrefix(src, "data:"):
		return "", fmt.Errorf("%w: inline data URI", ErrUnsupportedSource)
	default:
		return s.copyLocal(src)
	}
}

func (s *Store) download(ctx context.Context, src string) (string, error) {
	if s.Getter == nil {
		return "", fmt.Errorf("%w: no getter for %s", ErrUnsupportedSource, src)
	}

	data, err := s.Getter.Get(ctx, src)
	if err != nil {
		return "", err
	}

	mtype := mimetype.Detect(data)
	if !isImage(mtype) {
		return "", fmt.Errorf("%w: %s is %s", ErrNotImage, src, mtype.String())
	}

	base := fallbackName
	if u, err := url.Parse(src); err == nil {
		base = path.Base(u.Path)
	}

	dst, err := s.reserve(base, mtype)
	if err != nil {
		return "", err
	}
	if err := fileutil.WriteFileAtomic(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("saving %s: %w", src, err)
	}

	s.Log.WithFields(logrus.Fields{"src": src, "path": dst}).Debug("image downloaded")
	return dst, nil
}

func (s *Store) copyLocal(src string) (string, error) {
	p := strings.TrimPrefix(src, "file://")
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	if !filepath.IsAbs(p) && s.BaseDir != "" {
		p = filepath.Join(s.BaseDir, p)
	}

	if !fileutil.FileExists(p) {
		return "", fmt.Errorf("%w: %s", ErrImageNotFound, p)
	}

	mtype, err := mimetype.DetectFile(p)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", p, err)
	}
	if !isImage(mtype) {
		return "", fmt.Errorf("%w: %s is %s", ErrNotImage, p, mtype.String())
	}

	dst, err := s.reserve(filepath.Base(p), mtype)
	if err != nil {
		return "", err
	}
	if err := fileutil.CopyFile(p, dst); err != nil {
		return "", fmt.Errorf("copying %s: %w", p, err)
	}

	s.Log.WithFields(logrus.Fields{"src": src, "path": dst}).Debug("image copied")
	return dst, nil
}

// reserve picks a free, TeX-safe file name in Dir for base and creates Dir.
// Names are made unique with a numeric suffix ("logo-1.png").
func (s *Store) reserve(base string, mtype *mimetype.MIME) (string, error) {
	stem, ext := splitName(base)
	if fileutil.ValidateExtension(ext) != nil || !knownExtension(ext) {
		ext = mtype.Extension()
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating image directory: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.taken == nil {
		s.taken = make(map[string]bool)
	}

	name := stem + ext
	for i := 1; s.taken[name] || fileutil.FileExists(filepath.Join(s.Dir, name)); i++ {
		name = stem + "-" + strconv.Itoa(i) + ext
	}
	s.taken[name] = true

	return filepath.Join(s.Dir, name), nil
}

// splitName returns a TeX-safe stem and the lower-cased extension of base.
// Runes outside [A-Za-z0-9._-] become '-' since graphicx chokes on them.
func splitName(base string) (stem, ext string) {
	ext = strings.ToLower(filepath.Ext(base))
	stem = strings.TrimSuffix(base, filepath.Ext(base))

	stem = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, stem)
	stem = strings.Trim(stem, "-")
	if stem == "" || stem == "." {
		stem = fallbackName
	}
	return stem, ext
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".pdf":  true,
	".eps":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
	".svg":  true,
}

func knownExtension(ext string) bool {
	return imageExtensions[ext]
}

// isImage accepts image types plus PDF, which graphicx can include directly.
func isImage(m *mimetype.MIME) bool {
	return strings.HasPrefix(m.String(), "image/") || m.Is("application/pdf")
}

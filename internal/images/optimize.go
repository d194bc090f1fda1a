package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"

	"github.com/alnah/go-html2tex/internal/fileutil"
)

const (
	// DefaultQuality is the JPEG quality used when none is configured.
	DefaultQuality = 85

	// DefaultMaxDimension caps the longest side of an image, in pixels.
	DefaultMaxDimension = 2000
)

// ErrUnsupportedFormat is returned for files the optimizer does not rewrite.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Optimizer flattens transparency onto white, downsizes large images and
// re-encodes JPEG and PNG files in place.
type Optimizer struct {
	Quality      int // JPEG quality, 1-100
	MaxDimension int
	Log          logrus.FieldLogger
}

// NewOptimizer returns an Optimizer with the given JPEG quality.
// Out-of-range qualities fall back to DefaultQuality.
func NewOptimizer(quality int, log logrus.FieldLogger) *Optimizer {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Optimizer{Quality: quality, MaxDimension: DefaultMaxDimension, Log: log}
}

// OptimizeAll optimizes every path and returns how many were rewritten.
// Failures are logged and skipped.
func (o *Optimizer) OptimizeAll(ctx context.Context, paths []string) int {
	done := 0
	for _, p := range paths {
		if ctx.Err() != nil {
			break
		}

		err := o.Optimize(p)
		switch {
		case err == nil:
			done++
		case errors.Is(err, ErrUnsupportedFormat):
			o.Log.WithField("path", p).Debug("image left as is")
		default:
			o.Log.WithFields(logrus.Fields{"path": p, "error": err}).Warn("image optimization failed")
		}
	}
	return done
}

// Optimize rewrites the JPEG or PNG file at path.
func (o *Optimizer) Optimize(path string) error {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("detecting image type: %w", err)
	}

	var encode func(io.Writer, image.Image) error
	switch {
	case mtype.Is("image/jpeg"):
		quality := o.Quality
		if quality < 1 || quality > 100 {
			quality = DefaultQuality
		}
		encode = func(w io.Writer, img image.Image) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
		}
	case mtype.Is("image/png"):
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		encode = enc.Encode
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, mtype.String())
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}
	src, _, err := image.Decode(f)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}

	var buf bytes.Buffer
	if err := encode(&buf, o.flatten(src)); err != nil {
		return fmt.Errorf("encoding image: %w", err)
	}

	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return err
	}

	o.Log.WithFields(logrus.Fields{"path": path, "format": mtype.String()}).Debug("image optimized")
	return nil
}

// flatten draws src onto a white canvas no larger than MaxDimension on its
// longest side, keeping the aspect ratio.
func (o *Optimizer) flatten(src image.Image) *image.RGBA {
	b := src.Bounds()
	w, h := fit(b.Dx(), b.Dy(), o.MaxDimension)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), image.White, image.Point{}, xdraw.Src)

	if w == b.Dx() && h == b.Dy() {
		xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Over)
		return dst
	}

	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

// fit scales w×h down so that neither side exceeds limit.
func fit(w, h, limit int) (int, int) {
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h
	}

	if w >= h {
		nh := h * limit / w
		if nh < 1 {
			nh = 1
		}
		return limit, nh
	}

	nw := w * limit / h
	if nw < 1 {
		nw = 1
	}
	return nw, limit
}

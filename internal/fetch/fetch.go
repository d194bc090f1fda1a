// Package fetch downloads remote assets (emoji images, <img> sources) over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent identifies the converter to remote hosts.
	DefaultUserAgent = "go-html2tex/1.0 (+https://github.com/alnah/go-html2tex)"

	// MaxBodySize caps a downloaded asset (32 MiB).
	MaxBodySize = 32 << 20

	// DefaultAttempts is the number of tries made by Retrying.
	DefaultAttempts = 3

	// DefaultDelay is the fixed pause between tries.
	DefaultDelay = 2 * time.Second
)

// Sentinel errors for fetch operations.
var (
	ErrHTTPStatus   = errors.New("unexpected HTTP status")
	ErrBodyTooLarge = errors.New("response body too large")
)

// Getter retrieves the body of a URL.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Compile-time interface checks.
var (
	_ Getter = (*HTTPGetter)(nil)
	_ Getter = (*Retrying)(nil)
)

// HTTPGetter performs plain GET requests and accepts only 2xx answers.
type HTTPGetter struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPGetter returns an HTTPGetter with DefaultTimeout and DefaultUserAgent.
func NewHTTPGetter() *HTTPGetter {
	return &HTTPGetter{
		Client:    &http.Client{Timeout: DefaultTimeout},
		UserAgent: DefaultUserAgent,
	}
}

// Get downloads url. Non-2xx responses return ErrHTTPStatus.
func (g *HTTPGetter) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w %d for %s", ErrHTTPStatus, resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > MaxBodySize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, url, MaxBodySize)
	}
	return body, nil
}

// Retrying wraps a Getter with a bounded number of attempts and a fixed
// delay between them. Context cancellation stops the loop immediately.
type Retrying struct {
	Getter   Getter
	Attempts int
	Delay    time.Duration
	Log      logrus.FieldLogger
}

// NewRetrying wraps g with DefaultAttempts and DefaultDelay.
func NewRetrying(g Getter, log logrus.FieldLogger) *Retrying {
	return &Retrying{Getter: g, Attempts: DefaultAttempts, Delay: DefaultDelay, Log: log}
}

// Get calls the wrapped Getter until it succeeds or attempts run out.
// The last error is returned on exhaustion.
func (r *Retrying) Get(ctx context.Context, url string) ([]byte, error) {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := r.Getter.Get(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if r.Log != nil {
			r.Log.WithFields(logrus.Fields{
				"url":     url,
				"attempt": attempt,
				"error":   err,
			}).Debug("fetch attempt failed")
		}

		if attempt == attempts {
			break
		}

		timer := time.NewTimer(r.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

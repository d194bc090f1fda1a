package html2tex

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	log            logrus.FieldLogger
	getter         Getter
	httpClient     *http.Client
	attempts       int
	delay          time.Duration
	quality        int
	maxDimension   int
	optimize       bool
	font           string
	emoji          bool
	emojiURL       string
	engine         string
	compileRetries int
	timeout        time.Duration
	shellEscape    bool
	keepAux        bool
	runner         CommandRunner
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Converter) {
		c.cfg.log = log
	}
}

// WithTimeout sets the wall-clock limit of one TeX engine run.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("html2tex: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithGetter replaces the HTTP downloader used for remote images and emoji.
// Download retries still apply on top of it.
func WithGetter(g Getter) Option {
	return func(c *Converter) {
		c.cfg.getter = g
	}
}

// WithHTTPClient sets the client of the default downloader.
// Ignored when WithGetter is used.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Converter) {
		c.cfg.httpClient = client
	}
}

// WithDownloadRetries sets how many times a download is tried and the fixed
// delay between tries.
func WithDownloadRetries(attempts int, delay time.Duration) Option {
	return func(c *Converter) {
		c.cfg.attempts = attempts
		c.cfg.delay = delay
	}
}

// WithImageQuality sets the JPEG quality used by the image optimizer (1-100).
func WithImageQuality(q int) Option {
	return func(c *Converter) {
		c.cfg.quality = q
	}
}

// WithMaxImageDimension caps the longest image side, in pixels.
// Zero disables downscaling.
func WithMaxImageDimension(px int) Option {
	return func(c *Converter) {
		c.cfg.maxDimension = px
	}
}

// WithImageOptimization enables or disables in-place image optimization.
func WithImageOptimization(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.optimize = enabled
	}
}

// WithMainFont sets the Arabic main font family (default Amiri).
func WithMainFont(font string) Option {
	return func(c *Converter) {
		c.cfg.font = font
	}
}

// WithEmoji enables or disables emoji image substitution. When disabled,
// emoji are written through as text.
func WithEmoji(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.emoji = enabled
	}
}

// WithEmojiURL sets the emoji image URL template; %s receives the
// normalized code points.
func WithEmojiURL(template string) Option {
	return func(c *Converter) {
		c.cfg.emojiURL = template
	}
}

// WithEngine sets the TeX engine binary (default xelatex).
func WithEngine(name string) Option {
	return func(c *Converter) {
		c.cfg.engine = name
	}
}

// WithCompileRetries sets the number of engine runs before giving up.
func WithCompileRetries(n int) Option {
	return func(c *Converter) {
		c.cfg.compileRetries = n
	}
}

// WithShellEscape passes -shell-escape to the engine.
func WithShellEscape(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.shellEscape = enabled
	}
}

// WithKeepAux keeps .aux, .log and friends after a successful compile.
func WithKeepAux(keep bool) Option {
	return func(c *Converter) {
		c.cfg.keepAux = keep
	}
}

// WithCommandRunner replaces the process runner used to invoke the engine.
func WithCommandRunner(r CommandRunner) Option {
	return func(c *Converter) {
		c.cfg.runner = r
	}
}

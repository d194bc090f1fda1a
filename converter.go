package html2tex

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-html2tex/internal/emoji"
	"github.com/alnah/go-html2tex/internal/fetch"
	"github.com/alnah/go-html2tex/internal/fileutil"
	"github.com/alnah/go-html2tex/internal/images"
	"github.com/alnah/go-html2tex/internal/latex"
	"github.com/alnah/go-html2tex/internal/pipeline"
	"github.com/alnah/go-html2tex/internal/texcompile"
)

// Compile-time interface implementation checks.
var (
	_ latex.EmojiResolver           = (*emoji.Resolver)(nil)
	_ latex.EmojiResolver           = (*emoji.Run)(nil)
	_ latex.ImageLocalizer          = (*images.Store)(nil)
	_ pipeline.HTMLConverter        = (*pipeline.GoldmarkConverter)(nil)
	_ pipeline.MarkdownPreprocessor = (*pipeline.CommonMarkPreprocessor)(nil)
	_ texcompile.CommandRunner      = (*texcompile.ExecRunner)(nil)
	_ texcompile.CommandRunner      = (CommandRunner)(nil)
	_ fetch.Getter                  = (Getter)(nil)
)

// MaxInputSize caps the file read by ConvertFile (64 MiB).
const MaxInputSize = 64 << 20

// Converter turns HTML or Markdown into Arabic-first LaTeX and, optionally,
// a PDF. A Converter is safe for concurrent use; every call to Convert owns
// its conversion state.
type Converter struct {
	cfg           converterConfig
	log           logrus.FieldLogger
	getter        fetch.Getter
	htmlConverter pipeline.HTMLConverter
	optimizer     *images.Optimizer
	compiler      *texcompile.Compiler

	mu        sync.Mutex
	resolvers map[string]*emoji.Resolver // by image directory
}

// NewConverter creates a Converter with default configuration.
// Use options to customize behavior (e.g., WithTimeout, WithMainFont, WithLogger).
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg: converterConfig{
			attempts:       fetch.DefaultAttempts,
			delay:          fetch.DefaultDelay,
			quality:        images.DefaultQuality,
			maxDimension:   images.DefaultMaxDimension,
			optimize:       true,
			font:           latex.DefaultMainFont,
			emoji:          true,
			emojiURL:       emoji.DefaultURLTemplate,
			engine:         texcompile.DefaultEngine,
			compileRetries: texcompile.DefaultMaxRetries,
			timeout:        texcompile.DefaultTimeout,
		},
		htmlConverter: pipeline.NewGoldmarkConverter(),
		resolvers:     make(map[string]*emoji.Resolver),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.cfg.quality < 1 || c.cfg.quality > 100 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidQuality, c.cfg.quality)
	}
	if c.cfg.attempts < 1 || c.cfg.compileRetries < 1 {
		return nil, ErrInvalidAttempts
	}

	c.log = c.cfg.log
	if c.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.log = l
	}

	var base fetch.Getter = c.cfg.getter
	if base == nil {
		hg := fetch.NewHTTPGetter()
		if c.cfg.httpClient != nil {
			hg.Client = c.cfg.httpClient
		}
		base = hg
	}
	retrying := fetch.NewRetrying(base, c.log)
	retrying.Attempts = c.cfg.attempts
	retrying.Delay = c.cfg.delay
	c.getter = retrying

	c.optimizer = images.NewOptimizer(c.cfg.quality, c.log)
	c.optimizer.MaxDimension = c.cfg.maxDimension

	c.compiler = texcompile.NewCompiler(c.log)
	c.compiler.Engine = c.cfg.engine
	c.compiler.MaxRetries = c.cfg.compileRetries
	c.compiler.Timeout = c.cfg.timeout
	c.compiler.ShellEscape = c.cfg.shellEscape
	c.compiler.KeepAux = c.cfg.keepAux
	if c.cfg.runner != nil {
		c.compiler.Runner = c.cfg.runner
	}

	return c, nil
}

// Convert runs the full pipeline: decode, parse, convert the body, assemble
// the document, validate it, write it to input.OutputPath, optimize the
// collected images and compile unless input.SkipCompile is set.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if err := c.validateInput(input); err != nil {
		return nil, err
	}

	log := c.log.WithFields(logrus.Fields{"tex": input.OutputPath, "format": input.Format.String()})
	log.Info("starting conversion")

	source, err := c.toHTML(ctx, input)
	if err != nil {
		return nil, err
	}

	doc, err := pipeline.ParseHTML(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTMLParse, err)
	}

	outDir := filepath.Dir(input.OutputPath)
	imageDir := filepath.Join(outDir, latex.ImageDir)
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating image directory: %v", ErrWriteTex, err)
	}

	sourceDir := input.SourceDir
	if sourceDir == "" {
		sourceDir = "."
	}

	state := latex.NewState()
	opts := latex.Options{
		Images: images.NewStore(imageDir, sourceDir, c.getter, log),
		Logger: log,
	}
	if c.cfg.emoji {
		opts.Emoji = c.emojiResolver(imageDir).NewRun()
	}

	body := latex.NewDispatcher(state, opts).Convert(ctx, pipeline.FindBody(doc))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tex := latex.Assemble(body, state, latex.PreambleOptions{MainFont: c.cfg.font})

	if err := latex.VerifyRTL(tex); err != nil {
		return nil, err
	}
	if err := latex.ValidateDocument(tex); err != nil {
		return nil, err
	}

	if err := fileutil.WriteFileAtomic(input.OutputPath, []byte(tex), 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWriteTex, err)
	}
	log.Info("tex file saved")

	res := &Result{
		TexPath:  input.OutputPath,
		Title:    pipeline.Title(doc),
		Images:   state.ImagePaths,
		Packages: requiredPackages(state),
	}

	if c.cfg.optimize && len(state.ImagePaths) > 0 {
		res.Optimized = c.optimizer.OptimizeAll(ctx, state.ImagePaths)
		log.WithField("count", res.Optimized).Debug("images optimized")
	}

	if input.SkipCompile {
		return res, nil
	}

	pdf, err := c.compiler.Compile(ctx, input.OutputPath, outDir)
	if err != nil {
		return res, fmt.Errorf("compiling %s: %w", input.OutputPath, err)
	}
	res.PDFPath = pdf
	return res, nil
}

// ConvertFile reads inputPath and converts it to outputPath. The format
// comes from the input extension and relative images resolve against the
// input directory. An empty outputPath writes <input>.tex beside the input.
func (c *Converter) ConvertFile(ctx context.Context, inputPath, outputPath string, skipCompile bool) (*Result, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	if info.Size() > MaxInputSize {
		return nil, fmt.Errorf("%w: %s (%d bytes, max %d)", ErrInputTooLarge, inputPath, info.Size(), MaxInputSize)
	}

	content, err := os.ReadFile(inputPath) // #nosec G304 -- input path is user-provided
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	if outputPath == "" {
		outputPath = fileutil.ReplaceExt(inputPath, ".tex")
	}

	return c.Convert(ctx, Input{
		Content:     content,
		Format:      FormatFor(inputPath),
		SourceDir:   filepath.Dir(inputPath),
		OutputPath:  outputPath,
		SkipCompile: skipCompile,
	})
}

// toHTML decodes HTML input or renders Markdown input.
func (c *Converter) toHTML(ctx context.Context, input Input) (string, error) {
	if input.Format == FormatMarkdown {
		out, err := c.htmlConverter.ToHTML(ctx, string(input.Content))
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrHTMLConversion, err)
		}
		return out, nil
	}

	out, err := pipeline.DecodeHTML(input.Content, input.ContentType)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	return out, nil
}

// emojiResolver returns the resolver for imageDir, creating it on first use
// so conversions into the same directory share downloads. Each conversion
// wraps it in its own emoji.Run, so a failed download is retried by the
// next conversion.
func (c *Converter) emojiResolver(imageDir string) *emoji.Resolver {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.resolvers[imageDir]; ok {
		return r
	}
	r := emoji.NewResolver(imageDir, c.getter, c.log)
	r.URLTemplate = c.cfg.emojiURL
	c.resolvers[imageDir] = r
	return r
}

func (c *Converter) validateInput(input Input) error {
	if strings.TrimSpace(string(input.Content)) == "" {
		return ErrEmptyInput
	}
	if input.OutputPath == "" {
		return ErrNoOutputPath
	}
	return nil
}

// requiredPackages lists the package flags set at the end of the run, sorted.
func requiredPackages(state *latex.State) []string {
	var pkgs []string
	for name, on := range state.Packages {
		if on {
			pkgs = append(pkgs, name)
		}
	}
	sort.Strings(pkgs)
	return pkgs
}

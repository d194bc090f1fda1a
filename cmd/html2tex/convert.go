package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	html2tex "github.com/alnah/go-html2tex"
	"github.com/alnah/go-html2tex/internal/config"
	"github.com/alnah/go-html2tex/internal/hints"
	"github.com/alnah/go-html2tex/internal/texcompile"
)

// Sentinel errors for the convert command.
var (
	ErrInvalidTimeout   = errors.New("invalid timeout")
	ErrConversionFailed = errors.New("conversion failed")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath string
	Result    *html2tex.Result // partial when compilation failed
	Err       error
	Duration  time.Duration
}

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment) error {
	cfg, err := loadConfig(flags, env)
	if err != nil {
		return err
	}

	if cfg.Runtime.MemoryLimitMB > 0 {
		debug.SetMemoryLimit(int64(cfg.Runtime.MemoryLimitMB) << 20)
	}

	inputPath, err := resolveInputPath(flags.input, positionalArgs)
	if err != nil {
		return err
	}

	output := flags.output
	if output == "" {
		output = cfg.Output.DefaultDir
	}

	files, err := discoverFiles(inputPath, output)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no .html, .htm, .md or .markdown files in %s", ErrNoInput, inputPath)
	}

	stderr := env.Stderr
	if flags.common.quiet && cfg.Log.Level != "error" {
		cfg.Log.Level = "error"
	}
	log, err := newLogger(cfg.Log.Level, stderr)
	if err != nil {
		return err
	}

	// A single document also logs to <output>.conversion.log.
	if len(files) == 1 && cfg.Log.File {
		if err := os.MkdirAll(filepath.Dir(files[0].OutputPath), dirPermissions); err != nil {
			return fmt.Errorf("%w: creating output directory: %v", html2tex.ErrWriteTex, err)
		}
		f, err := openLogFile(files[0].OutputPath)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		log.SetOutput(io.MultiWriter(stderr, f))
	}

	conv, err := html2tex.NewConverter(append(converterOptions(cfg, log), env.Options...)...)
	if err != nil {
		return fmt.Errorf("creating converter: %w", err)
	}

	workers := resolveWorkers(cfg.Runtime.MaxWorkers, len(files))
	log.WithFields(logrus.Fields{"files": len(files), "workers": workers}).Debug("starting batch")

	results := convertBatch(ctx, conv, files, workers, !cfg.Compile.Enabled, env.Now)
	failed := printResults(results, flags.common.quiet, flags.common.verbose, cfg, env)

	if failed > 0 {
		first := firstError(results)
		if len(results) == 1 {
			return fmt.Errorf("%w: %w", ErrConversionFailed, first)
		}
		return fmt.Errorf("%w: %d of %d files: %w", ErrConversionFailed, failed, len(results), first)
	}
	return nil
}

// loadConfig layers defaults, the config file, environment variables and
// flags, in that order, then validates the result.
func loadConfig(flags *convertFlags, env *Environment) (*config.Config, error) {
	envCfg := loadEnvConfig(env.getenv)
	warnUnknownEnvVars(env.Stderr, env.environ())

	name := flags.common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		cfg, err = config.LoadConfig(name)
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
		}
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(envCfg, cfg)
	if err := mergeFlags(flags, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFlags applies CLI flags to cfg. Flags win over every other source.
func mergeFlags(flags *convertFlags, cfg *config.Config) error {
	if flags.log.level != "" {
		cfg.Log.Level = flags.log.level
	}
	if flags.log.noLogFile {
		cfg.Log.File = false
	}
	if flags.images.quality != 0 {
		cfg.Images.Quality = flags.images.quality
	}
	if flags.images.noOptimize {
		cfg.Images.Optimize = false
	}
	if flags.font != "" {
		cfg.Fonts.Main = flags.font
	}
	if flags.noEmoji {
		cfg.Emoji.Enabled = false
	}
	if flags.workers != 0 {
		cfg.Runtime.MaxWorkers = flags.workers
	}
	if flags.memoryLimit != 0 {
		cfg.Runtime.MemoryLimitMB = flags.memoryLimit
	}

	if flags.compile.noCompile {
		cfg.Compile.Enabled = false
	}
	if flags.compile.engine != "" {
		cfg.Compile.Engine = flags.compile.engine
	}
	if flags.compile.keepAux {
		cfg.Compile.KeepAux = true
	}
	if flags.compile.shellEscape {
		cfg.Compile.ShellEscape = true
	}
	if flags.compile.timeout != "" {
		d, err := time.ParseDuration(flags.compile.timeout)
		if err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidTimeout, flags.compile.timeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("%w: %q must be positive", ErrInvalidTimeout, flags.compile.timeout)
		}
		cfg.Compile.Timeout = d
	}
	return nil
}

// converterOptions translates cfg into converter options.
func converterOptions(cfg *config.Config, log logrus.FieldLogger) []html2tex.Option {
	opts := []html2tex.Option{
		html2tex.WithLogger(log),
		html2tex.WithMainFont(cfg.Fonts.Main),
		html2tex.WithImageQuality(cfg.Images.Quality),
		html2tex.WithMaxImageDimension(cfg.Images.MaxDimension),
		html2tex.WithImageOptimization(cfg.Images.Optimize),
		html2tex.WithEmoji(cfg.Emoji.Enabled),
		html2tex.WithEngine(cfg.Compile.Engine),
		html2tex.WithShellEscape(cfg.Compile.ShellEscape),
		html2tex.WithKeepAux(cfg.Compile.KeepAux),
	}
	if cfg.Emoji.URL != "" {
		opts = append(opts, html2tex.WithEmojiURL(cfg.Emoji.URL))
	}
	if cfg.Emoji.Retries > 0 {
		opts = append(opts, html2tex.WithDownloadRetries(cfg.Emoji.Retries, cfg.Emoji.Backoff))
	}
	if cfg.Compile.Retries > 0 {
		opts = append(opts, html2tex.WithCompileRetries(cfg.Compile.Retries))
	}
	if cfg.Compile.Timeout > 0 {
		opts = append(opts, html2tex.WithTimeout(cfg.Compile.Timeout))
	}
	return opts
}

// resolveWorkers returns the batch parallelism: the configured count, or
// GOMAXPROCS when zero, never more than the number of files.
func resolveWorkers(configured, files int) int {
	n := configured
	if n <= 0 {
		n = min(runtime.GOMAXPROCS(0), config.MaxWorkers)
	}
	return max(1, min(n, files))
}

// convertBatch converts files with at most workers in flight. Each file
// gets its own conversion state; a failure does not stop the others.
func convertBatch(ctx context.Context, conv *html2tex.Converter, files []FileToConvert, workers int, skipCompile bool, now func() time.Time) []ConversionResult {
	results := make([]ConversionResult, len(files))

	var g errgroup.Group
	g.SetLimit(workers)

	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = ConversionResult{InputPath: f.InputPath, Err: err}
				return nil
			}
			results[i] = convertFile(ctx, conv, f, skipCompile, now)
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// convertFile converts one file and times it.
func convertFile(ctx context.Context, conv *html2tex.Converter, f FileToConvert, skipCompile bool, now func() time.Time) ConversionResult {
	start := now()
	result := ConversionResult{InputPath: f.InputPath}

	if err := os.MkdirAll(filepath.Dir(f.OutputPath), dirPermissions); err != nil {
		result.Err = fmt.Errorf("%w: creating output directory: %v", html2tex.ErrWriteTex, err)
		result.Duration = now().Sub(start)
		return result
	}

	result.Result, result.Err = conv.ConvertFile(ctx, f.InputPath, f.OutputPath, skipCompile)
	result.Duration = now().Sub(start)
	return result
}

// printResults outputs conversion results and returns the failure count.
func printResults(results []ConversionResult, quiet, verbose bool, cfg *config.Config, env *Environment) int {
	failed := 0

	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(env.Stderr, "FAILED %s: %v%s\n", r.InputPath, r.Err, hintFor(r.Err, cfg))
			if r.Result != nil && r.Result.TexPath != "" && !quiet {
				fmt.Fprintf(env.Stdout, "Created %s\n", r.Result.TexPath)
			}
			continue
		}

		if quiet {
			continue
		}

		out := r.Result.TexPath
		if r.Result.PDFPath != "" {
			out = r.Result.PDFPath
		}
		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, out, r.Duration.Round(time.Millisecond))
			continue
		}
		fmt.Fprintf(env.Stdout, "Created %s\n", r.Result.TexPath)
		if r.Result.PDFPath != "" {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.Result.PDFPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", len(results)-failed, failed)
	}

	return failed
}

func firstError(results []ConversionResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error, cfg *config.Config) string {
	switch {
	case errors.Is(err, html2tex.ErrEngineNotFound):
		return hints.ForEngineNotFound(cfg.Compile.Engine)
	case errors.Is(err, html2tex.ErrCompileTimeout):
		return hints.ForTimeout()
	case errors.Is(err, html2tex.ErrCompileFailed):
		msg := err.Error()
		if strings.Contains(msg, string(texcompile.KindMissingFont)) {
			return hints.ForMissingFont(cfg.Fonts.Main)
		}
		if pkg, ok := diagnosticDetail(msg, texcompile.KindMissingPackage); ok {
			return hints.ForMissingPackage(pkg)
		}
	case errors.Is(err, html2tex.ErrWriteTex):
		return hints.ForOutputDirectory()
	}
	return ""
}

// diagnosticDetail extracts the detail following "<kind>: " in a compile
// error message, up to the next diagnostic separator.
func diagnosticDetail(msg string, kind texcompile.Kind) (string, bool) {
	_, rest, ok := strings.Cut(msg, string(kind)+": ")
	if !ok {
		return "", false
	}
	detail, _, _ := strings.Cut(rest, ";")
	return strings.TrimSpace(detail), true
}

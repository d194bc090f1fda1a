package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// logFlags holds logging flags.
type logFlags struct {
	level     string
	noLogFile bool
}

// compileFlags holds TeX engine flags.
type compileFlags struct {
	engine      string
	timeout     string
	noCompile   bool
	keepAux     bool
	shellEscape bool
}

// imageFlags holds image post-processing flags.
type imageFlags struct {
	quality    int // 0 = from config
	noOptimize bool
}

// convertFlags holds all flags for the convert command.
// Zero values mean "keep the config value".
type convertFlags struct {
	common      commonFlags
	input       string
	output      string
	workers     int
	memoryLimit int
	font        string
	noEmoji     bool
	log         logFlags
	compile     compileFlags
	images      imageFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing")
}

// addLogFlags adds logging flags to a FlagSet.
func addLogFlags(fs *flag.FlagSet, f *logFlags) {
	fs.StringVar(&f.level, "log-level", "", "log level: debug, info, warning, error")
	fs.BoolVar(&f.noLogFile, "no-log-file", false, "do not write <output>.conversion.log")
}

// addCompileFlags adds TeX engine flags to a FlagSet.
func addCompileFlags(fs *flag.FlagSet, f *compileFlags) {
	fs.StringVar(&f.engine, "engine", "", "TeX engine: xelatex, lualatex")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-attempt compile timeout (e.g., 90s, 5m)")
	fs.BoolVar(&f.noCompile, "no-compile", false, "write the .tex file only")
	fs.BoolVar(&f.keepAux, "keep-aux", false, "keep .aux, .log and other engine files")
	fs.BoolVar(&f.shellEscape, "shell-escape", false, "pass -shell-escape to the engine")
}

// addImageFlags adds image flags to a FlagSet.
func addImageFlags(fs *flag.FlagSet, f *imageFlags) {
	fs.IntVar(&f.quality, "image-quality", 0, "JPEG quality for optimized images (1-100)")
	fs.BoolVar(&f.noOptimize, "no-optimize", false, "leave downloaded images untouched")
}

// newConvertFlagSet builds the convert FlagSet bound to f.
func newConvertFlagSet(f *convertFlags, usage io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(usage)

	fs.StringVarP(&f.input, "input", "i", "", "HTML or Markdown file, or a directory")
	fs.StringVarP(&f.output, "output", "o", "", "output .tex file or directory")
	fs.IntVarP(&f.workers, "max-workers", "w", 0, "parallel conversions (0 = from config)")
	fs.IntVar(&f.memoryLimit, "memory-limit", 0, "soft memory limit in MB (0 = from config)")
	fs.StringVar(&f.font, "font", "", "Arabic main font")
	fs.BoolVar(&f.noEmoji, "no-emoji", false, "do not download emoji images")

	addCommonFlags(fs, &f.common)
	addLogFlags(fs, &f.log)
	addCompileFlags(fs, &f.compile)
	addImageFlags(fs, &f.images)

	fs.Usage = func() { printConvertUsage(usage) }
	return fs
}

// parseConvertFlags parses convert flags and returns the positional args.
func parseConvertFlags(args []string, usage io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newConvertFlagSet(f, usage)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

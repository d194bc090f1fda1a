package html2tex

import (
	"errors"

	"github.com/alnah/go-html2tex/internal/latex"
	"github.com/alnah/go-html2tex/internal/texcompile"
)

// Sentinel errors for library operations.
var (
	ErrEmptyInput      = errors.New("input content cannot be empty")
	ErrNoOutputPath    = errors.New("output path is required")
	ErrInputTooLarge   = errors.New("input file too large")
	ErrReadInput       = errors.New("failed to read input")
	ErrWriteTex        = errors.New("failed to write tex file")
	ErrHTMLParse       = errors.New("HTML parsing failed")
	ErrHTMLConversion  = errors.New("HTML conversion failed")
	ErrInvalidQuality  = errors.New("image quality must be between 1 and 100")
	ErrInvalidAttempts = errors.New("attempt count must be positive")

	// Validation errors, raised before compilation.
	ErrMissingRTLConfig = latex.ErrMissingRTLConfig
	ErrInvalidDocument  = latex.ErrInvalidDocument

	// TeX toolchain errors.
	ErrEngineNotFound = texcompile.ErrEngineNotFound
	ErrCompileFailed  = texcompile.ErrCompileFailed
	ErrCompileTimeout = texcompile.ErrCompileTimeout
)

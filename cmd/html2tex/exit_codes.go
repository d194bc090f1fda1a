package main

import (
	"errors"
	"os"

	html2tex "github.com/alnah/go-html2tex"
	"github.com/alnah/go-html2tex/internal/config"
)

// Exit codes for the html2tex CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitTeX     = 4 // TeX engine missing, failing or timing out
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, html2tex.ErrEngineNotFound) ||
		errors.Is(err, html2tex.ErrCompileFailed) ||
		errors.Is(err, html2tex.ErrCompileTimeout) {
		return ExitTeX
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, html2tex.ErrReadInput) ||
		errors.Is(err, html2tex.ErrInputTooLarge) ||
		errors.Is(err, html2tex.ErrWriteTex) ||
		errors.Is(err, ErrOpenLogFile) {
		return ExitIO
	}

	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrConfigTooLarge) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, html2tex.ErrEmptyInput) ||
		errors.Is(err, html2tex.ErrInvalidQuality) ||
		errors.Is(err, html2tex.ErrInvalidAttempts) ||
		errors.Is(err, html2tex.ErrMissingRTLConfig) ||
		errors.Is(err, html2tex.ErrInvalidDocument) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrTooManyInputs) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrInvalidLogLevel) ||
		errors.Is(err, ErrOutputFileForDir) {
		return ExitUsage
	}

	return ExitGeneral
}

package latex

import "errors"

// Sentinel errors for LaTeX generation.
var (
	// ErrTagPanic wraps a panic recovered while converting a single tag.
	ErrTagPanic = errors.New("tag conversion panicked")

	// ErrNoImageLocalizer indicates an <img> was met without an image store.
	ErrNoImageLocalizer = errors.New("no image localizer configured")

	// ErrMissingRTLConfig indicates Arabic content without the RTL preamble.
	ErrMissingRTLConfig = errors.New("missing RTL configuration")

	// ErrInvalidDocument indicates a malformed document skeleton.
	ErrInvalidDocument = errors.New("invalid LaTeX document")
)

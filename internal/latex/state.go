package latex

// Package names tracked in State.Packages.
const (
	PkgListings    = "listings"
	PkgSoul        = "soul"
	PkgEmoji       = "emoji"
	PkgAmiri       = "amiri"
	PkgHyperref    = "hyper"
	PkgPolyglossia = "polyglossia"
	PkgAmsmath     = "amsmath"
	PkgTikz        = "tikz"
	PkgMdframed    = "mdframed"
)

// State is the bookkeeping of a single conversion run.
// It is mutated by the dispatcher and read by the assembler.
// A State must not be shared between concurrent conversions.
type State struct {
	// ListDepth is the current list nesting level.
	ListDepth int

	// Packages records which optional packages the body needs.
	// Entries only ever flip from false to true during a run.
	Packages map[string]bool

	// ImageCache maps an image source (URL or path) to its local copy.
	ImageCache map[string]string

	// ImagePaths lists localized images in the order they were first seen.
	ImagePaths []string

	// imageErrors holds the failure of each source that could not be
	// localized, so it is not attempted again.
	imageErrors map[string]error
}

// NewState returns a State seeded with the default package flags.
func NewState() *State {
	return &State{
		Packages: map[string]bool{
			PkgListings:    false,
			PkgSoul:        false,
			PkgEmoji:       false,
			PkgAmiri:       false,
			PkgHyperref:    true,
			PkgPolyglossia: true,
			PkgAmsmath:     false,
			PkgTikz:        false,
			PkgMdframed:    false,
		},
		ImageCache:  make(map[string]string),
		imageErrors: make(map[string]error),
	}
}

// Require marks a package as needed.
func (s *State) Require(pkg string) {
	s.Packages[pkg] = true
}

// Requires reports whether a package has been marked as needed.
func (s *State) Requires(pkg string) bool {
	return s.Packages[pkg]
}

// rememberImage records a localized image for src.
func (s *State) rememberImage(src, path string) {
	s.ImageCache[src] = path
	s.ImagePaths = append(s.ImagePaths, path)
}

// rememberImageError records that src could not be localized.
func (s *State) rememberImageError(src string, err error) {
	if s.imageErrors == nil {
		s.imageErrors = make(map[string]error)
	}
	s.imageErrors[src] = err
}

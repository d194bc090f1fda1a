package texcompile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// AuxExtensions are the engine by-products removed by Cleanup.
var AuxExtensions = []string{".aux", ".log", ".toc", ".out", ".bbl", ".blg"}

// Cleanup removes the auxiliary files of texPath's job from dir and returns
// how many were deleted. Missing files are not an error.
func Cleanup(dir, texPath string) (int, error) {
	stem := strings.TrimSuffix(filepath.Base(texPath), filepath.Ext(texPath))

	var errs []error
	removed := 0
	for _, ext := range AuxExtensions {
		err := os.Remove(filepath.Join(dir, stem+ext))
		switch {
		case err == nil:
			removed++
		case errors.Is(err, fs.ErrNotExist):
		default:
			errs = append(errs, err)
		}
	}
	return removed, errors.Join(errs...)
}

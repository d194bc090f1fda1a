package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-html2tex/internal/fileutil"
)

// Sentinel errors for file discovery.
var (
	ErrNoInput          = errors.New("no input specified")
	ErrTooManyInputs    = errors.New("only one input file or directory is accepted")
	ErrInvalidExtension = errors.New("file must have .html, .htm, .md or .markdown extension")
	ErrOutputFileForDir = errors.New("output must be a directory when the input is a directory")
)

// inputExtensions are the file types the converter accepts.
var inputExtensions = []string{".html", ".htm", ".md", ".markdown"}

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string // .tex
}

// resolveInputPath picks --input, else the single positional argument.
func resolveInputPath(flagInput string, args []string) (string, error) {
	if flagInput != "" {
		if len(args) > 0 {
			return "", fmt.Errorf("%w: --input %q and argument %q", ErrTooManyInputs, flagInput, args[0])
		}
		return flagInput, nil
	}
	switch len(args) {
	case 0:
		return "", ErrNoInput
	case 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("%w: got %d", ErrTooManyInputs, len(args))
	}
}

// discoverFiles lists the files to convert under inputPath. A directory is
// walked recursively and unsupported files are skipped.
func discoverFiles(inputPath, output string) ([]FileToConvert, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if !fileutil.HasExt(inputPath, inputExtensions...) {
			return nil, fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(inputPath))
		}
		return []FileToConvert{{InputPath: inputPath, OutputPath: resolveOutputPath(inputPath, output, "")}}, nil
	}

	if isTexFile(output) {
		return nil, fmt.Errorf("%w: %s", ErrOutputFileForDir, output)
	}

	var files []FileToConvert
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || !fileutil.HasExt(path, inputExtensions...) {
			return nil
		}
		files = append(files, FileToConvert{InputPath: path, OutputPath: resolveOutputPath(path, output, inputPath)})
		return nil
	})

	return files, err
}

// resolveOutputPath determines the .tex path for an input file. An empty
// output writes beside the input; a directory output keeps the layout
// relative to baseInputDir.
func resolveOutputPath(inputPath, output, baseInputDir string) string {
	base := filepath.Base(fileutil.ReplaceExt(inputPath, ".tex"))

	if output == "" {
		return filepath.Join(filepath.Dir(inputPath), base)
	}
	if isTexFile(output) {
		return output
	}

	if baseInputDir != "" {
		if rel, err := filepath.Rel(baseInputDir, inputPath); err == nil {
			return filepath.Join(output, filepath.Dir(rel), base)
		}
	}
	return filepath.Join(output, base)
}

func isTexFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".tex")
}

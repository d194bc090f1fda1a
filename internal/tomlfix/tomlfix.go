// Package tomlfix normalizes Python project TOML files: it fills in the
// ruff and black defaults, merges per-file lint ignores, deduplicates arrays
// and rewrites the file with sorted keys.
package tomlfix

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/alnah/go-html2tex/internal/fileutil"
)

// BackupLayout is the UTC timestamp appended to backup file stems.
const BackupLayout = "20060102150405"

// Sentinel errors for TOML fixing.
var (
	ErrEmptyFile     = errors.New("no content to parse")
	ErrInvalidSyntax = errors.New("invalid TOML syntax")
	ErrInvalidOutput = errors.New("generated invalid TOML")
)

// Result describes what FixFile did.
type Result struct {
	Changed bool
	Backup  string // empty when unchanged
}

// ruffDefaults and blackDefaults are added only where the key is absent.
func ruffDefaults() map[string]any {
	return map[string]any{
		"line-length":    int64(88),
		"target-version": "py312",
		"select":         []any{"ALL"},
		"ignore":         []any{"D203", "D212", "PLR0913"},
	}
}

func blackDefaults() map[string]any {
	return map[string]any{
		"line-length":    int64(88),
		"preview":        true,
		"target-version": []any{"py312"},
	}
}

// requiredIgnores are merged into tool.ruff.per-file-ignores.
var requiredIgnores = map[string][]string{
	"tests/*":      {"S101", "D"},
	"migrations/*": {"F401"},
}

// FixFile rewrites path in place when normalization changes it, after
// copying the original to BackupPath(path, now).
func FixFile(path string, now time.Time) (Result, error) {
	src, err := os.ReadFile(path) // #nosec G304 -- path is user-provided
	if err != nil {
		return Result{}, fmt.Errorf("file read error: %w", err)
	}

	fixed, err := Fix(src)
	if err != nil {
		return Result{}, err
	}
	if bytes.Equal(fixed, src) {
		return Result{}, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("stat %s: %w", path, err)
	}

	backup := BackupPath(path, now)
	if err := fileutil.CopyFile(path, backup); err != nil {
		return Result{}, fmt.Errorf("creating backup: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, fixed, info.Mode().Perm()); err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", path, err)
	}
	return Result{Changed: true, Backup: backup}, nil
}

// BackupPath returns <dir>/<stem>_<YYYYmmddHHMMSS><ext> with now in UTC.
func BackupPath(path string, now time.Time) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	return filepath.Join(filepath.Dir(path), stem+"_"+now.UTC().Format(BackupLayout)+ext)
}

// Fix parses src, applies every normalization and returns the encoded
// document. The output always ends with a single newline and parses back.
func Fix(src []byte) ([]byte, error) {
	if len(bytes.TrimSpace(src)) == 0 {
		return nil, ErrEmptyFile
	}

	doc := make(map[string]any)
	if _, err := toml.Decode(string(src), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSyntax, err)
	}

	Normalize(doc)

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	out := append(bytes.TrimSpace(buf.Bytes()), '\n')

	var check map[string]any
	if _, err := toml.Decode(string(out), &check); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return out, nil
}

// Normalize applies the defaults, merges per-file ignores and deduplicates
// arrays, mutating doc. Key order is left to the encoder, which sorts.
func Normalize(doc map[string]any) {
	ruff := ensureTable(doc, "tool", "ruff")
	addMissing(ruff, ruffDefaults())
	black := ensureTable(doc, "tool", "black")
	addMissing(black, blackDefaults())

	mergePerFileIgnores(ruff)

	for k, v := range doc {
		doc[k] = dedupe(v)
	}
}

// ensureTable walks path from root, replacing any non-table value on the way.
func ensureTable(root map[string]any, path ...string) map[string]any {
	cur := root
	for _, key := range path {
		next, ok := cur[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[key] = next
		}
		cur = next
	}
	return cur
}

func addMissing(t, defaults map[string]any) {
	for k, v := range defaults {
		if _, ok := t[k]; !ok {
			t[k] = v
		}
	}
}

// mergePerFileIgnores folds requiredIgnores into ruff's per-file-ignores as
// sorted unions. An array-of-tables layout is flattened into one table.
func mergePerFileIgnores(ruff map[string]any) {
	ignores := make(map[string]any)
	switch v := ruff["per-file-ignores"].(type) {
	case map[string]any:
		ignores = v
	case []map[string]any:
		for _, entry := range v {
			for pattern, rules := range entry {
				ignores[pattern] = union(stringsOf(ignores[pattern]), stringsOf(rules))
			}
		}
	}

	for pattern, rules := range requiredIgnores {
		existing := stringsOf(ignores[pattern])
		merged := union(existing, rules)
		if !slices.Equal(existing, merged) {
			ignores[pattern] = toAny(merged)
		}
	}
	for pattern, rules := range ignores {
		if s, ok := rules.([]string); ok {
			ignores[pattern] = toAny(s)
		}
	}
	ruff["per-file-ignores"] = ignores
}

// dedupe removes repeated array elements recursively, keeping first
// occurrences in order.
func dedupe(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = dedupe(e)
		}
		return x
	case []map[string]any:
		seen := make(map[string]bool, len(x))
		out := make([]map[string]any, 0, len(x))
		for _, e := range x {
			e = dedupe(e).(map[string]any)
			key := fmt.Sprintf("%#v", e)
			if !seen[key] {
				seen[key] = true
				out = append(out, e)
			}
		}
		return out
	case []any:
		seen := make(map[string]bool, len(x))
		out := make([]any, 0, len(x))
		for _, e := range x {
			e = dedupe(e)
			key := fmt.Sprintf("%#v", e)
			if !seen[key] {
				seen[key] = true
				out = append(out, e)
			}
		}
		return out
	default:
		return v
	}
}

// stringsOf extracts the string elements of a decoded TOML array.
func stringsOf(v any) []string {
	switch x := v.(type) {
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func union(a, b []string) []string {
	out := slices.Concat(a, b)
	slices.Sort(out)
	return slices.Compact(out)
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

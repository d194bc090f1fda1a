package tomlfix

// Notes:
// - Output layout (table headers, quoting) belongs to the encoder; tests
//   decode the result and assert on values, plus a few stable substrings
// - Fix is run twice to check it reaches a fixed point

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()
	doc := make(map[string]any)
	if _, err := toml.Decode(string(data), &doc); err != nil {
		t.Fatalf("output does not parse: %v\n%s", err, data)
	}
	return doc
}

func table(t *testing.T, doc map[string]any, path ...string) map[string]any {
	t.Helper()
	cur := doc
	for _, k := range path {
		next, ok := cur[k].(map[string]any)
		if !ok {
			t.Fatalf("missing table %s", strings.Join(path, "."))
		}
		cur = next
	}
	return cur
}

// ---------------------------------------------------------------------------
// TestFix - Defaults
// ---------------------------------------------------------------------------

func TestFix_AddsDefaults(t *testing.T) {
	t.Parallel()

	out, err := Fix([]byte("[project]\nname = \"demo\"\n"))
	if err != nil {
		t.Fatalf("Fix() error = %v", err)
	}
	doc := decode(t, out)

	ruff := table(t, doc, "tool", "ruff")
	if ruff["line-length"] != int64(88) {
		t.Errorf("ruff line-length = %v", ruff["line-length"])
	}
	if ruff["target-version"] != "py312" {
		t.Errorf("ruff target-version = %v", ruff["target-version"])
	}
	if got := stringsOf(ruff["ignore"]); !slices.Equal(got, []string{"D203", "D212", "PLR0913"}) {
		t.Errorf("ruff ignore = %v", got)
	}

	black := table(t, doc, "tool", "black")
	if black["preview"] != true {
		t.Errorf("black preview = %v", black["preview"])
	}
	if got := stringsOf(black["target-version"]); !slices.Equal(got, []string{"py312"}) {
		t.Errorf("black target-version = %v", got)
	}

	if table(t, doc, "project")["name"] != "demo" {
		t.Error("unrelated keys must survive")
	}
	if !strings.HasSuffix(string(out), "\n") || strings.HasSuffix(string(out), "\n\n") {
		t.Errorf("output should end with exactly one newline: %q", out)
	}
}

func TestFix_KeepsExistingValues(t *testing.T) {
	t.Parallel()

	src := "[tool.ruff]\nline-length = 120\n\n[tool.black]\npreview = false\n"
	out, err := Fix([]byte(src))
	if err != nil {
		t.Fatalf("Fix() error = %v", err)
	}
	doc := decode(t, out)

	if got := table(t, doc, "tool", "ruff")["line-length"]; got != int64(120) {
		t.Errorf("ruff line-length = %v, want 120", got)
	}
	if got := table(t, doc, "tool", "black")["preview"]; got != false {
		t.Errorf("black preview = %v, want false", got)
	}
}

func TestFix_ReplacesNonTableSection(t *testing.T) {
	t.Parallel()

	out, err := Fix([]byte("tool = \"oops\"\n"))
	if err != nil {
		t.Fatalf("Fix() error = %v", err)
	}
	table(t, decode(t, out), "tool", "ruff")
}

// ---------------------------------------------------------------------------
// TestFix - Per-file ignores and arrays
// ---------------------------------------------------------------------------

func TestFix_MergesPerFileIgnores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{
			name: "table form",
			src:  "[tool.ruff.per-file-ignores]\n\"tests/*\" = [\"E501\", \"S101\"]\n\"docs/*\" = [\"D\"]\n",
		},
		{
			name: "array of tables form",
			src:  "[[tool.ruff.per-file-ignores]]\n\"tests/*\" = [\"E501\", \"S101\"]\n\n[[tool.ruff.per-file-ignores]]\n\"docs/*\" = [\"D\"]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := Fix([]byte(tt.src))
			if err != nil {
				t.Fatalf("Fix() error = %v", err)
			}
			ignores := table(t, decode(t, out), "tool", "ruff", "per-file-ignores")

			if got := stringsOf(ignores["tests/*"]); !slices.Equal(got, []string{"D", "E501", "S101"}) {
				t.Errorf("tests/* = %v", got)
			}
			if got := stringsOf(ignores["migrations/*"]); !slices.Equal(got, []string{"F401"}) {
				t.Errorf("migrations/* = %v", got)
			}
			if got := stringsOf(ignores["docs/*"]); !slices.Equal(got, []string{"D"}) {
				t.Errorf("docs/* = %v", got)
			}
		})
	}
}

func TestFix_DedupesArrays(t *testing.T) {
	t.Parallel()

	src := "[tool.ruff]\nselect = [\"E\", \"F\", \"E\"]\n\n[project]\ndeps = [\"a\", \"b\", \"a\", \"c\"]\n"
	out, err := Fix([]byte(src))
	if err != nil {
		t.Fatalf("Fix() error = %v", err)
	}
	doc := decode(t, out)

	if got := stringsOf(table(t, doc, "tool", "ruff")["select"]); !slices.Equal(got, []string{"E", "F"}) {
		t.Errorf("select = %v", got)
	}
	if got := stringsOf(table(t, doc, "project")["deps"]); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("deps = %v (order of first occurrence must be kept)", got)
	}
}

func TestFix_Idempotent(t *testing.T) {
	t.Parallel()

	first, err := Fix([]byte("[project]\nname = \"demo\"\nversion = \"1.0\"\n"))
	if err != nil {
		t.Fatalf("Fix() error = %v", err)
	}
	second, err := Fix(first)
	if err != nil {
		t.Fatalf("Fix() second pass error = %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("Fix is not idempotent:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

// ---------------------------------------------------------------------------
// TestFix - Errors
// ---------------------------------------------------------------------------

func TestFix_Errors(t *testing.T) {
	t.Parallel()

	if _, err := Fix([]byte("  \n")); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("Fix(empty) error = %v, want ErrEmptyFile", err)
	}
	if _, err := Fix([]byte("[tool\nx = ")); !errors.Is(err, ErrInvalidSyntax) {
		t.Errorf("Fix(invalid) error = %v, want ErrInvalidSyntax", err)
	}
}

// ---------------------------------------------------------------------------
// TestFixFile / TestBackupPath
// ---------------------------------------------------------------------------

func TestBackupPath(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("X", 3*3600))
	got := BackupPath(filepath.Join("dir", "pyproject.toml"), now)
	want := filepath.Join("dir", "pyproject_20260304020607.toml")
	if got != want {
		t.Errorf("BackupPath() = %q, want %q", got, want)
	}
}

func TestFixFile(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("changed", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "pyproject.toml")
		orig := "[project]\nname = \"demo\"\n"
		if err := os.WriteFile(path, []byte(orig), 0o644); err != nil {
			t.Fatal(err)
		}

		res, err := FixFile(path, now)
		if err != nil {
			t.Fatalf("FixFile() error = %v", err)
		}
		if !res.Changed || res.Backup != filepath.Join(dir, "pyproject_20260102030405.toml") {
			t.Errorf("FixFile() = %+v", res)
		}

		backup, err := os.ReadFile(res.Backup)
		if err != nil || string(backup) != orig {
			t.Errorf("backup = %q, %v; want original content", backup, err)
		}
		data, _ := os.ReadFile(path)
		if !strings.Contains(string(data), "py312") {
			t.Errorf("file not rewritten:\n%s", data)
		}
	})

	t.Run("unchanged", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "pyproject.toml")
		fixed, err := Fix([]byte("[project]\nname = \"demo\"\n"))
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, fixed, 0o644); err != nil {
			t.Fatal(err)
		}

		res, err := FixFile(path, now)
		if err != nil {
			t.Fatalf("FixFile() error = %v", err)
		}
		if res.Changed || res.Backup != "" {
			t.Errorf("FixFile() = %+v, want unchanged", res)
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 1 {
			t.Errorf("unexpected files written: %d entries", len(entries))
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		if _, err := FixFile(filepath.Join(t.TempDir(), "none.toml"), now); err == nil {
			t.Error("FixFile() on missing file should fail")
		}
	})
}

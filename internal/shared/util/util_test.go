package util

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestSlashPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Empty", input: "", expected: ""},
		{name: "Dot", input: ".", expected: ""},
		{name: "Trim", input: "  ./gen/x.d  ", expected: "gen/x.d"},
		{name: "Backslashes", input: `gen\deep\x.d`, expected: "gen/deep/x.d"},
		{name: "Relative", input: "src/../gen/x.d", expected: "gen/x.d"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := slashPath(tc.input); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.dot")

	if err := WriteFileAtomic(path, []byte("first"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0o644); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("expected %q, got %q", "second", string(got))
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the target file, found %d entries", len(entries))
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o644 {
			t.Fatalf("expected mode 0644, got %v", info.Mode().Perm())
		}
	}
}

func TestWriteFileAtomic_KeepsOldContentOnFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "taken")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(target, []byte("x"), 0o644); err == nil {
		t.Fatal("expected renaming over a directory to fail")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		t.Fatalf("expected the temp file to be cleaned up, found %v", entries)
	}
}

func TestPathFilter(t *testing.T) {
	t.Parallel()

	f, err := NewPathFilter([]string{".d", ".DI"}, []string{".git", "build*"}, []string{"*_test.d", "gen/**"})
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name     string
		path     string
		expected bool
	}{
		{name: "Source", path: "src/app.d", expected: true},
		{name: "InterfaceUpperCase", path: "src/app.DI", expected: true},
		{name: "OtherExtension", path: "src/app.c", expected: false},
		{name: "ExcludedBase", path: "src/app_test.d", expected: false},
		{name: "ExcludedPath", path: "gen/deep/x.d", expected: false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := f.Source(tc.path); got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}

	if !f.SkipDir("/repo/.git") || !f.SkipDir("build-debug") || f.SkipDir("src") {
		t.Fatal("unexpected directory exclusion result")
	}
	if !f.Excluded("x_test.d") {
		t.Fatal("expected explicit exclusion to ignore extension rules")
	}
}

func TestPathFilter_InvalidPattern(t *testing.T) {
	t.Parallel()

	if _, err := NewPathFilter(nil, []string{"["}, nil); err == nil {
		t.Fatal("expected invalid glob error")
	}
}

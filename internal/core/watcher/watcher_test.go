package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"duml/internal/shared/util"
)

func sourceFilter(t *testing.T) *util.PathFilter {
	t.Helper()
	f, err := util.NewPathFilter([]string{".d", ".di"}, []string{"exclude_dir"}, []string{"*_test.d"})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func waitFor(t *testing.T, changes <-chan []string, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case paths := <-changes:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change of %s", want)
		}
	}
}

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, sourceFilter(t), nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, sourceFilter(t), func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "shapes.d")
	if err := os.WriteFile(testFile, []byte("module shapes;"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, testFile, 2*time.Second)

	// Neither other extensions nor excluded names trigger a change.
	for _, name := range []string{"notes.txt", "shapes_test.d"} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case paths := <-changedFiles:
		t.Errorf("unexpected change for filtered files: %v", paths)
	case <-time.After(400 * time.Millisecond):
	}

	// New directory should be recursively watched after create.
	subdir := filepath.Join(tmpDir, "newdir")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	subFile := filepath.Join(subdir, "nested.d")
	if err := os.WriteFile(subFile, []byte("module nested;"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, subFile, 2*time.Second)
}

func TestWatcher_IdenticalContentIgnored(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "app.d")
	content := []byte("module app;\nclass A {}\n")
	if err := os.WriteFile(testFile, content, 0o644); err != nil {
		t.Fatal(err)
	}

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(50*time.Millisecond, sourceFilter(t), func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(testFile, content, 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changedFiles:
		t.Fatalf("received unexpected change for identical content: %v", paths)
	case <-time.After(300 * time.Millisecond):
	}

	if err := os.WriteFile(testFile, []byte("module app;\nclass B {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, testFile, 2*time.Second)
}

func TestWatcher_ExplicitFile(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "main.d")
	other := filepath.Join(tmpDir, "other.d")
	if err := os.WriteFile(target, []byte("module main;"), 0o644); err != nil {
		t.Fatal(err)
	}

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(50*time.Millisecond, sourceFilter(t), func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch([]string{target}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(other, []byte("module other;"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changedFiles:
		t.Fatalf("sibling of an explicit file should be ignored, got %v", paths)
	case <-time.After(300 * time.Millisecond):
	}

	if err := os.WriteFile(target, []byte("module main2;"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, target, 2*time.Second)
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, sourceFilter(t), func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	oldPath := filepath.Join(tmpDir, "old.d")
	newPath := filepath.Join(tmpDir, "new.d")
	if err := os.WriteFile(oldPath, []byte("module old;"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == oldPath || p == newPath {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for rename event, old=%s new=%s", oldPath, newPath)
		}
	}
}

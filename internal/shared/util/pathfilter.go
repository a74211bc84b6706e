package util

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// PathFilter decides which directories are descended into and which files
// count as sources. Directory patterns match the base name; file patterns
// match either the base name or the slash separated path.
type PathFilter struct {
	extensions map[string]bool
	dirs       []glob.Glob
	files      []glob.Glob
}

func NewPathFilter(extensions, excludeDirs, excludeFiles []string) (*PathFilter, error) {
	f := &PathFilter{extensions: make(map[string]bool, len(extensions))}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" {
			f.extensions[ext] = true
		}
	}
	for _, p := range excludeDirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}
		f.dirs = append(f.dirs, g)
	}
	for _, p := range excludeFiles {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, err
		}
		f.files = append(f.files, g)
	}
	return f, nil
}

// SkipDir reports whether a directory is excluded.
func (f *PathFilter) SkipDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range f.dirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// Excluded reports whether a file matches an exclude pattern, regardless of
// its extension.
func (f *PathFilter) Excluded(path string) bool {
	base := filepath.Base(path)
	norm := slashPath(path)
	for _, g := range f.files {
		if g.Match(base) || g.Match(norm) {
			return true
		}
	}
	return false
}

// Source reports whether a file found while walking a directory should be
// scanned.
func (f *PathFilter) Source(path string) bool {
	if len(f.extensions) > 0 && !f.extensions[strings.ToLower(filepath.Ext(path))] {
		return false
	}
	return !f.Excluded(path)
}

// slashPath turns p into the relative slash form file patterns are written
// in. "." becomes "".
func slashPath(p string) string {
	p = path.Clean(strings.ReplaceAll(strings.TrimSpace(p), "\\", "/"))
	if p == "." {
		return ""
	}
	return strings.TrimPrefix(p, "./")
}

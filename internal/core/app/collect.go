package app

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	errs "duml/internal/core/errors"
)

// CollectFiles expands directories to the source files below them and keeps
// named files as given. Paths that do not exist are returned in missing and
// left out of files. The result follows the input order; files found in a
// directory are in lexical order.
func (a *App) CollectFiles(paths []string) (files, missing []string, err error) {
	seen := make(map[string]bool)
	add := func(p string) {
		clean := filepath.Clean(p)
		if !seen[clean] {
			seen[clean] = true
			files = append(files, clean)
		}
	}

	for _, root := range paths {
		info, statErr := os.Stat(root)
		if statErr != nil {
			if os.IsNotExist(statErr) {
				missing = append(missing, root)
				slog.Warn("input not found", "path", root,
					"error", errs.AddContext(errs.Wrap(statErr, errs.CodeNotFound, "input not found"), errs.CtxPath, root))
				continue
			}
			return nil, nil, errs.AddContext(errs.Wrap(statErr, errs.CodeInternal, "stat input"), errs.CtxPath, root)
		}

		if !info.IsDir() {
			if a.filter.Excluded(root) {
				slog.Debug("input excluded", "path", root)
				continue
			}
			add(root)
			continue
		}

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && a.filter.SkipDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if a.filter.Source(path) {
				add(path)
			}
			return nil
		})
		if walkErr != nil {
			return nil, nil, errs.AddContext(errs.Wrap(walkErr, errs.CodeInternal, "walk input directory"), errs.CtxPath, root)
		}
	}
	return files, missing, nil
}

// Package app ties collection, scanning, graph building, rendering,
// persistence and watch mode together.
package app

import (
	"context"
	"io"
	"sync"

	"duml/internal/core/config"
	errs "duml/internal/core/errors"
	"duml/internal/data/store"
	"duml/internal/engine/graph"
	"duml/internal/engine/model"
	"duml/internal/engine/scanner"
	"duml/internal/output"
	"duml/internal/shared/util"
)

// Options are the runtime settings that do not come from the config file.
type Options struct {
	// BaseDir anchors relative config paths, normally the config file's
	// directory or the working directory.
	BaseDir string
	// PrintFiles receives each file name before it is scanned when set.
	PrintFiles io.Writer
	// Targets are rendered by GenerateOutputs next to the configured
	// outputs, so watch rebuilds refresh them too.
	Targets []Target
}

// Target is one format rendered to Path, or to Writer when Path is empty.
type Target struct {
	Format output.Format
	Path   string
	Writer io.Writer
}

type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths

	scanner *scanner.Scanner
	filter  *util.PathFilter
	draw    output.DrawOptions
	store   *store.Store
	opts    Options

	mu   sync.RWMutex
	last *BuildResult

	updateMu sync.RWMutex
	onUpdate func(*BuildResult)
}

func New(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errs.New(errs.CodeValidationError, "config is required")
	}
	if opts.BaseDir == "" {
		opts.BaseDir = "."
	}

	filter, err := util.NewPathFilter(cfg.Extensions, cfg.Exclude.Dirs, cfg.Exclude.Files)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeValidationError, "invalid exclude pattern")
	}
	draw, err := output.ParseDrawOptions(cfg.Draw.Options)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Paths:   config.ResolvePaths(cfg, opts.BaseDir),
		scanner: scanner.New(cfg.Keywords.Scanner()),
		filter:  filter,
		draw:    draw,
		opts:    opts,
	}

	if cfg.DB.Enabled {
		st, err := store.Open(a.Paths.DBPath, cfg.DB.BusyTimeout)
		if err != nil {
			return nil, err
		}
		a.store = st
	}
	return a, nil
}

func (a *App) Close(ctx context.Context) error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// Store is the declaration store, nil when persistence is disabled.
func (a *App) Store() *store.Store { return a.store }

// Last returns the most recent successful build, or nil.
func (a *App) Last() *BuildResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Tree and Graph of the last build; both are nil before the first build.
func (a *App) Tree() *model.Tree {
	if r := a.Last(); r != nil {
		return r.Tree
	}
	return nil
}

func (a *App) Graph() *graph.Graph {
	if r := a.Last(); r != nil {
		return r.Graph
	}
	return nil
}

func (a *App) SetUpdateHandler(handler func(*BuildResult)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

func (a *App) emitUpdate(r *BuildResult) {
	a.updateMu.RLock()
	handler := a.onUpdate
	a.updateMu.RUnlock()
	if handler != nil {
		handler(r)
	}
}

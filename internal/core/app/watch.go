package app

import (
	"context"
	"log/slog"
	"os"

	"duml/internal/core/watcher"
	"duml/internal/shared/observability"
	"duml/internal/shared/util"
)

// Watch rebuilds and regenerates outputs whenever a source below paths
// changes, until ctx is done. Rebuilds are throttled to the configured rate.
func (a *App) Watch(ctx context.Context, paths []string) error {
	limiter := util.NewLimiter(a.Config.Watch.MaxRebuildsPerSecond, 1)

	w, err := watcher.NewWatcher(a.Config.Watch.Debounce, a.filter, func(changed []string) {
		a.HandleChanges(ctx, limiter, paths, changed)
	})
	if err != nil {
		return err
	}
	defer w.Close()

	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			slog.Warn("not watching missing path", "path", p)
			continue
		}
		existing = append(existing, p)
	}
	if err := w.Watch(existing); err != nil {
		return err
	}
	slog.Info("watching for changes", "paths", existing, "debounce", a.Config.Watch.Debounce)

	<-ctx.Done()
	return nil
}

// HandleChanges performs one full rebuild for a batch of changed files.
func (a *App) HandleChanges(ctx context.Context, limiter *util.Limiter, paths, changed []string) {
	slog.Info("sources changed", "files", changed)

	if limiter.Delay() > 0 {
		observability.RebuildsTotal.WithLabelValues("throttled").Inc()
	}
	if err := limiter.Wait(ctx); err != nil {
		return
	}

	if _, err := a.Build(ctx, paths); err != nil {
		observability.RebuildsTotal.WithLabelValues("failed").Inc()
		slog.Error("rebuild failed", "error", err)
		return
	}
	if _, err := a.GenerateOutputs(ctx); err != nil {
		slog.Error("output generation failed", "error", err)
	}
	observability.RebuildsTotal.WithLabelValues("ok").Inc()
}

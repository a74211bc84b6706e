package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	errs "duml/internal/core/errors"
	"duml/internal/data/store"
	"duml/internal/engine/graph"
	"duml/internal/engine/model"
	"duml/internal/engine/scanner"
	"duml/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// FileError is a file that could not be read or was abandoned by the
// scanner. Its declarations are not in the tree.
type FileError struct {
	File string
	Err  error
}

// BuildResult is the outcome of one complete build.
type BuildResult struct {
	Files       []string
	Missing     []string
	Failed      []FileError
	Diagnostics []scanner.Diagnostic
	Tree        *model.Tree
	Graph       *graph.Graph
	Cycles      [][]string
	// Scan is the stored record, zero when persistence is disabled.
	Scan     store.ScanRecord
	Duration time.Duration
}

// Build collects, reads and scans the given paths into a fresh tree, derives
// the graph and makes the result current. Individual file failures are
// logged and reported in the result; only collection and storage problems
// fail the build.
func (a *App) Build(ctx context.Context, paths []string) (*BuildResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Build", trace.WithAttributes(attribute.Int("paths", len(paths))))
	defer span.End()
	start := time.Now()

	files, missing, err := a.CollectFiles(paths)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("files", len(files)), attribute.Int("missing", len(missing)))

	sources, readErrs, err := readSources(ctx, files)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	res := &BuildResult{
		Files:   files,
		Missing: missing,
		Tree:    model.NewTree(),
	}
	for i, file := range files {
		if readErrs[i] != nil {
			res.Failed = append(res.Failed, FileError{File: file, Err: readErrs[i]})
			observability.FilesScannedTotal.WithLabelValues("failed").Inc()
			slog.Warn("failed to read file", "file", file, "error", readErrs[i])
			continue
		}
		a.scanFile(ctx, res, file, sources[i])
	}

	res.Graph = graph.Build(res.Tree, a.scanner.Keywords().PrimitiveTypes)
	res.Cycles = res.Graph.DetectCycles()
	for _, amb := range res.Graph.Ambiguities() {
		slog.Debug("ambiguous type reference", "kind", amb.Kind, "from", model.QualifiedName(amb.From),
			"name", amb.Name, "candidates", model.QualifiedNames(amb.Candidates))
	}

	if a.store != nil {
		rec, err := a.store.SaveScan(ctx, store.ScanInput{
			Tree:        res.Tree,
			Graph:       res.Graph,
			Files:       files,
			Diagnostics: res.Diagnostics,
		})
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		res.Scan = rec

		if keep := a.Config.DB.Keep; keep > 0 {
			removed, err := a.store.Prune(ctx, keep)
			if err != nil {
				slog.Warn("failed to prune stored scans", "keep", keep, "error", err)
			} else if removed > 0 {
				slog.Debug("pruned stored scans", "removed", removed, "keep", keep)
			}
		}
	}

	res.Duration = time.Since(start)
	recordBuildMetrics(res)

	a.mu.Lock()
	a.last = res
	a.mu.Unlock()

	stats := res.Tree.Stats()
	slog.Info("build complete",
		"files", len(files),
		"failed", len(res.Failed),
		"missing", len(missing),
		"modules", stats.Modules,
		"types", stats.Classes+stats.Enums+stats.Unions,
		"diagnostics", len(res.Diagnostics),
		"cycles", len(res.Cycles),
		"duration", res.Duration,
	)
	a.emitUpdate(res)
	return res, nil
}

func (a *App) scanFile(ctx context.Context, res *BuildResult, file, src string) {
	_, span := observability.Tracer.Start(ctx, "scanner.Scan", trace.WithAttributes(attribute.String("file", file)))
	defer span.End()

	if a.opts.PrintFiles != nil {
		fmt.Fprintln(a.opts.PrintFiles, file)
	}

	start := time.Now()
	result, err := a.scanner.Scan(res.Tree, file, src)
	observability.ScanDuration.Observe(time.Since(start).Seconds())

	if result != nil {
		for _, d := range result.Diagnostics {
			observability.DiagnosticsTotal.WithLabelValues(string(d.Kind)).Inc()
			slog.Warn("scan diagnostic", "file", d.File, "line", d.Line, "kind", d.Kind, "snippet", d.Snippet)
		}
		res.Diagnostics = append(res.Diagnostics, result.Diagnostics...)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		res.Failed = append(res.Failed, FileError{File: file, Err: err})
		observability.FilesScannedTotal.WithLabelValues("failed").Inc()
		slog.Error("file skipped", "file", file, "error", err)
		return
	}
	observability.FilesScannedTotal.WithLabelValues("ok").Inc()
}

// readSources reads all files concurrently. Per-file read failures are
// returned by index; only cancellation aborts.
func readSources(ctx context.Context, files []string) ([]string, []error, error) {
	sources := make([]string, len(files))
	readErrs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(file)
			if err != nil {
				readErrs[i] = errs.AddContext(errs.Wrap(err, errs.CodeInternal, "read source"), errs.CtxFile, file)
				return nil
			}
			sources[i] = string(data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return sources, readErrs, nil
}

func recordBuildMetrics(res *BuildResult) {
	stats := res.Tree.Stats()
	observability.TreeModules.Set(float64(stats.Modules))
	observability.TreeTypes.Set(float64(stats.Classes + stats.Enums + stats.Unions))
	observability.GraphEdges.WithLabelValues(string(graph.EdgeInheritance)).Set(float64(len(res.Graph.Edges(graph.EdgeInheritance))))
	observability.GraphEdges.WithLabelValues(string(graph.EdgeComposition)).Set(float64(len(res.Graph.Edges(graph.EdgeComposition))))
	observability.GraphEdges.WithLabelValues("import").Set(float64(len(res.Graph.ImportEdges())))
	observability.ImportCycles.Set(float64(len(res.Cycles)))
	observability.AnalysisDuration.WithLabelValues("build").Observe(res.Duration.Seconds())

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	observability.HeapAllocMB.Set(float64(m.Alloc) / 1024 / 1024)
}

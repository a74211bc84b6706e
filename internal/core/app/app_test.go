package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"duml/internal/core/config"
	errs "duml/internal/core/errors"
	"duml/internal/engine/graph"
	"duml/internal/engine/scanner"
	"duml/internal/output"
	"duml/internal/shared/util"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newApp(t *testing.T, cfg *config.Config, opts Options) *App {
	t.Helper()
	a, err := New(cfg, opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "b.d"), "module b;")
	writeFile(t, filepath.Join(dir, "src", "a.di"), "module a;")
	writeFile(t, filepath.Join(dir, "src", "notes.txt"), "")
	writeFile(t, filepath.Join(dir, "src", "a_test.d"), "module t;")
	writeFile(t, filepath.Join(dir, "src", ".git", "hook.d"), "module h;")
	writeFile(t, filepath.Join(dir, "extra.inc"), "module extra;")

	cfg := config.DefaultConfig()
	cfg.Exclude.Files = []string{"*_test.d"}
	a := newApp(t, cfg, Options{BaseDir: dir})

	missingPath := filepath.Join(dir, "missing.d")
	files, missing, err := a.CollectFiles([]string{
		filepath.Join(dir, "extra.inc"),
		filepath.Join(dir, "src"),
		missingPath,
		filepath.Join(dir, "src", "b.d"),
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		filepath.Join(dir, "extra.inc"),
		filepath.Join(dir, "src", "a.di"),
		filepath.Join(dir, "src", "b.d"),
	}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("expected %v, got %v", want, files)
	}
	if len(missing) != 1 || missing[0] != missingPath {
		t.Errorf("expected %s to be reported missing, got %v", missingPath, missing)
	}
}

func TestBuildAndOutputs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "shapes.d"), `
module shapes;
import util;
class Shape { double area(); }
class Circle : Shape { Point center; }
struct Point { int x; }
return 0;
`)
	writeFile(t, filepath.Join(dir, "src", "util.d"), "module util;\nimport shapes;\n")
	writeFile(t, filepath.Join(dir, "src", "broken.d"), "module broken;\n/+ never closed\nclass Lost {}\n")

	cfg := config.DefaultConfig()
	cfg.Output.Dir = "out"
	cfg.Output.DOT = "graph.dot"
	cfg.Output.TSV = "decls.tsv"
	cfg.DB.Enabled = true
	cfg.DB.Path = "state/duml.db"

	var printed bytes.Buffer
	a := newApp(t, cfg, Options{BaseDir: dir, PrintFiles: &printed})

	var updates int
	a.SetUpdateHandler(func(*BuildResult) { updates++ })

	res, err := a.Build(context.Background(), []string{filepath.Join(dir, "src")})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Files) != 3 {
		t.Fatalf("expected 3 files, got %v", res.Files)
	}
	if len(res.Failed) != 1 || !strings.HasSuffix(res.Failed[0].File, "broken.d") {
		t.Fatalf("expected broken.d to fail, got %+v", res.Failed)
	}
	if !errs.IsCode(res.Failed[0].Err, errs.CodeUnterminatedBlock) {
		t.Errorf("expected unterminated block error, got %v", res.Failed[0].Err)
	}
	if res.Tree.Module("broken") != nil {
		t.Error("failed file should not contribute declarations")
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Kind != scanner.DiagUnrecognized {
		t.Errorf("expected one unrecognized diagnostic, got %+v", res.Diagnostics)
	}
	if len(res.Cycles) != 1 {
		t.Errorf("expected one import cycle, got %v", res.Cycles)
	}
	if res.Scan.ID == "" {
		t.Error("expected the scan to be stored")
	}
	if updates != 1 {
		t.Errorf("expected one update, got %d", updates)
	}
	if strings.Count(printed.String(), "\n") != 3 || !strings.Contains(printed.String(), "shapes.d") {
		t.Errorf("unexpected printed files %q", printed.String())
	}

	written, err := a.GenerateOutputs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 2 {
		t.Fatalf("expected two outputs, got %v", written)
	}
	dot, err := os.ReadFile(filepath.Join(dir, "out", "graph.dot"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(dot), "shapes_Circle -> shapes_Shape;") {
		t.Errorf("dot output lacks inheritance edge:\n%s", dot)
	}

	var buf bytes.Buffer
	if err := a.RenderTo(&buf, output.FormatMermaid); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "classDiagram") {
		t.Errorf("unexpected mermaid output %q", buf.String())
	}

	latest, err := a.Store().LatestScan(context.Background())
	if err != nil || latest.ID != res.Scan.ID {
		t.Errorf("expected latest stored scan %s, got %+v, %v", res.Scan.ID, latest, err)
	}

	health := a.Health(context.Background())
	if health.Status != "up" || health.Components["store"] != "ok" {
		t.Errorf("unexpected health %+v", health)
	}
}

func TestGenerateOutputsBeforeBuild(t *testing.T) {
	a := newApp(t, config.DefaultConfig(), Options{BaseDir: t.TempDir()})
	if _, err := a.GenerateOutputs(context.Background()); !errs.IsCode(err, errs.CodeValidationError) {
		t.Errorf("expected validation error, got %v", err)
	}
	if h := a.Health(context.Background()); h.Status != "degraded" {
		t.Errorf("expected degraded health before the first build, got %+v", h)
	}
}

func TestHandleChangesRebuilds(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "app.d")
	writeFile(t, src, "module app;\nclass A {}\n")

	cfg := config.DefaultConfig()
	a := newApp(t, cfg, Options{BaseDir: dir})
	if _, err := a.Build(context.Background(), []string{dir}); err != nil {
		t.Fatal(err)
	}

	writeFile(t, src, "module app;\nclass A {}\nclass B : A {}\n")
	a.HandleChanges(context.Background(), util.NewLimiter(0, 1), []string{dir}, []string{src})

	if got := len(a.Tree().Module("app").Types); got != 2 {
		t.Errorf("expected two types after rebuild, got %d", got)
	}
	if a.Graph() == nil {
		t.Error("expected graph after rebuild")
	}
}

func TestNewRejectsBadDrawOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Draw.Options = "q"
	if _, err := New(cfg, Options{}); !errs.IsCode(err, errs.CodeValidationError) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestGenerateOutputsRefreshesTargets(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "app.d")
	writeFile(t, src, "module app;\nclass A { int first; }\n")

	tsvPath := filepath.Join(dir, "out", "decls.tsv")
	var dot bytes.Buffer
	cfg := config.DefaultConfig()
	a := newApp(t, cfg, Options{
		BaseDir: dir,
		Targets: []Target{
			{Format: output.FormatTSV, Path: tsvPath},
			{Format: output.FormatDOT, Writer: &dot},
		},
	})
	if _, err := a.Build(context.Background(), []string{dir}); err != nil {
		t.Fatal(err)
	}
	written, err := a.GenerateOutputs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 1 || written[0] != tsvPath {
		t.Errorf("expected only the tsv target on disk, got %v", written)
	}
	if !strings.Contains(dot.String(), "digraph G {") {
		t.Errorf("expected DOT on the writer target, got %q", dot.String())
	}

	writeFile(t, src, "module app;\nclass A { int first; int second; }\n")
	a.HandleChanges(context.Background(), util.NewLimiter(0, 1), []string{dir}, []string{src})

	data, err := os.ReadFile(tsvPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "variable\tapp\tA\tsecond\tint") {
		t.Errorf("target not refreshed after rebuild:\n%s", data)
	}
}

func TestBuildPrunesStoredScans(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.d"), "module app;\nclass A {}\n")

	cfg := config.DefaultConfig()
	cfg.DB.Enabled = true
	cfg.DB.Keep = 2
	a := newApp(t, cfg, Options{BaseDir: dir})

	for i := 0; i < 3; i++ {
		if _, err := a.Build(context.Background(), []string{dir}); err != nil {
			t.Fatal(err)
		}
	}
	scans, err := a.Store().ListScans(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(scans) != 2 {
		t.Errorf("expected two retained scans, got %d", len(scans))
	}
	if scans[0].ID != a.Last().Scan.ID {
		t.Errorf("newest scan should be retained, got %s want %s", scans[0].ID, a.Last().Scan.ID)
	}
}

func TestBuildSkipsConfiguredPrimitives(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "io.d"), `
module io;
struct Handle { int fd; }
struct Buffer { int n; }
class File { Handle h; Buffer b; }
`)

	cfg := config.DefaultConfig()
	cfg.Keywords.PrimitiveTypes = append(cfg.Keywords.PrimitiveTypes, "Handle")
	a := newApp(t, cfg, Options{BaseDir: dir})
	res, err := a.Build(context.Background(), []string{dir})
	if err != nil {
		t.Fatal(err)
	}

	edges := res.Graph.Edges(graph.EdgeComposition)
	if len(edges) != 1 || edges[0].To.Name() != "Buffer" {
		t.Errorf("expected a single composition edge to Buffer, got %+v", edges)
	}
}

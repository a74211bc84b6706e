package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	errs "duml/internal/core/errors"
	"duml/internal/engine/graph"
	"duml/internal/engine/model"
	"duml/internal/engine/scanner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shapes = `
module shapes;
import util;
class Shape { double area(); }
class Circle : Shape { Point center; }
struct Point { int x; }
`

const utilSrc = `
module util;
import shapes;
enum Mode { A, B }
`

func scanInput(t *testing.T) ScanInput {
	t.Helper()
	kw := scanner.DefaultKeywords()
	sc := scanner.New(kw)
	tree := model.NewTree()
	var diags []scanner.Diagnostic
	for _, f := range []struct{ name, src string }{{"shapes.d", shapes}, {"util.d", utilSrc + "return 1;\n"}} {
		res, err := sc.Scan(tree, f.name, f.src)
		require.NoError(t, err)
		diags = append(diags, res.Diagnostics...)
	}
	return ScanInput{
		Tree:        tree,
		Graph:       graph.Build(tree, kw.PrimitiveTypes),
		Files:       []string{"shapes.d", "util.d"},
		Diagnostics: diags,
	}
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "duml.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SaveAndLoadLatest(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.LatestScan(ctx)
	assert.True(t, errs.IsCode(err, errs.CodeNotFound), "expected not found, got %v", err)

	in := scanInput(t)
	rec, err := s.SaveScan(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 2, rec.Files)
	assert.Equal(t, 2, rec.Modules)
	assert.Equal(t, 4, rec.Types)
	assert.Equal(t, 1, rec.Diagnostics)
	assert.Equal(t, 1, rec.Cycles)

	latest, err := s.LatestScan(ctx)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, latest.ID)
	assert.WithinDuration(t, rec.CreatedAt, latest.CreatedAt, time.Millisecond)

	decls, err := s.Declarations(ctx, rec.ID, "")
	require.NoError(t, err)
	assert.Equal(t, in.Tree.Declarations(), decls)

	utilOnly, err := s.Declarations(ctx, rec.ID, "util")
	require.NoError(t, err)
	for _, d := range utilOnly {
		assert.Equal(t, "util", d.Module)
	}

	diags, err := s.Diagnostics(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, scanner.DiagUnrecognized, diags[0].Kind)
	assert.Equal(t, "util.d", diags[0].File)

	mods, err := s.Modules(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, mods, 2)
	assert.Equal(t, "shapes", mods[0].Module)
	assert.Equal(t, 3, mods[0].Types)
}

func TestStore_ListAndPrune(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	var ids []string
	for i := 0; i < 3; i++ {
		rec, err := s.SaveScan(ctx, scanInput(t))
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}

	scans, err := s.ListScans(ctx, 0)
	require.NoError(t, err)
	require.Len(t, scans, 3)
	assert.Equal(t, ids[2], scans[0].ID)
	assert.Equal(t, ids[0], scans[2].ID)

	removed, err := s.Prune(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	decls, err := s.Declarations(ctx, ids[0], "")
	require.NoError(t, err)
	assert.Empty(t, decls, "declarations of pruned scans should cascade")

	_, err = s.Prune(ctx, 0)
	assert.True(t, errs.IsCode(err, errs.CodeValidationError))
}

func TestStore_OpenRejectsDirectory(t *testing.T) {
	_, err := Open(t.TempDir(), time.Second)
	assert.True(t, errs.IsCode(err, errs.CodeValidationError), "got %v", err)

	_, err = Open("  ", time.Second)
	assert.True(t, errs.IsCode(err, errs.CodeValidationError), "got %v", err)
}

func TestStore_ReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "duml.db")
	s, err := Open(path, time.Second)
	require.NoError(t, err)
	rec, err := s.SaveScan(context.Background(), scanInput(t))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, time.Second)
	require.NoError(t, err)
	defer s.Close()

	var version int
	require.NoError(t, s.db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version))
	assert.Equal(t, SchemaVersion, version)

	latest, err := s.LatestScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rec.ID, latest.ID)
}

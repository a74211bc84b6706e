// Package store persists scan results in SQLite so the last scan can be
// inspected without re-reading the sources.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	errs "duml/internal/core/errors"
	"duml/internal/engine/graph"
	"duml/internal/engine/model"
	"duml/internal/engine/scanner"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// ScanRecord summarises one stored scan.
type ScanRecord struct {
	ID          string
	CreatedAt   time.Time
	Files       int
	Modules     int
	Types       int
	Diagnostics int
	Cycles      int
}

type ModuleRow struct {
	Module string
	graph.ModuleMetrics
}

// ScanInput is everything a finished scan produced.
type ScanInput struct {
	Tree        *model.Tree
	Graph       *graph.Graph
	Files       []string
	Diagnostics []scanner.Diagnostic
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
	now  func() time.Time
}

func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, errs.New(errs.CodeValidationError, "store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, errs.AddContext(errs.New(errs.CodeValidationError, "store path is a directory, expected file"), errs.CtxPath, cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errs.AddContext(errs.Wrap(err, errs.CodeInternal, "create store directory"), errs.CtxPath, dir)
		}
	}
	if busyTimeout <= 0 {
		busyTimeout = 2 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errs.AddContext(errs.Wrap(err, errs.CodeInternal, "open sqlite store"), errs.CtxPath, cleanPath)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errs.AddContext(errs.Wrap(err, errs.CodeInternal, "ping sqlite store"), errs.CtxPath, cleanPath)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, errs.AddContext(errs.Wrap(err, errs.CodeInternal, "initialize sqlite schema"), errs.CtxPath, cleanPath)
	}

	return &Store{path: cleanPath, db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveScan writes the scan summary, every declaration, the diagnostics and
// the per-module metrics in one transaction.
func (s *Store) SaveScan(ctx context.Context, in ScanInput) (ScanRecord, error) {
	if in.Tree == nil {
		return ScanRecord{}, errs.New(errs.CodeValidationError, "scan has no tree")
	}
	g := in.Graph
	if g == nil {
		g = graph.Build(in.Tree, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats := in.Tree.Stats()
	rec := ScanRecord{
		ID:          uuid.NewString(),
		CreatedAt:   s.now().UTC(),
		Files:       len(in.Files),
		Modules:     stats.Modules,
		Types:       stats.Classes + stats.Enums + stats.Unions,
		Diagnostics: len(in.Diagnostics),
		Cycles:      len(g.DetectCycles()),
	}
	decls := in.Tree.Declarations()
	metrics := g.Metrics()

	err := s.withRetry("save scan", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `
INSERT INTO scans (id, created_at_utc, file_count, module_count, type_count, diagnostic_count, cycle_count)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.CreatedAt.Format(time.RFC3339Nano), rec.Files, rec.Modules, rec.Types, rec.Diagnostics, rec.Cycles,
		); err != nil {
			return err
		}

		declStmt, err := tx.PrepareContext(ctx, `
INSERT INTO declarations (scan_id, seq, kind, module, owner, name, type, qualifiers, version)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer declStmt.Close()
		for i, d := range decls {
			if _, err := declStmt.ExecContext(ctx, rec.ID, i, d.Kind, d.Module, d.Owner, d.Name, d.Type, d.Qualifiers, d.Version); err != nil {
				return err
			}
		}

		for i, d := range in.Diagnostics {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO diagnostics (scan_id, seq, file, line, kind, snippet) VALUES (?, ?, ?, ?, ?, ?)`,
				rec.ID, i, d.File, d.Line, string(d.Kind), d.Snippet,
			); err != nil {
				return err
			}
		}

		for name, m := range metrics {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO module_metrics (scan_id, module, fan_in, fan_out, type_count, importance) VALUES (?, ?, ?, ?, ?, ?)`,
				rec.ID, name, m.FanIn, m.FanOut, m.Types, m.Importance,
			); err != nil {
				return err
			}
		}

		return tx.Commit()
	})
	if err != nil {
		return ScanRecord{}, err
	}
	return rec, nil
}

// LatestScan returns the most recent scan, or a NOT_FOUND error when the
// store is empty.
func (s *Store) LatestScan(ctx context.Context) (ScanRecord, error) {
	scans, err := s.ListScans(ctx, 1)
	if err != nil {
		return ScanRecord{}, err
	}
	if len(scans) == 0 {
		return ScanRecord{}, errs.AddContext(errs.New(errs.CodeNotFound, "no scans stored"), errs.CtxPath, s.path)
	}
	return scans[0], nil
}

// ListScans returns up to limit scans, newest first. A limit of zero or less
// returns all of them.
func (s *Store) ListScans(ctx context.Context, limit int) ([]ScanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT id, created_at_utc, file_count, module_count, type_count, diagnostic_count, cycle_count
FROM scans
ORDER BY created_at_utc DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("list scans", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScanRecord
	for rows.Next() {
		var (
			rec   ScanRecord
			tsRaw string
		)
		if err := rows.Scan(&rec.ID, &tsRaw, &rec.Files, &rec.Modules, &rec.Types, &rec.Diagnostics, &rec.Cycles); err != nil {
			return nil, errs.Wrap(err, errs.CodeInternal, "scan scan row")
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, errs.Wrap(err, errs.CodeInternal, fmt.Sprintf("parse scan timestamp %q", tsRaw))
		}
		rec.CreatedAt = ts.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, errs.CodeInternal, "iterate scan rows")
	}
	return out, nil
}

// Declarations returns a stored scan's declarations in their original order,
// optionally limited to one module.
func (s *Store) Declarations(ctx context.Context, scanID, module string) ([]model.Declaration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT kind, module, owner, name, type, qualifiers, version
FROM declarations
WHERE scan_id = ?`
	args := []any{scanID}
	if module != "" {
		query += " AND module = ?"
		args = append(args, module)
	}
	query += " ORDER BY seq ASC"

	var rows *sql.Rows
	err := s.withRetry("load declarations", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Declaration
	for rows.Next() {
		var d model.Declaration
		if err := rows.Scan(&d.Kind, &d.Module, &d.Owner, &d.Name, &d.Type, &d.Qualifiers, &d.Version); err != nil {
			return nil, errs.Wrap(err, errs.CodeInternal, "scan declaration row")
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, errs.CodeInternal, "iterate declaration rows")
	}
	return out, nil
}

// Diagnostics returns the diagnostics recorded with a scan.
func (s *Store) Diagnostics(ctx context.Context, scanID string) ([]scanner.Diagnostic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load diagnostics", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, `
SELECT file, line, kind, snippet FROM diagnostics WHERE scan_id = ? ORDER BY seq ASC`, scanID)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []scanner.Diagnostic
	for rows.Next() {
		var (
			d    scanner.Diagnostic
			kind string
		)
		if err := rows.Scan(&d.File, &d.Line, &kind, &d.Snippet); err != nil {
			return nil, errs.Wrap(err, errs.CodeInternal, "scan diagnostic row")
		}
		d.Kind = scanner.DiagnosticKind(kind)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, errs.CodeInternal, "iterate diagnostic rows")
	}
	return out, nil
}

// Modules returns per-module metrics of a scan, most important first.
func (s *Store) Modules(ctx context.Context, scanID string) ([]ModuleRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load module metrics", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, `
SELECT module, fan_in, fan_out, type_count, importance
FROM module_metrics
WHERE scan_id = ?
ORDER BY importance DESC, module ASC`, scanID)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ModuleRow
	for rows.Next() {
		var r ModuleRow
		if err := rows.Scan(&r.Module, &r.FanIn, &r.FanOut, &r.Types, &r.Importance); err != nil {
			return nil, errs.Wrap(err, errs.CodeInternal, "scan module row")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, errs.CodeInternal, "iterate module rows")
	}
	return out, nil
}

// Prune deletes all but the newest keep scans and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		return 0, errs.Newf(errs.CodeValidationError, "keep must be at least 1, got %d", keep)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	err := s.withRetry("prune scans", func() error {
		res, err := s.db.ExecContext(ctx, `
DELETE FROM scans WHERE id NOT IN (
  SELECT id FROM scans ORDER BY created_at_utc DESC, rowid DESC LIMIT ?
)`, keep)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return errs.AddContext(errs.Wrap(lastErr, errs.CodeInternal, op), errs.CtxOperation, op)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

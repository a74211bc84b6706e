package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the newest migration this build knows about.
const SchemaVersion = 2

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS scans (
  id TEXT PRIMARY KEY,
  created_at_utc TEXT NOT NULL,
  file_count INTEGER NOT NULL,
  module_count INTEGER NOT NULL,
  type_count INTEGER NOT NULL,
  diagnostic_count INTEGER NOT NULL,
  cycle_count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scans_created ON scans(created_at_utc);

CREATE TABLE IF NOT EXISTS declarations (
  scan_id TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
  seq INTEGER NOT NULL,
  kind TEXT NOT NULL,
  module TEXT NOT NULL,
  owner TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL,
  type TEXT NOT NULL DEFAULT '',
  qualifiers TEXT NOT NULL DEFAULT '',
  version TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (scan_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_declarations_module ON declarations(scan_id, module);

CREATE TABLE IF NOT EXISTS diagnostics (
  scan_id TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
  seq INTEGER NOT NULL,
  file TEXT NOT NULL,
  line INTEGER NOT NULL,
  kind TEXT NOT NULL,
  snippet TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (scan_id, seq)
);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS module_metrics (
  scan_id TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
  module TEXT NOT NULL,
  fan_in INTEGER NOT NULL,
  fan_out INTEGER NOT NULL,
  type_count INTEGER NOT NULL,
  importance REAL NOT NULL,
  PRIMARY KEY (scan_id, module)
);
`,
	},
}

func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at_utc TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
);
`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema_migrations version: %w", err)
	}
	if current > SchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", current, SchemaVersion)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?)`, m.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}

	return nil
}

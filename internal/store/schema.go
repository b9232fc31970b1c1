package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaVersion is stored in PRAGMA user_version once every statement below
// has been applied.
const schemaVersion = 2

const nowExpr = `(strftime('%Y-%m-%dT%H:%M:%SZ','now'))`

var schemaStatements = []string{
	`
CREATE TABLE IF NOT EXISTS threads (
  id INTEGER PRIMARY KEY,
  title TEXT NOT NULL,
  month TEXT NOT NULL,
  posted_at TEXT NOT NULL,
  fetched_at TEXT NOT NULL DEFAULT ` + nowExpr + `
);`,
	`
CREATE TABLE IF NOT EXISTS posts (
  id INTEGER PRIMARY KEY,
  thread_id INTEGER NOT NULL REFERENCES threads(id),
  author TEXT,
  content TEXT NOT NULL,
  company TEXT,
  is_remote INTEGER NOT NULL DEFAULT 0,
  posted_at TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'new',
  notes TEXT,
  applied_at TEXT,
  created_at TEXT NOT NULL DEFAULT ` + nowExpr + `,
  updated_at TEXT NOT NULL DEFAULT ` + nowExpr + `
);`,
	`CREATE INDEX IF NOT EXISTS idx_posts_thread_id ON posts(thread_id);`,
	`CREATE INDEX IF NOT EXISTS idx_posts_status ON posts(status);`,
	`CREATE INDEX IF NOT EXISTS idx_posts_is_remote ON posts(is_remote);`,
	`
CREATE TABLE IF NOT EXISTS profile_keywords (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  keyword TEXT NOT NULL UNIQUE COLLATE NOCASE,
  created_at TEXT NOT NULL DEFAULT ` + nowExpr + `
);`,
}

// additiveColumns are added to tables created by older versions.
var additiveColumns = []struct {
	table, name, def string
}{
	{"posts", "dismiss_reason", "TEXT"},
}

// Migrate creates missing tables, indexes and columns. It never drops or
// rewrites anything, so running it against an up-to-date database is a no-op.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	for _, c := range additiveColumns {
		ok, err := columnExists(ctx, tx, c.table, c.name)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s;`, c.table, c.name, c.def)); err != nil {
			return fmt.Errorf("add %s.%s: %w", c.table, c.name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func columnExists(ctx context.Context, q queryRower, table, col string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, col,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

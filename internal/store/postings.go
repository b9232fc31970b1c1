package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/helrabelo/job-search/internal/domain"
)

// KnownPostingIDs loads every stored posting id.
func (d *DB) KnownPostingIDs(ctx context.Context) (map[int64]struct{}, error) {
	rows, err := d.Pool.QueryContext(ctx, `SELECT id FROM posts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	known := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		known[id] = struct{}{}
	}
	return known, rows.Err()
}

// UpsertThread inserts a thread, or only refreshes fetched_at when it is
// already stored.
func (d *DB) UpsertThread(ctx context.Context, t domain.Thread) error {
	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO threads (id, title, month, posted_at, fetched_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET fetched_at = excluded.fetched_at;`,
		t.ID, t.Title, t.Month, timestamp(t.PostedAt), timestamp(t.FetchedAt))
	if err != nil {
		return fmt.Errorf("upsert thread %d: %w", t.ID, err)
	}
	return nil
}

// InsertPostings inserts the postings that are not stored yet, all in one
// transaction, and returns how many rows were actually added. A posting whose
// id already exists is left untouched. Any other failure rolls the whole
// batch back.
func (d *DB) InsertPostings(ctx context.Context, posts []domain.NewPosting) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}

	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO posts (id, thread_id, author, content, company, is_remote, posted_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING;`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	added := 0
	for _, p := range posts {
		now := timestamp(timeNow())
		res, err := stmt.ExecContext(ctx,
			p.ID, p.ThreadID, nullString(p.Author), p.Content, nullString(p.Company),
			boolInt(p.IsRemote), timestamp(p.PostedAt), now, now)
		if err != nil {
			return 0, fmt.Errorf("insert posting %d: %w", p.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

// CountPostings returns the number of stored postings.
func (d *DB) CountPostings(ctx context.Context) (int, error) {
	var n int
	if err := d.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

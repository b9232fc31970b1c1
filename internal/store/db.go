package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DB owns the process-wide connection pool. It is opened once at startup,
// passed to whoever needs it and closed on shutdown.
type DB struct {
	Pool *sql.DB

	schemaMu    sync.Mutex
	schemaReady bool
}

func Open(path string) (*DB, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_txlock=immediate", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	pool.SetMaxOpenConns(1) // sqlite typically wants 1 writer
	pool.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	return &DB{Pool: pool}, nil
}

func (d *DB) Close() error {
	if d == nil || d.Pool == nil {
		return nil
	}
	return d.Pool.Close()
}

// EnsureSchema runs Migrate the first time it succeeds and is a no-op
// afterwards. A failed attempt is retried by the next caller.
func (d *DB) EnsureSchema(ctx context.Context) error {
	d.schemaMu.Lock()
	defer d.schemaMu.Unlock()

	if d.schemaReady {
		return nil
	}
	if err := Migrate(ctx, d.Pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	d.schemaReady = true
	return nil
}

var timeNow = time.Now

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

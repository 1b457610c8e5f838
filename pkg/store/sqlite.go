package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS containers (
	container  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BLOB,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (container, key)
);
`

// DB is one durable storage unit holding any number of named containers
type DB struct {
	db *sql.DB
}

// Open opens or creates the SQLite file at path
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	// A single connection keeps PRAGMAs and transactions on one handle
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	if _, err := db.Exec(`
		PRAGMA busy_timeout = 5000;
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = FULL;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure storage: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close releases the underlying database handle
func (d *DB) Close() error {
	return d.db.Close()
}

// Container loads the committed contents of the named container
func (d *DB) Container(ctx context.Context, name string) (Container, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT key, value FROM containers WHERE container = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load container %q: %w", name, err)
	}
	defer rows.Close()

	committed := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to load container %q: %w", name, err)
		}
		committed[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load container %q: %w", name, err)
	}

	return &sqliteContainer{staging: newStaging(name, committed), db: d.db}, nil
}

type sqliteContainer struct {
	*staging
	db *sql.DB
}

// Commit writes every staged mutation in one transaction
func (c *sqliteContainer) Commit(ctx context.Context) error {
	order, pending := c.snapshot()
	if len(order) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin commit: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, key := range order {
		m := pending[key]
		if m.deleted {
			_, err = tx.ExecContext(ctx, `DELETE FROM containers WHERE container = ? AND key = ?`, c.name, key)
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO containers (container, key, value, updated_at) VALUES (?, ?, ?, ?)
				ON CONFLICT(container, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
				c.name, key, m.value, now)
		}
		if err != nil {
			return fmt.Errorf("failed to stage %q in %q: %w", key, c.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %q: %w", c.name, err)
	}

	c.promote(order, pending)
	return nil
}

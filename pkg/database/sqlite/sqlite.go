// Package sqlite opens an embedded registry database. It backs local
// development and the repository tests; production runs on postgres.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id    INTEGER PRIMARY KEY,
	name  TEXT NOT NULL,
	role  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS personal_access_tokens (
	id             INTEGER PRIMARY KEY,
	token          TEXT NOT NULL,
	tokenable_id   INTEGER NOT NULL REFERENCES users(id),
	tokenable_type TEXT NOT NULL,
	abilities      TEXT,
	expires_at     DATETIME
);
CREATE TABLE IF NOT EXISTS registry_entries (
	id                INTEGER PRIMARY KEY,
	sequence_number   INTEGER NOT NULL,
	address           TEXT NOT NULL DEFAULT '',
	island            TEXT NOT NULL DEFAULT '',
	branch            TEXT NOT NULL DEFAULT '',
	agreement_number  TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL,
	loan_amount       NUMERIC NOT NULL,
	agreement_date    DATE NOT NULL,
	cancellation_date DATE,
	completion_date   DATE,
	is_deleted        BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS borrowers (
	id          INTEGER PRIMARY KEY,
	entry_id    INTEGER NOT NULL REFERENCES registry_entries(id),
	full_name   TEXT NOT NULL,
	national_id TEXT
);
CREATE INDEX IF NOT EXISTS idx_borrowers_entry ON borrowers(entry_id);
`

// Open opens (creating if needed) the database at path and applies the schema.
// ":memory:" gives a private in-memory database limited to one connection.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		path = "registry.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

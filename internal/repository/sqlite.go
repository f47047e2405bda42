package repository

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS codes (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  code       TEXT      NOT NULL UNIQUE,
  payload    TEXT      NOT NULL,
  seq        INTEGER   NOT NULL,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NULL
);

CREATE INDEX IF NOT EXISTS idx_codes_seq ON codes(seq);
`

var sqliteDialect = dialect{
	name:   "sqlite",
	schema: sqliteSchema,
	insert: `
INSERT INTO codes(code, payload, seq, created_at, updated_at)
VALUES (?, ?, ?, ?, ?);`,
	findByCode: `
SELECT code, payload, seq, created_at, updated_at
FROM codes
WHERE code = ?
LIMIT 1;`,
	count:             `SELECT COUNT(*) FROM codes;`,
	maxSequence:       `SELECT MAX(seq) FROM codes;`,
	isUniqueViolation: isSQLiteUniqueViolation,
}

// OpenSQLite opens (or creates) the database at path. ":memory:" is
// accepted for tests.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrapf(err, "sqlite: create %s", dir)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: open")
	}
	// SQLite only supports one writer; an in-memory database also lives
	// on a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, "sqlite: %s", pragma)
		}
	}
	return db, nil
}

// NewSQLiteRepository returns a repository backed by a modernc.org/sqlite handle.
func NewSQLiteRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db, d: sqliteDialect}
}

func isSQLiteUniqueViolation(err error) bool {
	var sqErr *sqlite.Error
	if !errors.As(err, &sqErr) {
		return false
	}
	switch sqErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return sqErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT &&
		strings.Contains(sqErr.Error(), "UNIQUE")
}

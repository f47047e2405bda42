package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS codes (
    id         BIGSERIAL PRIMARY KEY,
    code       TEXT        NOT NULL UNIQUE,
    payload    TEXT        NOT NULL,
    seq        BIGINT      NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NULL
);

CREATE INDEX IF NOT EXISTS idx_codes_seq ON codes (seq);
`

var postgresDialect = dialect{
	name:   "postgres",
	schema: postgresSchema,
	insert: `
        INSERT INTO codes (code, payload, seq, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
    `,
	findByCode: `
        SELECT code, payload, seq, created_at, updated_at
        FROM codes
        WHERE code = $1
    `,
	count:             `SELECT COUNT(*) FROM codes`,
	maxSequence:       `SELECT MAX(seq) FROM codes`,
	isUniqueViolation: isPostgresUniqueViolation,
}

// PostgresOptions configures the connection pool.
type PostgresOptions struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// OpenPostgres connects to PostgreSQL and verifies the connection.
func OpenPostgres(ctx context.Context, opts PostgresOptions) (*sql.DB, error) {
	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "postgres: open")
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "postgres: ping")
	}
	return db, nil
}

// NewPostgresRepository returns a repository backed by a lib/pq handle.
func NewPostgresRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db, d: postgresDialect}
}

func isPostgresUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation"
	}
	return false
}

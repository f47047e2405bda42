package repository

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/Siddarth2230/shortcode/internal/models"
	"github.com/Siddarth2230/shortcode/pkg/metrics"
)

// dialect holds the driver specific parts of SQLRepository.
type dialect struct {
	name              string
	schema            string
	insert            string
	findByCode        string
	count             string
	maxSequence       string
	isUniqueViolation func(error) bool
}

// SQLRepository stores records in a "codes" table through database/sql.
type SQLRepository struct {
	db *sql.DB
	d  dialect
}

// Migrate creates the codes table and its indexes if they do not exist.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.d.schema); err != nil {
		return errors.Wrapf(err, "%s: apply schema", r.d.name)
	}
	return nil
}

// DB returns the underlying handle.
func (r *SQLRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLRepository) Insert(ctx context.Context, rec *models.Record) error {
	defer metrics.ObserveStore(r.d.name, "insert", time.Now())

	if rec.Sequence > math.MaxInt64 {
		return errors.Errorf("%s: sequence %d does not fit the seq column", r.d.name, rec.Sequence)
	}

	var updatedAt sql.NullTime
	if rec.UpdatedAt != nil {
		updatedAt = sql.NullTime{Time: rec.UpdatedAt.UTC(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, r.d.insert,
		rec.Code, rec.Payload, int64(rec.Sequence), rec.CreatedAt.UTC(), updatedAt)
	if err != nil {
		if r.d.isUniqueViolation(err) {
			return errors.Wrapf(ErrDuplicateCode, "%s: code %s", r.d.name, rec.Code)
		}
		return errors.Wrapf(err, "%s: insert code %s", r.d.name, rec.Code)
	}
	return nil
}

func (r *SQLRepository) FindByCode(ctx context.Context, code string) (*models.Record, error) {
	defer metrics.ObserveStore(r.d.name, "find_by_code", time.Now())

	var (
		rec       models.Record
		seq       int64
		updatedAt sql.NullTime
	)
	row := r.db.QueryRowContext(ctx, r.d.findByCode, code)
	if err := row.Scan(&rec.Code, &rec.Payload, &seq, &rec.CreatedAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(ErrNotFound, "code %s", code)
		}
		return nil, errors.Wrapf(err, "%s: find code %s", r.d.name, code)
	}

	rec.Sequence = uint64(seq)
	rec.CreatedAt = rec.CreatedAt.UTC()
	if updatedAt.Valid {
		t := updatedAt.Time.UTC()
		rec.UpdatedAt = &t
	}
	return &rec, nil
}

func (r *SQLRepository) Count(ctx context.Context) (int64, error) {
	defer metrics.ObserveStore(r.d.name, "count", time.Now())

	var n int64
	if err := r.db.QueryRowContext(ctx, r.d.count).Scan(&n); err != nil {
		return 0, errors.Wrapf(err, "%s: count", r.d.name)
	}
	return n, nil
}

func (r *SQLRepository) MaxSequence(ctx context.Context) (uint64, bool, error) {
	defer metrics.ObserveStore(r.d.name, "max_sequence", time.Now())

	var seq sql.NullInt64
	if err := r.db.QueryRowContext(ctx, r.d.maxSequence).Scan(&seq); err != nil {
		return 0, false, errors.Wrapf(err, "%s: max sequence", r.d.name)
	}
	if !seq.Valid {
		return 0, false, nil
	}
	return uint64(seq.Int64), true, nil
}

var (
	_ Store            = (*SQLRepository)(nil)
	_ SequenceReporter = (*SQLRepository)(nil)
)

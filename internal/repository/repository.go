package repository

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Siddarth2230/shortcode/internal/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicateCode = errors.New("code already stored")
)

// Store persists records keyed by code.
type Store interface {
	// Insert stores a new record. Returns ErrDuplicateCode if the code is taken.
	Insert(ctx context.Context, rec *models.Record) error
	// FindByCode returns ErrNotFound when no record has the code.
	FindByCode(ctx context.Context, code string) (*models.Record, error)
	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)
}

// SequenceReporter is implemented by stores that persist the sequence number
// alongside each record. ok is false for an empty store.
type SequenceReporter interface {
	MaxSequence(ctx context.Context) (seq uint64, ok bool, err error)
}

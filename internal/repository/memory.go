package repository

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/Siddarth2230/shortcode/internal/models"
)

// MemoryRepository keeps records in a map. Used by tests and the
// "memory" store driver; nothing survives a restart.
type MemoryRepository struct {
	mu     sync.RWMutex
	byCode map[string]models.Record
	maxSeq uint64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byCode: make(map[string]models.Record)}
}

func (m *MemoryRepository) Insert(ctx context.Context, rec *models.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byCode[rec.Code]; ok {
		return errors.Wrapf(ErrDuplicateCode, "memory: code %s", rec.Code)
	}
	m.byCode[rec.Code] = *rec
	if len(m.byCode) == 1 || rec.Sequence > m.maxSeq {
		m.maxSeq = rec.Sequence
	}
	return nil
}

func (m *MemoryRepository) FindByCode(ctx context.Context, code string) (*models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.byCode[code]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "code %s", code)
	}
	return &rec, nil
}

func (m *MemoryRepository) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.byCode)), nil
}

func (m *MemoryRepository) MaxSequence(ctx context.Context) (uint64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.byCode) == 0 {
		return 0, false, nil
	}
	return m.maxSeq, true, nil
}

var (
	_ Store            = (*MemoryRepository)(nil)
	_ SequenceReporter = (*MemoryRepository)(nil)
)

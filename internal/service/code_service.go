package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/Siddarth2230/shortcode/internal/logging"
	"github.com/Siddarth2230/shortcode/internal/models"
	"github.com/Siddarth2230/shortcode/internal/repository"
	"github.com/Siddarth2230/shortcode/pkg/cache"
	"github.com/Siddarth2230/shortcode/pkg/idgen"
	"github.com/Siddarth2230/shortcode/pkg/metrics"
)

// RecordCache is a shared (L2) cache. Get returns cache.ErrCacheMiss on a miss.
type RecordCache interface {
	Get(ctx context.Context, code string) (*models.Record, error)
	Set(ctx context.Context, rec *models.Record) error
}

// Options configures a CodeService. The zero value is usable.
type Options struct {
	CacheSize int         // in-process (L1) entries; 0 disables L1
	Shared    RecordCache // optional L2
	Logger    *slog.Logger
	Now       func() time.Time
}

// CodeService issues codes for payloads and resolves codes back to records.
//
// Codes are unique only within one process: each instance owns its own
// counter, so two instances writing to the same store will collide.
type CodeService struct {
	repo   repository.Store
	gen    idgen.Generator
	l1     *cache.LRU[*models.Record]
	l2     RecordCache
	logger *slog.Logger
	now    func() time.Time
}

// NewCodeService wires a service around an already seeded generator.
// Most callers want Bootstrap.
func NewCodeService(repo repository.Store, gen idgen.Generator, opts Options) *CodeService {
	s := &CodeService{
		repo:   repo,
		gen:    gen,
		l2:     opts.Shared,
		logger: opts.Logger,
		now:    opts.Now,
	}
	if opts.CacheSize > 0 {
		s.l1 = cache.NewLRU[*models.Record](opts.CacheSize)
	}
	if s.logger == nil {
		s.logger = logging.NewDiscard()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// NextSequence reports the sequence number the next Generate call will consume.
func (s *CodeService) NextSequence() uint64 {
	return s.gen.Peek()
}

// Generate stores payload under a fresh code.
//
// The sequence number is consumed before the insert and is never reused:
// if the insert fails, or ctx ends first, the number is burned and the
// error wraps ErrStorageFailure. Retrying is the caller's decision.
func (s *CodeService) Generate(ctx context.Context, payload string) (*models.Record, error) {
	seq, code := s.gen.Next()
	metrics.NextSequence.Set(float64(s.gen.Peek()))

	rec := &models.Record{
		Code:      code,
		Payload:   payload,
		Sequence:  seq,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		metrics.SequencesBurned.Inc()
		if errors.Is(err, repository.ErrDuplicateCode) {
			// Only reachable with a second writer on the store or a bad seed.
			s.logger.Error("code collision, sequence already stored",
				slog.Uint64("seq", seq), slog.String("code", code), slog.Any("error", err))
		} else {
			s.logger.Warn("insert failed, sequence burned",
				slog.Uint64("seq", seq), slog.String("code", code), slog.Any("error", err))
		}
		return nil, storageFailure("insert", err)
	}

	metrics.CodesGenerated.Inc()
	s.logger.Debug("code generated", slog.Uint64("seq", seq), slog.String("code", code))

	if s.l1 != nil {
		cp := *rec
		s.l1.Put(code, &cp)
	}
	return rec, nil
}

// Lookup returns the record stored under code.
//
// Malformed codes fail with ErrInvalidCode before any cache or store access.
// A miss is ErrNotFound; store errors wrap ErrStorageFailure.
func (s *CodeService) Lookup(ctx context.Context, code string) (*models.Record, error) {
	if !idgen.ValidShape(code) {
		metrics.Lookups.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidCode
	}

	if rec, ok := s.cached(ctx, code); ok {
		metrics.Lookups.WithLabelValues("found").Inc()
		return rec, nil
	}

	rec, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.Lookups.WithLabelValues("not_found").Inc()
			return nil, ErrNotFound
		}
		metrics.Lookups.WithLabelValues("error").Inc()
		s.logger.Error("lookup failed", slog.String("code", code), slog.Any("error", err))
		return nil, storageFailure("find", err)
	}

	s.fill(ctx, rec)
	metrics.Lookups.WithLabelValues("found").Inc()
	return rec, nil
}

// cached consults L1 then L2. Cache faults are logged and count as misses.
func (s *CodeService) cached(ctx context.Context, code string) (*models.Record, bool) {
	if s.l1 != nil {
		if rec, ok := s.l1.Get(code); ok {
			metrics.CacheHits.WithLabelValues("l1").Inc()
			cp := *rec
			return &cp, true
		}
		metrics.CacheMisses.WithLabelValues("l1").Inc()
	}

	if s.l2 == nil {
		return nil, false
	}
	rec, err := s.l2.Get(ctx, code)
	switch {
	case err == nil:
		metrics.CacheHits.WithLabelValues("l2").Inc()
		if s.l1 != nil {
			cp := *rec
			s.l1.Put(code, &cp)
		}
		return rec, true
	case errors.Is(err, cache.ErrCacheMiss):
		metrics.CacheMisses.WithLabelValues("l2").Inc()
	default:
		metrics.CacheMisses.WithLabelValues("l2").Inc()
		s.logger.Warn("shared cache read failed", slog.String("code", code), slog.Any("error", err))
	}
	return nil, false
}

// fill populates both cache layers after a store read. Records never change
// once written, so cached copies cannot go stale.
func (s *CodeService) fill(ctx context.Context, rec *models.Record) {
	if s.l1 != nil {
		cp := *rec
		s.l1.Put(rec.Code, &cp)
	}
	if s.l2 != nil {
		if err := s.l2.Set(ctx, rec); err != nil {
			s.logger.Warn("shared cache write failed", slog.String("code", rec.Code), slog.Any("error", err))
		}
	}
}

package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Siddarth2230/shortcode/internal/models"
	"github.com/Siddarth2230/shortcode/internal/repository"
	"github.com/Siddarth2230/shortcode/pkg/cache"
	"github.com/Siddarth2230/shortcode/pkg/idgen"
)

var errDiskFull = errors.New("disk full")

// countingStore wraps a MemoryRepository, counts calls and can be told to
// fail inserts or reads.
type countingStore struct {
	*repository.MemoryRepository

	inserts, finds, counts atomic.Int64
	failInserts            atomic.Int64 // number of upcoming inserts to fail
	failFinds              atomic.Bool
	failCount              atomic.Bool
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryRepository: repository.NewMemoryRepository()}
}

func (s *countingStore) Insert(ctx context.Context, rec *models.Record) error {
	s.inserts.Add(1)
	if s.failInserts.Load() > 0 {
		s.failInserts.Add(-1)
		return errDiskFull
	}
	return s.MemoryRepository.Insert(ctx, rec)
}

func (s *countingStore) FindByCode(ctx context.Context, code string) (*models.Record, error) {
	s.finds.Add(1)
	if s.failFinds.Load() {
		return nil, errDiskFull
	}
	return s.MemoryRepository.FindByCode(ctx, code)
}

func (s *countingStore) Count(ctx context.Context) (int64, error) {
	s.counts.Add(1)
	if s.failCount.Load() {
		return 0, errDiskFull
	}
	return s.MemoryRepository.Count(ctx)
}

// countOnlyStore hides MaxSequence so seeding falls back to count alone.
type countOnlyStore struct {
	repository.Store
}

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, store repository.Store, opts Options) *CodeService {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	svc, err := Bootstrap(context.Background(), store, opts)
	require.NoError(t, err)
	return svc
}

func TestGenerate_EmptyStoreStartsAtOne(t *testing.T) {
	svc := newTestService(t, newCountingStore(), Options{})

	rec, err := svc.Generate(context.Background(), "payload")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rec.Sequence)
	assert.Equal(t, "1001", rec.Code)
	assert.Equal(t, "payload", rec.Payload)
	assert.Equal(t, fixedNow, rec.CreatedAt)
	assert.Nil(t, rec.UpdatedAt)
}

func TestGenerate_SequentialCallsAreConsecutive(t *testing.T) {
	svc := newTestService(t, newCountingStore(), Options{})
	ctx := context.Background()

	a, err := svc.Generate(ctx, "payload-A")
	require.NoError(t, err)
	b, err := svc.Generate(ctx, "payload-B")
	require.NoError(t, err)

	assert.NotEqual(t, a.Code, b.Code)
	assert.Equal(t, a.Sequence+1, b.Sequence)
}

func TestGenerate_RestartSeedsAboveExistingRecords(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()

	first := newTestService(t, store, Options{})
	existing := make(map[string]struct{})
	for i := 0; i < 5; i++ {
		rec, err := first.Generate(ctx, "x")
		require.NoError(t, err)
		existing[rec.Code] = struct{}{}
	}

	// restart against the same store
	second := newTestService(t, store, Options{})
	assert.Equal(t, uint64(6), second.NextSequence())

	rec, err := second.Generate(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, uint64(6), rec.Sequence)
	_, clash := existing[rec.Code]
	assert.False(t, clash)
}

func TestGenerate_FailedInsertBurnsSequence(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	svc := newTestService(t, store, Options{})

	ok1, err := svc.Generate(ctx, "a")
	require.NoError(t, err)

	store.failInserts.Store(1)
	_, err = svc.Generate(ctx, "b")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorageFailure))
	assert.True(t, errors.Is(err, errDiskFull), "cause must stay reachable")
	assert.False(t, errors.Is(err, ErrNotFound))

	ok2, err := svc.Generate(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, ok1.Sequence+2, ok2.Sequence, "the failed attempt's sequence is never reissued")

	_, err = store.MemoryRepository.FindByCode(ctx, idgen.Encode(ok1.Sequence+1))
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestGenerate_CancelledContextBurnsSequence(t *testing.T) {
	svc := newTestService(t, newCountingStore(), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Generate(ctx, "late")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorageFailure))
	assert.True(t, errors.Is(err, context.Canceled))

	rec, err := svc.Generate(context.Background(), "on time")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), rec.Sequence)
}

func TestGenerate_CollisionIsStorageFailure(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	// a second writer already stored sequence 1
	require.NoError(t, store.MemoryRepository.Insert(ctx, &models.Record{Code: idgen.Encode(1), Sequence: 1}))

	svc := NewCodeService(store, idgen.NewSequencer(1), Options{})
	_, err := svc.Generate(ctx, "mine")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorageFailure))
	assert.True(t, errors.Is(err, repository.ErrDuplicateCode))
	assert.Equal(t, uint64(2), svc.NextSequence())
}

func TestGenerate_Concurrent(t *testing.T) {
	const n = 200
	ctx := context.Background()
	store := newCountingStore()
	svc := newTestService(t, store, Options{CacheSize: 16})

	codes := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := svc.Generate(ctx, "p")
			if assert.NoError(t, err) {
				codes <- rec.Code
			}
		}()
	}
	wg.Wait()
	close(codes)

	seen := make(map[string]struct{}, n)
	for c := range codes {
		_, dup := seen[c]
		require.False(t, dup, "code %s issued twice", c)
		seen[c] = struct{}{}
	}
	assert.Len(t, seen, n)

	count, err := store.MemoryRepository.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(n), count)
}

func TestBootstrap_CountFailureIsStartupFailure(t *testing.T) {
	store := newCountingStore()
	store.failCount.Store(true)

	svc, err := Bootstrap(context.Background(), store, Options{})
	require.Error(t, err)
	assert.Nil(t, svc)
	assert.True(t, errors.Is(err, ErrStartupFailure))
	assert.True(t, errors.Is(err, errDiskFull))
}

func TestSeedCounter(t *testing.T) {
	ctx := context.Background()

	t.Run("count plus one", func(t *testing.T) {
		store := repository.NewMemoryRepository()
		for seq := uint64(1); seq <= 5; seq++ {
			require.NoError(t, store.Insert(ctx, &models.Record{Code: idgen.Encode(seq), Sequence: seq}))
		}
		seed, err := SeedCounter(ctx, countOnlyStore{store})
		require.NoError(t, err)
		assert.Equal(t, uint64(6), seed)
	})

	t.Run("high-water mark beats count after burned sequences", func(t *testing.T) {
		store := repository.NewMemoryRepository()
		for _, seq := range []uint64{1, 2, 4, 7} {
			require.NoError(t, store.Insert(ctx, &models.Record{Code: idgen.Encode(seq), Sequence: seq}))
		}
		seed, err := SeedCounter(ctx, store)
		require.NoError(t, err)
		assert.Equal(t, uint64(8), seed)

		seed, err = SeedCounter(ctx, countOnlyStore{store})
		require.NoError(t, err)
		assert.Equal(t, uint64(5), seed)
	})
}

func TestLookup_InvalidCodeSkipsStore(t *testing.T) {
	store := newCountingStore()
	svc := newTestService(t, store, Options{CacheSize: 8})

	for _, code := range []string{"", "100", "abcdefghijkl", "10-0", "0100", "ab cd"} {
		_, err := svc.Lookup(context.Background(), code)
		assert.True(t, errors.Is(err, ErrInvalidCode), "code %q: %v", code, err)
	}
	assert.Equal(t, int64(0), store.finds.Load())
}

func TestLookup_FoundNotFoundAndFailure(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	svc := newTestService(t, store, Options{})

	rec, err := svc.Generate(ctx, "hello")
	require.NoError(t, err)

	got, err := svc.Lookup(ctx, rec.Code)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Payload)
	assert.Equal(t, rec.Sequence, got.Sequence)

	_, err = svc.Lookup(ctx, "zzzz")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrStorageFailure))

	store.failFinds.Store(true)
	_, err = svc.Lookup(ctx, rec.Code)
	assert.True(t, errors.Is(err, ErrStorageFailure))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestLookup_L1ServesRepeatReads(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	svc := newTestService(t, store, Options{CacheSize: 8})

	rec, err := svc.Generate(ctx, "cached")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := svc.Lookup(ctx, rec.Code)
		require.NoError(t, err)
		assert.Equal(t, "cached", got.Payload)
		got.Payload = "mutated by caller"
	}
	assert.Equal(t, int64(0), store.finds.Load(), "generate primes L1")
}

// fakeShared is an in-memory RecordCache that can be made to fail.
type fakeShared struct {
	mu      sync.Mutex
	records map[string]models.Record
	broken  bool
	gets    int
}

func newFakeShared() *fakeShared {
	return &fakeShared{records: make(map[string]models.Record)}
}

func (f *fakeShared) Get(_ context.Context, code string) (*models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.broken {
		return nil, errors.New("connection refused")
	}
	rec, ok := f.records[code]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &rec, nil
}

func (f *fakeShared) Set(_ context.Context, rec *models.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return errors.New("connection refused")
	}
	f.records[rec.Code] = *rec
	return nil
}

func TestLookup_SharedCacheReadThrough(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	shared := newFakeShared()

	writer := newTestService(t, store, Options{})
	rec, err := writer.Generate(ctx, "shared")
	require.NoError(t, err)

	reader := NewCodeService(store, idgen.NewSequencer(100), Options{Shared: shared})

	_, err = reader.Lookup(ctx, rec.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(1), store.finds.Load())
	assert.Contains(t, shared.records, rec.Code)

	got, err := reader.Lookup(ctx, rec.Code)
	require.NoError(t, err)
	assert.Equal(t, "shared", got.Payload)
	assert.Equal(t, rec.Sequence, got.Sequence)
	assert.Equal(t, int64(1), store.finds.Load(), "second read served by the shared cache")
}

func TestLookup_BrokenSharedCacheFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	shared := newFakeShared()
	shared.broken = true
	svc := newTestService(t, store, Options{Shared: shared})

	rec, err := svc.Generate(ctx, "still works")
	require.NoError(t, err)

	got, err := svc.Lookup(ctx, rec.Code)
	require.NoError(t, err)
	assert.Equal(t, "still works", got.Payload)
	assert.Equal(t, int64(1), store.finds.Load())
	assert.Equal(t, 1, shared.gets)
}

package idgen

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter_FirstNextReturnsSeed(t *testing.T) {
	for _, seed := range []uint64{0, 1, 6, 1 << 40} {
		c := NewCounter(seed)
		assert.Equal(t, seed, c.Peek())
		assert.Equal(t, seed, c.Next())
		assert.Equal(t, seed+1, c.Next())
		assert.Equal(t, seed+2, c.Peek())
	}
}

func TestCounter_ConcurrentNext(t *testing.T) {
	const (
		seed       = 42
		goroutines = 16
		perWorker  = 1000
	)
	c := NewCounter(seed)

	results := make([][]uint64, goroutines)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			out := make([]uint64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				out = append(out, c.Next())
			}
			results[g] = out
		}(g)
	}
	wg.Wait()

	seen := make(map[uint64]struct{}, goroutines*perWorker)
	for _, out := range results {
		for i, v := range out {
			if i > 0 {
				require.Greater(t, v, out[i-1], "values seen by one goroutine must increase")
			}
			_, dup := seen[v]
			require.False(t, dup, "value %d issued twice", v)
			seen[v] = struct{}{}
		}
	}

	require.Len(t, seen, goroutines*perWorker)
	for v := uint64(seed); v < seed+goroutines*perWorker; v++ {
		_, ok := seen[v]
		require.True(t, ok, "missing %d", v)
	}
	assert.Equal(t, uint64(seed+goroutines*perWorker), c.Peek())
}

func TestSequencer_Next(t *testing.T) {
	s := NewSequencer(6)

	seq, code := s.Next()
	assert.Equal(t, uint64(6), seq)
	assert.Equal(t, "1006", code)

	seq, code = s.Next()
	assert.Equal(t, uint64(7), seq)
	assert.Equal(t, Encode(7), code)
	assert.Equal(t, uint64(8), s.Peek())
}

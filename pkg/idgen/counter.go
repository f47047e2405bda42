package idgen

import "sync/atomic"

// Counter is a process-local monotonic sequence source.
//
// A Counter is initialized exactly once, by NewCounter, and from then on
// only hands out values through Next. Values are unique within one process
// lifetime; two processes sharing a store each have their own Counter and
// can issue the same value.
type Counter struct {
	next atomic.Uint64
}

// NewCounter returns a Counter whose first Next call returns seed.
func NewCounter(seed uint64) *Counter {
	c := &Counter{}
	c.next.Store(seed)
	return c
}

// Next returns the current value and advances the counter.
// Safe for concurrent use; never blocks.
func (c *Counter) Next() uint64 {
	return c.next.Add(1) - 1
}

// Peek returns the value the next call to Next will return.
func (c *Counter) Peek() uint64 {
	return c.next.Load()
}

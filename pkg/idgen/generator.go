package idgen

// Generator hands out fresh (sequence, code) pairs.
type Generator interface {
	Next() (seq uint64, code string)
	Peek() uint64
}

// Sequencer derives codes from a Counter. Every call consumes a sequence
// number whether or not the caller ends up persisting the code.
type Sequencer struct {
	counter *Counter
}

// NewSequencer returns a Sequencer whose first code is Encode(seed).
func NewSequencer(seed uint64) *Sequencer {
	return &Sequencer{counter: NewCounter(seed)}
}

func (s *Sequencer) Next() (uint64, string) {
	seq := s.counter.Next()
	return seq, Encode(seq)
}

func (s *Sequencer) Peek() uint64 {
	return s.counter.Peek()
}

var _ Generator = (*Sequencer)(nil)

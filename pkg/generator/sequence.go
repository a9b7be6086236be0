package generator

import "sync/atomic"

// Sequence is a monotonically increasing record counter shared by the
// workers of a run. The codec never touches it.
type Sequence struct {
	next atomic.Uint64
}

// NewSequence returns a sequence whose first value is start
func NewSequence(start uint64) *Sequence {
	s := &Sequence{}
	s.next.Store(start)
	return s
}

// Next returns the next value
func (s *Sequence) Next() uint64 {
	return s.next.Add(1) - 1
}

// Reserve claims n consecutive values and returns the first
func (s *Sequence) Reserve(n uint64) uint64 {
	return s.next.Add(n) - n
}

// Current returns the value the next call to Next will hand out
func (s *Sequence) Current() uint64 {
	return s.next.Load()
}

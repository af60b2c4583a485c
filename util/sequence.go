package util

import (
	"go.uber.org/atomic"
	"math"
)

// Sequence hands out increasing int32 values, wrapping back to 0 after math.MaxInt32.
type Sequence struct {
	nextValue atomic.Int32
}

func NewSequence(nextValue int32) *Sequence {
	s := &Sequence{}
	s.nextValue.Store(nextValue - 1)
	return s
}

func (self *Sequence) ResetTo(nextValue int32) {
	self.nextValue.Store(nextValue - 1)
}

func (self *Sequence) Next() int32 {
	self.nextValue.CAS(math.MaxInt32, -1)
	return self.nextValue.Inc()
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package evq

import (
	"math"

	"code.hybscloud.com/atomix"
	"golang.org/x/sys/cpu"
)

// InitialSequence is the value of every sequence before the first publish.
// The first published item takes sequence 0.
const InitialSequence int64 = -1

// Sequence is a monotonically increasing position in the item stream.
//
// The writer cursor, the work-queue claim cursor, and every consumer
// position are Sequences. Each sits on its own cache line so that a
// producer spinning on one does not invalidate another.
//
// Get is an acquire load and Set a release store: a consumer that observes
// the cursor at s also observes every slot write up to s.
type Sequence struct {
	_     cpu.CacheLinePad
	value atomix.Int64
	_     cpu.CacheLinePad
}

// NewSequence returns a Sequence holding v.
func NewSequence(v int64) *Sequence {
	s := &Sequence{}
	s.value.StoreRelaxed(v)
	return s
}

// Get returns the current value (acquire).
func (s *Sequence) Get() int64 {
	return s.value.LoadAcquire()
}

// Set stores v (release).
func (s *Sequence) Set(v int64) {
	s.value.StoreRelease(v)
}

// IncrementAndGet adds one and returns the new value.
func (s *Sequence) IncrementAndGet() int64 {
	return s.value.AddAcqRel(1)
}

// CompareAndSet sets the value to next if it still holds expected.
func (s *Sequence) CompareAndSet(expected, next int64) bool {
	return s.value.CompareAndSwapAcqRel(expected, next)
}

// MinimumSequence returns the smallest value in seqs, or floor when seqs is
// empty.
func MinimumSequence(seqs []*Sequence, floor int64) int64 {
	if len(seqs) == 0 {
		return floor
	}
	minimum := int64(math.MaxInt64)
	for _, s := range seqs {
		if v := s.Get(); v < minimum {
			minimum = v
		}
	}
	return minimum
}

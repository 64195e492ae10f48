// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package evq

import "code.hybscloud.com/atomix"

// Barrier blocks consumers until the writer cursor reaches a requested
// sequence.
//
// The cursor only advances contiguously, so the value WaitFor returns is
// the highest sequence whose slot is fully written.
type Barrier struct {
	cursor  *Sequence
	wait    WaitStrategy
	alerted atomix.Bool
}

// NewBarrier returns a barrier over cursor using the given wait strategy.
func NewBarrier(cursor *Sequence, wait WaitStrategy) *Barrier {
	return &Barrier{cursor: cursor, wait: wait}
}

// WaitFor returns the highest available sequence once it is >= seq.
//
// With a time-bounded wait strategy the result may be below seq with a
// nil error: nothing was published in time. Returns ErrInterrupted if the
// barrier is alerted.
func (b *Barrier) WaitFor(seq int64) (int64, error) {
	if b.Alerted() {
		return 0, ErrInterrupted
	}
	if available := b.cursor.Get(); available >= seq {
		return available, nil
	}
	return b.wait.WaitFor(seq, b.cursor, b)
}

// Cursor returns the current writer cursor.
func (b *Barrier) Cursor() int64 {
	return b.cursor.Get()
}

// Alert marks the barrier and wakes every waiter.
func (b *Barrier) Alert() {
	b.alerted.StoreRelease(true)
	b.wait.SignalAllWhenBlocking()
}

// Alerted reports whether Alert has been called.
func (b *Barrier) Alerted() bool {
	return b.alerted.LoadAcquire()
}

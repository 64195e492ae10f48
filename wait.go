// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package evq

import (
	"runtime"
	"sync"
	"time"

	"code.hybscloud.com/spin"
)

// WaitStrategy decides how a consumer waits for the writer cursor.
//
// Implementations are swappable; tests substitute deterministic fakes.
type WaitStrategy interface {
	// WaitFor waits until cursor reaches seq and returns the cursor value.
	//
	// A strategy with a time bound returns a value below seq with a nil
	// error when the bound elapses. Returns ErrInterrupted once the barrier
	// is alerted.
	WaitFor(seq int64, cursor *Sequence, b *Barrier) (int64, error)

	// SignalAllWhenBlocking wakes consumers parked by the strategy.
	// Producers call it after every publish.
	SignalAllWhenBlocking()
}

// BusySpinWait spins on the cursor with CPU pause hints.
//
// Lowest latency, one core burnt per waiting consumer. Never times out.
type BusySpinWait struct{}

// WaitFor spins until the cursor reaches seq or the barrier is alerted.
func (BusySpinWait) WaitFor(seq int64, cursor *Sequence, b *Barrier) (int64, error) {
	sw := spin.Wait{}
	for {
		if available := cursor.Get(); available >= seq {
			return available, nil
		}
		if b.Alerted() {
			return 0, ErrInterrupted
		}
		sw.Once()
	}
}

// SignalAllWhenBlocking is a no-op: nothing parks.
func (BusySpinWait) SignalAllWhenBlocking() {}

// defaultSpinTries is how many pause rounds YieldingWait spends before it
// starts yielding the processor.
const defaultSpinTries = 100

// YieldingWait spins briefly, then yields the processor between checks.
//
// A compromise between latency and CPU use. Never times out.
type YieldingWait struct {
	// SpinTries is the number of pause rounds before yielding.
	// Zero means the default of 100.
	SpinTries int
}

// WaitFor spins, then yields, until the cursor reaches seq or the barrier
// is alerted.
func (w YieldingWait) WaitFor(seq int64, cursor *Sequence, b *Barrier) (int64, error) {
	tries := w.SpinTries
	if tries <= 0 {
		tries = defaultSpinTries
	}
	sw := spin.Wait{}
	for {
		if available := cursor.Get(); available >= seq {
			return available, nil
		}
		if b.Alerted() {
			return 0, ErrInterrupted
		}
		if tries > 0 {
			tries--
			sw.Once()
			continue
		}
		runtime.Gosched()
	}
}

// SignalAllWhenBlocking is a no-op: nothing parks.
func (YieldingWait) SignalAllWhenBlocking() {}

// BlockingWait parks consumers until a producer signals or the timeout
// elapses.
//
// Waiters share one signal channel that producers close on publish; closing
// wakes every waiter at once. The cursor is re-checked under the mutex, so
// a publish that races with a waiter going to sleep is never lost.
type BlockingWait struct {
	timeout time.Duration
	mu      sync.Mutex
	signal  chan struct{}
}

// NewBlockingWait returns a BlockingWait with the given timeout.
// A timeout <= 0 waits without bound.
func NewBlockingWait(timeout time.Duration) *BlockingWait {
	return &BlockingWait{timeout: timeout}
}

// Timeout returns the wait bound.
func (w *BlockingWait) Timeout() time.Duration {
	return w.timeout
}

// WaitFor parks until the cursor reaches seq, the barrier is alerted, or
// the timeout elapses. On timeout it returns the current cursor and nil.
func (w *BlockingWait) WaitFor(seq int64, cursor *Sequence, b *Barrier) (int64, error) {
	if available := cursor.Get(); available >= seq {
		return available, nil
	}

	var expired <-chan time.Time
	if w.timeout > 0 {
		timer := time.NewTimer(w.timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		w.mu.Lock()
		if available := cursor.Get(); available >= seq {
			w.mu.Unlock()
			return available, nil
		}
		if b.Alerted() {
			w.mu.Unlock()
			return 0, ErrInterrupted
		}
		if w.signal == nil {
			w.signal = make(chan struct{})
		}
		signal := w.signal
		w.mu.Unlock()

		select {
		case <-signal:
		case <-expired:
			return cursor.Get(), nil
		}
	}
}

// SignalAllWhenBlocking wakes every parked consumer.
func (w *BlockingWait) SignalAllWhenBlocking() {
	w.mu.Lock()
	if w.signal != nil {
		close(w.signal)
		w.signal = nil
	}
	w.mu.Unlock()
}

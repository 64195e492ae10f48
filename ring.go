// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package evq

import (
	"errors"
	"sync"

	"code.hybscloud.com/atomix"
	"github.com/sirupsen/logrus"
)

// Ring is the sequence-barrier queue variant.
//
// Producers claim write sequences through a ClaimStrategy, write the slot
// at seq&mask, and publish by advancing the cursor. Consumers wait on a
// Barrier over the cursor. Every configured consumer owns a gating
// Sequence; producers never claim past the slowest one by more than the
// capacity, so no unread slot is overwritten.
//
// With one consumer, ConsumeBatchWhenAvailable drains everything published
// since the last call as one batch, in publish order. With more than one,
// consumers form a work queue: each claims the next sequence from a shared
// work cursor and receives exactly that item.
//
// State is exact: population = cursor - min(consumer sequences).
//
// Memory: capacity slots of one payload plus a one-byte tag each.
type Ring[T any] struct {
	cursor   Sequence // Highest published sequence
	work     Sequence // Highest claimed sequence in work-queue mode
	claim    ClaimStrategy
	wait     WaitStrategy
	barrier  *Barrier
	gating   []*Sequence // One per configured consumer
	slots    []event[T]
	mask     int64
	capacity int64

	interrupted   atomix.Bool
	interruptOnce sync.Once

	mu      sync.Mutex
	started int // Registered consumers

	name string
	log  *logrus.Entry
}

func newRing[T any](o Options) *Ring[T] {
	n := int64(roundToPow2(o.capacity))
	q := &Ring[T]{
		claim:    o.claimStrategy(),
		wait:     o.waitStrategy(),
		gating:   make([]*Sequence, o.consumers),
		slots:    make([]event[T], n),
		mask:     n - 1,
		capacity: n,
		name:     o.name,
		log:      o.entry(),
	}
	q.cursor.Set(InitialSequence)
	q.work.Set(InitialSequence)
	for i := range q.gating {
		q.gating[i] = NewSequence(InitialSequence)
	}
	q.barrier = NewBarrier(&q.cursor, q.wait)

	q.log.WithFields(logrus.Fields{
		"capacity":  n,
		"consumers": o.consumers,
	}).Debug("ring queue created")
	return q
}

// Publish adds an item, blocking while the gating set leaves no free slot.
// Returns ErrInterrupted if the queue is interrupted.
func (q *Ring[T]) Publish(elem *T) error {
	return q.publish(dataEvent(elem), true)
}

// TryPublish adds an item without blocking.
// Returns ErrWouldBlock if there is insufficient capacity.
func (q *Ring[T]) TryPublish(elem *T) error {
	return q.publish(dataEvent(elem), false)
}

func (q *Ring[T]) publish(ev event[T], block bool) error {
	if q.Interrupted() {
		return ErrInterrupted
	}

	var seq int64
	var err error
	if block {
		seq, err = q.claim.Next(q)
	} else {
		seq, err = q.claim.TryNext(q)
	}
	if err != nil {
		if errors.Is(err, ErrInterrupted) {
			q.log.Error("producer interrupted while waiting for capacity")
		}
		return err
	}

	// The claim is exclusive: no other producer writes this slot and no
	// consumer reads it until the cursor passes seq.
	q.slots[seq&q.mask] = ev

	if err := q.claim.Publish(seq, &q.cursor, q); err != nil {
		q.log.WithField(fieldSequence, seq).Error("producer interrupted before publishing")
		return err
	}
	q.wait.SignalAllWhenBlocking()
	return nil
}

// HaltWithInterrupt publishes halt markers through the data path: one in
// batch mode, one per configured consumer in work-queue mode so that every
// worker observes exactly one.
func (q *Ring[T]) HaltWithInterrupt() error {
	for range q.gating {
		if err := q.publish(haltEvent[T](), true); err != nil {
			return err
		}
	}
	q.log.WithField("markers", len(q.gating)).Info("halt published")
	return nil
}

// Interrupt alerts the barrier and wakes blocked producers and consumers,
// which return ErrInterrupted. The queue is unusable afterwards.
func (q *Ring[T]) Interrupt() {
	q.interruptOnce.Do(func() {
		q.interrupted.StoreRelease(true)
		q.barrier.Alert()
		q.log.Warn("queue interrupted")
	})
}

// Interrupted reports whether Interrupt has been called.
func (q *Ring[T]) Interrupted() bool {
	return q.interrupted.LoadAcquire()
}

// ConsumerStarted registers the next consumer identity.
// Returns ErrTooManyConsumers once every configured consumer is registered.
func (q *Ring[T]) ConsumerStarted() (Consumer[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started >= len(q.gating) {
		return nil, ErrTooManyConsumers
	}
	id := q.started
	q.started++

	q.log.WithField(fieldConsumer, id).Debug("consumer started")
	if len(q.gating) == 1 {
		return &batchConsumer[T]{ring: q, id: id, seq: q.gating[id]}, nil
	}
	return &workConsumer[T]{ring: q, id: id, seq: q.gating[id]}, nil
}

// available returns the highest published sequence for a consumer
// wanting seq, waiting on the barrier only if wait is set.
func (q *Ring[T]) available(seq int64, wait bool) (int64, error) {
	if wait {
		return q.barrier.WaitFor(seq)
	}
	if q.barrier.Alerted() {
		return 0, ErrInterrupted
	}
	return q.barrier.Cursor(), nil
}

// Barrier returns the consumer barrier over the writer cursor.
func (q *Ring[T]) Barrier() *Barrier {
	return q.barrier
}

// State returns an exact snapshot.
func (q *Ring[T]) State() State {
	// get readPos then writePos so it's never an under-estimate
	rp := q.Minimum()
	wp := q.cursor.Get()
	return newState(q.capacity, wp, rp)
}

// Capacity returns the number of slots. Part of Gate.
func (q *Ring[T]) Capacity() int64 {
	return q.capacity
}

// Minimum returns the slowest consumer sequence. Part of Gate.
func (q *Ring[T]) Minimum() int64 {
	return MinimumSequence(q.gating, q.cursor.Get())
}

// WorkQueue reports whether the ring runs in work-queue mode.
func (q *Ring[T]) WorkQueue() bool {
	return len(q.gating) > 1
}

// Population returns the number of published items not yet read by the
// slowest consumer.
func (q *Ring[T]) Population() int64 {
	return q.State().Population
}

// Cap returns the queue capacity.
func (q *Ring[T]) Cap() int {
	return int(q.capacity)
}

// Name returns the queue name.
func (q *Ring[T]) Name() string {
	return q.name
}

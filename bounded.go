// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package evq

import (
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"github.com/sirupsen/logrus"
)

// Bounded is the bounded-blocking queue variant.
//
// One buffered channel holds every item; there are no per-consumer cursors.
// Blocked producers are admitted in arrival order. Consumers share the
// channel, so with several consumers each item still goes to exactly one
// of them, but batches are whatever each consumer happened to drain.
//
// Capacity is exact: the channel admits the configured number of items.
//
// State is exact: write and read counters are kept beside the channel.
// A consumer moves everything it drains out of the channel before
// delivering it, so a drained batch counts as read at once. If the handler
// fails, the undelivered rest stays with that consumer and is delivered on
// its next call; other consumers never see it and State does not count it
// as population.
type Bounded[T any] struct {
	events      chan event[T]
	interrupted chan struct{}
	once        sync.Once

	written atomix.Int64 // Items (and halt markers) sent
	read    atomix.Int64 // Items (and halt markers) received

	timeout   time.Duration
	capacity  int
	consumers int

	mu      sync.Mutex
	started int

	name string
	log  *logrus.Entry
}

func newBounded[T any](o Options) *Bounded[T] {
	n := o.capacity
	q := &Bounded[T]{
		events:      make(chan event[T], n),
		interrupted: make(chan struct{}),
		timeout:     o.waitTimeout,
		capacity:    n,
		consumers:   o.consumers,
		name:        o.name,
		log:         o.entry(),
	}
	if o.waitPolicy != WaitBlocking {
		q.timeout = DefaultWaitTimeout
	}

	q.log.WithFields(logrus.Fields{
		"capacity":  n,
		"consumers": o.consumers,
		"timeout":   q.timeout,
	}).Debug("bounded queue created")
	return q
}

// Publish adds an item, blocking while the queue is full.
// Returns ErrInterrupted if the queue is interrupted, including while
// blocked.
func (q *Bounded[T]) Publish(elem *T) error {
	return q.publish(dataEvent(elem))
}

// TryPublish adds an item without blocking.
// Returns ErrWouldBlock if the queue is full.
func (q *Bounded[T]) TryPublish(elem *T) error {
	if q.isInterrupted() {
		return ErrInterrupted
	}
	select {
	case q.events <- dataEvent(elem):
		q.written.AddAcqRel(1)
		return nil
	default:
		return ErrWouldBlock
	}
}

func (q *Bounded[T]) publish(ev event[T]) error {
	if q.isInterrupted() {
		return ErrInterrupted
	}
	select {
	case q.events <- ev:
		q.written.AddAcqRel(1)
		return nil
	case <-q.interrupted:
		q.log.Error("producer interrupted while waiting for capacity")
		return ErrInterrupted
	}
}

// HaltWithInterrupt publishes one halt marker per configured consumer
// through the channel.
func (q *Bounded[T]) HaltWithInterrupt() error {
	for range q.consumers {
		if err := q.publish(haltEvent[T]()); err != nil {
			return err
		}
	}
	q.log.WithField("markers", q.consumers).Info("halt published")
	return nil
}

// Interrupt wakes blocked producers and consumers, which return
// ErrInterrupted. The queue is unusable afterwards.
func (q *Bounded[T]) Interrupt() {
	q.once.Do(func() {
		close(q.interrupted)
		q.log.Warn("queue interrupted")
	})
}

func (q *Bounded[T]) isInterrupted() bool {
	select {
	case <-q.interrupted:
		return true
	default:
		return false
	}
}

// ConsumerStarted registers the next consumer identity.
// Returns ErrTooManyConsumers once every configured consumer is registered.
func (q *Bounded[T]) ConsumerStarted() (Consumer[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started >= q.consumers {
		return nil, ErrTooManyConsumers
	}
	id := q.started
	q.started++

	q.log.WithField(fieldConsumer, id).Debug("consumer started")
	return &boundedConsumer[T]{
		q:     q,
		id:    id,
		batch: make([]T, 0, q.capacity),
	}, nil
}

// State returns an exact snapshot.
func (q *Bounded[T]) State() State {
	// get readPos then writePos so it's never an under-estimate
	rp := q.read.LoadAcquire() - 1
	wp := q.written.LoadAcquire() - 1
	return newState(int64(q.capacity), wp, rp)
}

// Population returns the number of published items not yet read by the
// slowest consumer.
func (q *Bounded[T]) Population() int64 {
	return q.State().Population
}

// Cap returns the queue capacity.
func (q *Bounded[T]) Cap() int {
	return q.capacity
}

// Name returns the queue name.
func (q *Bounded[T]) Name() string {
	return q.name
}

// boundedConsumer drains the shared channel.
//
// Items are moved out of the channel into batch before delivery so that
// isLast is exact even while other consumers compete for the channel.
// Whatever a failing handler leaves undelivered is delivered first on the
// next call.
type boundedConsumer[T any] struct {
	consumerCycle
	q     *Bounded[T]
	id    int
	batch []T  // Collected, delivered from off
	off   int  // First undelivered index
	halt  bool // A halt marker follows the batch
}

func (c *boundedConsumer[T]) ID() int {
	return c.id
}

// ConsumeBatchWhenAvailable drains everything currently buffered as one
// batch. If nothing is buffered it waits up to the configured timeout for
// one item and then drains whatever else accumulated meanwhile.
func (c *boundedConsumer[T]) ConsumeBatchWhenAvailable(h Handler[T]) (int, error) {
	return c.consume(h, true)
}

// ConsumeBatch drains only what is buffered now, without waiting.
func (c *boundedConsumer[T]) ConsumeBatch(h Handler[T]) (int, error) {
	return c.consume(h, false)
}

func (c *boundedConsumer[T]) consume(h Handler[T], wait bool) (int, error) {
	if h == nil {
		panic("evq: nil handler")
	}
	if c.State() == Halted {
		return 0, ErrHalted
	}
	if c.off < len(c.batch) || c.halt {
		return c.deliver(h)
	}

	q := c.q
	if q.isInterrupted() {
		return 0, ErrInterrupted
	}

	c.batch = c.batch[:0]
	c.off = 0
	if size := len(q.events); size > 0 {
		c.collect(size)
	} else if !wait {
		return 0, nil
	} else {
		c.set(WaitingOnBarrier)
		var expired <-chan time.Time
		if q.timeout > 0 {
			timer := time.NewTimer(q.timeout)
			defer timer.Stop()
			expired = timer.C
		}
		select {
		case ev := <-q.events:
			q.read.AddAcqRel(1)
			if ev.isHalt() {
				c.halt = true
			} else {
				c.batch = append(c.batch, ev.data)
				c.collect(len(q.events))
			}
		case <-expired:
			c.set(Idle)
			return 0, nil
		case <-q.interrupted:
			c.set(Idle)
			return 0, ErrInterrupted
		}
	}

	if len(c.batch) == 0 && !c.halt {
		// Another consumer drained what we saw buffered.
		c.set(Idle)
		return 0, nil
	}
	return c.deliver(h)
}

// collect moves up to limit buffered events into the batch without blocking.
// It stops after a halt marker.
func (c *boundedConsumer[T]) collect(limit int) {
	q := c.q
	for range limit {
		select {
		case ev := <-q.events:
			q.read.AddAcqRel(1)
			if ev.isHalt() {
				c.halt = true
				return
			}
			c.batch = append(c.batch, ev.data)
		default:
			return
		}
	}
}

func (c *boundedConsumer[T]) deliver(h Handler[T]) (int, error) {
	c.set(Delivering)
	n := 0
	last := len(c.batch) - 1
	for c.off <= last {
		i := c.off
		elem := c.batch[i]
		var zero T
		c.batch[i] = zero
		c.off++
		if err := h(elem, n, i == last); err != nil {
			c.set(Idle)
			return n, err
		}
		n++
	}
	c.batch = c.batch[:0]
	c.off = 0

	if c.halt {
		c.halt = false
		c.set(Halted)
		c.q.log.WithField(fieldConsumer, c.id).Info("consumer halted")
		return n, ErrHalted
	}
	c.set(Idle)
	return n, nil
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package evq

import "code.hybscloud.com/atomix"

// consumerCycle tracks a consumer's ConsumerState.
// Written by the owning goroutine, readable from any goroutine.
type consumerCycle struct {
	state atomix.Int32
}

func (c *consumerCycle) State() ConsumerState {
	return ConsumerState(c.state.Load())
}

func (c *consumerCycle) set(s ConsumerState) {
	c.state.Store(int32(s))
}

// batchConsumer is the single consumer of a ring in batch mode.
// It observes every published item exactly once, in publish order.
type batchConsumer[T any] struct {
	consumerCycle
	ring *Ring[T]
	id   int
	seq  *Sequence // Last consumed sequence, gates producers
}

func (c *batchConsumer[T]) ID() int {
	return c.id
}

// ConsumeBatchWhenAvailable waits for the next sequence and then delivers
// everything published up to the barrier's answer as one batch.
//
// A halt marker inside the batch cuts it: the item before the marker is
// delivered with isLast set, the marker is consumed, and ErrHalted is
// returned. A handler error stops delivery; the failing item counts as
// consumed and the rest of the batch stays for the next call.
func (c *batchConsumer[T]) ConsumeBatchWhenAvailable(h Handler[T]) (int, error) {
	return c.consume(h, true)
}

// ConsumeBatch delivers what is published already, without waiting.
func (c *batchConsumer[T]) ConsumeBatch(h Handler[T]) (int, error) {
	return c.consume(h, false)
}

func (c *batchConsumer[T]) consume(h Handler[T], wait bool) (int, error) {
	if h == nil {
		panic("evq: nil handler")
	}
	if c.State() == Halted {
		return 0, ErrHalted
	}

	q := c.ring
	next := c.seq.Get() + 1

	if wait {
		c.set(WaitingOnBarrier)
	}
	available, err := q.available(next, wait)
	if err != nil {
		c.set(Idle)
		return 0, err
	}
	if available < next {
		c.set(Idle)
		return 0, nil
	}

	last, halt := available, false
	for s := next; s <= available; s++ {
		if q.slots[s&q.mask].isHalt() {
			last, halt = s-1, true
			break
		}
	}

	c.set(Delivering)
	n := 0
	for s := next; s <= last; s++ {
		ev := q.slots[s&q.mask].take()
		if err := h(ev.data, n, s == last); err != nil {
			c.seq.Set(s)
			c.set(Idle)
			return n, err
		}
		n++
	}

	if halt {
		q.slots[(last+1)&q.mask].take()
		c.seq.Set(last + 1)
		c.set(Halted)
		q.log.WithField(fieldConsumer, c.id).Info("consumer halted")
		return n, ErrHalted
	}

	c.seq.Set(last)
	c.set(Idle)
	return n, nil
}

// workConsumer is one worker of a ring in work-queue mode.
// Each published item is claimed by exactly one worker.
type workConsumer[T any] struct {
	consumerCycle
	ring    *Ring[T]
	id      int
	seq     *Sequence // Gates producers
	next    int64     // Claimed, not yet delivered
	claimed bool
}

func (c *workConsumer[T]) ID() int {
	return c.id
}

// ConsumeBatchWhenAvailable claims the next unclaimed sequence and
// delivers that one item (pos 0, isLast true).
//
// A claim survives a wait that times out; the next call waits on the same
// sequence.
func (c *workConsumer[T]) ConsumeBatchWhenAvailable(h Handler[T]) (int, error) {
	return c.consume(h, true)
}

// ConsumeBatch delivers the claimed item if it is published already. The
// claim is kept otherwise.
func (c *workConsumer[T]) ConsumeBatch(h Handler[T]) (int, error) {
	return c.consume(h, false)
}

func (c *workConsumer[T]) consume(h Handler[T], wait bool) (int, error) {
	if h == nil {
		panic("evq: nil handler")
	}
	if c.State() == Halted {
		return 0, ErrHalted
	}

	q := c.ring
	if !c.claimed {
		c.next = q.work.IncrementAndGet()
		// Producers must not lap the item this worker is about to read.
		c.seq.Set(c.next - 1)
		c.claimed = true
	}

	if wait {
		c.set(WaitingOnBarrier)
	}
	available, err := q.available(c.next, wait)
	if err != nil {
		c.set(Idle)
		return 0, err
	}
	if available < c.next {
		c.set(Idle)
		return 0, nil
	}

	c.set(Delivering)
	seq := c.next
	ev := q.slots[seq&q.mask].take()
	c.claimed = false
	c.seq.Set(seq)

	if ev.isHalt() {
		c.set(Halted)
		q.log.WithField(fieldConsumer, c.id).Info("consumer halted")
		return 0, ErrHalted
	}
	if err := h(ev.data, 0, true); err != nil {
		c.set(Idle)
		return 0, err
	}
	c.set(Idle)
	return 1, nil
}

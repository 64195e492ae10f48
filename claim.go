// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package evq

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
	"golang.org/x/sys/cpu"
)

// Gate is the producer's view of the gating set.
type Gate interface {
	// Capacity returns the number of slots in the ring.
	Capacity() int64
	// Minimum returns the slowest consumer sequence.
	Minimum() int64
	// Interrupted reports whether the queue was interrupted.
	Interrupted() bool
}

// ClaimStrategy reserves write sequences for producers.
//
// A sequence s may be claimed only when s - Capacity() <= Minimum(), so a
// producer never overwrites a slot some consumer has not read yet.
//
// Implementations are swappable; tests substitute deterministic fakes.
type ClaimStrategy interface {
	// Next claims the next sequence, blocking until the gate admits it.
	// Returns ErrInterrupted if the gate is interrupted while waiting.
	Next(g Gate) (int64, error)

	// TryNext claims the next sequence without blocking.
	// Returns ErrWouldBlock if there is insufficient capacity.
	TryNext(g Gate) (int64, error)

	// Publish makes the claimed sequence visible by advancing cursor.
	Publish(seq int64, cursor *Sequence, g Gate) error
}

// NewSingleProducerClaim returns the claim strategy for one producer
// goroutine.
//
// Claiming is a plain increment. The producer caches the last observed
// gating minimum and only re-reads consumer sequences when the cached value
// no longer admits the claim, reducing cross-core traffic.
func NewSingleProducerClaim() ClaimStrategy {
	return &singleProducerClaim{
		next:      InitialSequence,
		cachedMin: InitialSequence,
	}
}

type singleProducerClaim struct {
	_         cpu.CacheLinePad
	next      int64 // Last claimed sequence, producer-owned
	cachedMin int64 // Producer's cached view of the gating minimum
	_         cpu.CacheLinePad
}

func (c *singleProducerClaim) Next(g Gate) (int64, error) {
	next := c.next + 1
	wrap := next - g.Capacity()
	if wrap > c.cachedMin {
		backoff := iox.Backoff{}
		for {
			minimum := g.Minimum()
			if wrap <= minimum {
				c.cachedMin = minimum
				break
			}
			if g.Interrupted() {
				return 0, ErrInterrupted
			}
			backoff.Wait()
		}
	}
	c.next = next
	return next, nil
}

func (c *singleProducerClaim) TryNext(g Gate) (int64, error) {
	next := c.next + 1
	wrap := next - g.Capacity()
	if wrap > c.cachedMin {
		c.cachedMin = g.Minimum()
		if wrap > c.cachedMin {
			return 0, ErrWouldBlock
		}
	}
	c.next = next
	return next, nil
}

func (c *singleProducerClaim) Publish(seq int64, cursor *Sequence, _ Gate) error {
	cursor.Set(seq)
	return nil
}

// NewMultiProducerClaim returns the claim strategy for concurrent
// producers.
//
// Blocking claims use Fetch-And-Add and then wait for capacity; non-blocking
// claims use CAS so a full ring is detected before a sequence is taken.
// Publishing is serialised in claim order, which keeps the cursor contiguous:
// a consumer that sees the cursor at s may read every slot up to s.
func NewMultiProducerClaim() ClaimStrategy {
	c := &multiProducerClaim{}
	c.claimed.Set(InitialSequence)
	return c
}

type multiProducerClaim struct {
	claimed Sequence // Highest claimed sequence
}

func (c *multiProducerClaim) Next(g Gate) (int64, error) {
	next := c.claimed.IncrementAndGet()
	wrap := next - g.Capacity()
	backoff := iox.Backoff{}
	for wrap > g.Minimum() {
		if g.Interrupted() {
			return 0, ErrInterrupted
		}
		backoff.Wait()
	}
	return next, nil
}

func (c *multiProducerClaim) TryNext(g Gate) (int64, error) {
	sw := spin.Wait{}
	for {
		current := c.claimed.Get()
		next := current + 1
		if next-g.Capacity() > g.Minimum() {
			return 0, ErrWouldBlock
		}
		if c.claimed.CompareAndSet(current, next) {
			return next, nil
		}
		sw.Once()
	}
}

func (c *multiProducerClaim) Publish(seq int64, cursor *Sequence, g Gate) error {
	expected := seq - 1
	sw := spin.Wait{}
	for cursor.Get() != expected {
		if g.Interrupted() {
			return ErrInterrupted
		}
		sw.Once()
	}
	cursor.Set(seq)
	return nil
}

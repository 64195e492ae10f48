// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package evq

import (
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultWaitTimeout bounds a blocking consumer wait unless configured.
const DefaultWaitTimeout = 100 * time.Millisecond

// Options configures queue creation.
type Options struct {
	name string

	// Capacity (the ring rounds up to next power of 2)
	capacity int

	// Producer/consumer shape
	singleProducer bool
	consumers      int // 1 = batch mode, >1 = work-queue mode

	// Variant selection
	bounded bool

	// Consumer wait behaviour
	waitPolicy  WaitPolicy
	waitTimeout time.Duration

	// Injected strategies (override the policies above)
	wait  WaitStrategy
	claim ClaimStrategy

	logger logrus.FieldLogger
}

// Builder creates queues with fluent configuration.
//
// Example:
//
//	// Ring variant, one consumer draining in batches
//	q := evq.BuildRing[Tuple](evq.New(1024).Named("spout-0"))
//
//	// Ring variant, four work-queue workers, single producer, busy spin
//	q := evq.BuildRing[Tuple](evq.New(4096).SingleProducer().Consumers(4).BusySpin())
//
//	// Bounded-blocking variant
//	q := evq.Build[Tuple](evq.New(1024).Bounded().Blocking(50 * time.Millisecond))
type Builder struct {
	opts Options
}

// New creates a queue builder with the given capacity.
//
// The ring variant rounds capacity up to the next power of 2.
// For example, capacity=4 results in actual capacity=4, capacity=1000 results
// in actual capacity=1024. The bounded variant admits exactly capacity items.
//
// Defaults: ring variant, multi-producer claim, one consumer, blocking wait
// bounded by DefaultWaitTimeout.
//
// Panics if capacity < 2.
func New(capacity int) *Builder {
	if capacity < 2 {
		panic("evq: capacity must be >= 2")
	}
	return &Builder{opts: Options{
		name:        "queue",
		capacity:    capacity,
		consumers:   1,
		waitPolicy:  WaitBlocking,
		waitTimeout: DefaultWaitTimeout,
	}}
}

// Named sets the queue name used in logs.
func (b *Builder) Named(name string) *Builder {
	b.opts.name = name
	return b
}

// SingleProducer declares that only one goroutine will publish.
// Claiming becomes a plain increment instead of an atomic read-modify-write.
func (b *Builder) SingleProducer() *Builder {
	b.opts.singleProducer = true
	return b
}

// Consumers sets the number of consumers.
//
// One consumer drains in batches and observes every item in publish order.
// More than one selects work-queue mode: each item goes to exactly one
// consumer, one item per consumption call.
//
// Panics if n < 1.
func (b *Builder) Consumers(n int) *Builder {
	if n < 1 {
		panic("evq: consumers must be >= 1")
	}
	b.opts.consumers = n
	return b
}

// BusySpin makes ring consumers spin while waiting for data.
// The bounded variant has no spinning mode and ignores it.
func (b *Builder) BusySpin() *Builder {
	b.opts.waitPolicy = WaitBusySpin
	return b
}

// Yielding makes ring consumers spin briefly, then yield the processor.
// The bounded variant has no spinning mode and ignores it.
func (b *Builder) Yielding() *Builder {
	b.opts.waitPolicy = WaitYielding
	return b
}

// Blocking makes consumers park for at most timeout while waiting for data.
// A timeout <= 0 waits without bound.
func (b *Builder) Blocking(timeout time.Duration) *Builder {
	b.opts.waitPolicy = WaitBlocking
	b.opts.waitTimeout = timeout
	return b
}

// Bounded selects the bounded-blocking variant.
func (b *Builder) Bounded() *Builder {
	b.opts.bounded = true
	return b
}

// WaitStrategy installs a custom consumer wait strategy for the ring
// variant. The strategy must not be shared between queues.
func (b *Builder) WaitStrategy(w WaitStrategy) *Builder {
	b.opts.wait = w
	return b
}

// ClaimStrategy installs a custom producer claim strategy for the ring
// variant. The strategy must not be shared between queues.
func (b *Builder) ClaimStrategy(c ClaimStrategy) *Builder {
	b.opts.claim = c
	return b
}

// Logger sets the logger. Defaults to the package logger.
func (b *Builder) Logger(l logrus.FieldLogger) *Builder {
	b.opts.logger = l
	return b
}

// Build creates a Queue[T].
//
// Variant selection:
//
//	Bounded()  → Bounded[T] (buffered channel, one shared cursor)
//	default    → Ring[T]    (sequence barrier, per-consumer cursors)
func Build[T any](b *Builder) Queue[T] {
	if b.opts.bounded {
		return newBounded[T](b.opts)
	}
	return newRing[T](b.opts)
}

// BuildRing creates a ring-variant queue.
// Panics if the builder is configured with Bounded().
func BuildRing[T any](b *Builder) *Ring[T] {
	if b.opts.bounded {
		panic("evq: BuildRing requires a builder without Bounded()")
	}
	return newRing[T](b.opts)
}

// BuildBounded creates a bounded-blocking queue.
// Panics if the builder is not configured with Bounded().
func BuildBounded[T any](b *Builder) *Bounded[T] {
	if !b.opts.bounded {
		panic("evq: BuildBounded requires Bounded()")
	}
	return newBounded[T](b.opts)
}

func (o *Options) waitStrategy() WaitStrategy {
	if o.wait != nil {
		return o.wait
	}
	switch o.waitPolicy {
	case WaitBusySpin:
		return BusySpinWait{}
	case WaitYielding:
		return YieldingWait{}
	default:
		return NewBlockingWait(o.waitTimeout)
	}
}

func (o *Options) claimStrategy() ClaimStrategy {
	if o.claim != nil {
		return o.claim
	}
	if o.singleProducer {
		return NewSingleProducerClaim()
	}
	return NewMultiProducerClaim()
}

func (o *Options) entry() *logrus.Entry {
	l := o.logger
	if l == nil {
		l = log
	}
	return l.WithField(fieldQueue, o.name)
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

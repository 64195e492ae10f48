// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package evq provides the event queue that feeds a stream-processing
// stage: many producer goroutines (upstream stages) hand items to one or
// more consumer goroutines (the stage's execution loop).
//
// Two variants implement the same [Queue] contract:
//
//   - [Ring]: a preallocated ring of slots addressed by sequence numbers,
//     a writer cursor, one gating sequence per consumer, and a [Barrier]
//     that consumers wait on. Exact state, batch draining, and true
//     work-queue fan-out.
//   - [Bounded]: one shared buffered channel. Simple FIFO admission in
//     arrival order, no per-consumer cursors.
//
// # Quick Start
//
//	q := evq.Build[Tuple](evq.New(1024).Named("count-bolt"))
//	c, _ := q.ConsumerStarted()
//
//	go func() { // Stage execution loop
//	    for {
//	        _, err := c.ConsumeBatchWhenAvailable(func(t Tuple, pos int, isLast bool) error {
//	            buffer(t)
//	            if isLast {
//	                return flush() // once per batch
//	            }
//	            return nil
//	        })
//	        if evq.IsHalted(err) {
//	            return
//	        }
//	    }
//	}()
//
//	// Upstream stages
//	t := Tuple{Word: "storm"}
//	q.Publish(&t)
//
//	// Teardown
//	q.HaltWithInterrupt()
//
// # Configuration
//
// Builder options map one-to-one onto the construction parameters:
//
//	evq.New(capacity)          // queue depth (ring: rounded up to a power of 2)
//	    .SingleProducer()      // claim: plain increment (default: multi-producer CAS/FAA)
//	    .Consumers(n)          // 1 = batch mode, >1 = work-queue workers
//	    .BusySpin()            // wait: spin with CPU pause hints
//	    .Yielding()            // wait: spin, then yield the processor
//	    .Blocking(timeout)     // wait: park up to timeout (default, 100ms)
//	    .Bounded()             // variant: bounded-blocking channel
//
// [Config] carries the same parameters as plain data for configuration
// maps and flags; [FromConfig] turns it into a Builder.
//
// # Consumption
//
// In batch mode (one consumer) every published item is observed exactly
// once, in publish order. ConsumeBatchWhenAvailable delivers everything
// available as one batch; the handler sees each item with its position in
// the batch and an isLast flag.
//
// In work-queue mode (several consumers) each item is claimed by exactly
// one consumer and each call delivers one item. Relative order across
// consumers is not defined.
//
// A wait that elapses with nothing published returns (0, nil): no data is
// not an error. ConsumeBatch is the non-waiting form; it delivers only
// what is already published. An error from the handler aborts the batch and is returned
// unchanged; the queue never retries.
//
// # Halt and Interrupt
//
// HaltWithInterrupt publishes halt markers through the data path. A
// consumer observes its marker strictly after every item published before
// it, returns [ErrHalted], and stays halted. In work-queue mode one marker
// is published per consumer.
//
// Interrupt is the out-of-band teardown for stuck pipelines: producers
// blocked on capacity and consumers blocked on the barrier return
// [ErrInterrupted]. It is fatal; nothing is published or delivered after
// it.
//
// # Backpressure and State
//
// Publish blocks while the queue is full. TryPublish returns
// [ErrWouldBlock] instead, leaving the policy (drop, spin, escalate) to the
// caller. [State] reports capacity, population, write and read positions
// for schedulers and admission control; it is computed on every call.
//
// # Strategies
//
// Claim and wait strategies are small interfaces ([ClaimStrategy],
// [WaitStrategy]) and can be replaced, for example by deterministic fakes
// in tests.
//
// # Race Detection
//
// The ring protects its non-atomic slots with acquire-release ordering on
// the cursor and consumer sequences. Go's race detector cannot observe
// that ordering and may report false positives; concurrent ring tests skip
// under -race (see RaceEnabled).
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for atomics with explicit
// memory ordering, [code.hybscloud.com/spin] for CPU pause instructions,
// [code.hybscloud.com/iox] for semantic errors and backoff, and logrus for
// lifecycle logging.
package evq

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package evq

// Queue is the contract shared by the ring and bounded-blocking variants.
//
// A Queue is created once per pipeline stage, fed by any number of producer
// goroutines and drained by the consumers registered through
// ConsumerStarted. It is torn down by HaltWithInterrupt followed by joining
// the consumer goroutines.
//
// Example:
//
//	q := evq.Build[Tuple](evq.New(1024).Named("bolt-3"))
//
//	c, _ := q.ConsumerStarted()
//	go func() {
//	    for {
//	        _, err := c.ConsumeBatchWhenAvailable(func(t Tuple, pos int, isLast bool) error {
//	            return execute(t, isLast)
//	        })
//	        if err != nil {
//	            return // ErrHalted, ErrInterrupted or a handler failure
//	        }
//	    }
//	}()
//
//	t := Tuple{...}
//	q.Publish(&t)
type Queue[T any] interface {
	Producer[T]

	// ConsumerStarted registers a new consumer identity.
	// Call it at most once per consumer goroutine, before that goroutine's
	// first consumption call. Safe for concurrent use.
	// Returns ErrTooManyConsumers past the configured consumer count.
	ConsumerStarted() (Consumer[T], error)

	// HaltWithInterrupt publishes the halt marker through the data path.
	// Every consumer observes it after all items published before it.
	HaltWithInterrupt() error

	// Interrupt tears the queue down out of band. Blocked producers and
	// consumers return ErrInterrupted. Idempotent.
	Interrupt()

	// State returns a fresh snapshot for flow-control decisions.
	State() State

	// Population returns State().Population.
	Population() int64

	// Cap returns the queue capacity.
	Cap() int

	// Name returns the queue name.
	Name() string
}

// Producer is the interface for publishing items.
//
// The item is passed by pointer to avoid copying large structs. The queue
// stores a copy of the pointed-to value, so the original can be reused
// after Publish returns.
type Producer[T any] interface {
	// Publish adds an item, blocking while the queue is full.
	// Returns ErrInterrupted if the queue is interrupted.
	Publish(elem *T) error

	// TryPublish adds an item without blocking.
	// Returns ErrWouldBlock if there is insufficient capacity.
	TryPublish(elem *T) error
}

// Consumer is a registered consumer identity.
//
// A Consumer is owned by one goroutine. Its methods must not be called
// concurrently.
type Consumer[T any] interface {
	// ID returns the monotonically assigned consumer id.
	ID() int

	// ConsumeBatchWhenAvailable delivers the next batch to h.
	//
	// Returns the number of items the handler accepted. A wait that elapses with
	// nothing published returns (0, nil). A halt marker returns ErrHalted
	// after the items published before it. An error from h aborts the
	// batch and is returned unchanged.
	ConsumeBatchWhenAvailable(h Handler[T]) (int, error)

	// ConsumeBatch is ConsumeBatchWhenAvailable without the wait: it
	// delivers only what is already published and returns (0, nil)
	// otherwise.
	ConsumeBatch(h Handler[T]) (int, error)

	// State returns where the consumer is in its consumption cycle.
	State() ConsumerState
}

// Handler receives one delivered item.
//
// pos is the item's 0-based position within the batch and isLast marks the
// final item, so expensive end-of-batch work (such as flushing downstream
// writes) can be deferred to it. The handler owns elem; it must not retain
// references into queue storage beyond the call.
type Handler[T any] func(elem T, pos int, isLast bool) error

var (
	_ Queue[struct{}] = (*Ring[struct{}])(nil)
	_ Queue[struct{}] = (*Bounded[struct{}])(nil)
	_ Gate            = (*Ring[struct{}])(nil)
)

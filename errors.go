// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package evq

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates the operation cannot proceed immediately.
//
// TryPublish returns it when the gating set leaves no free slot
// (insufficient capacity). It is a control flow signal, not a failure:
// the caller decides whether to drop, spin, or escalate.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
//
// Example:
//
//	backoff := iox.Backoff{}
//	for {
//	    err := q.TryPublish(&item)
//	    if err == nil {
//	        break
//	    }
//	    if !evq.IsWouldBlock(err) {
//	        return err
//	    }
//	    backoff.Wait()
//	}
var ErrWouldBlock = iox.ErrWouldBlock

// ErrHalted is returned by a consumer that observed a halt marker.
//
// The consumer is in its terminal state; every later consumption call
// returns ErrHalted again. Consumption loops must exit on it.
var ErrHalted = errors.New("evq: consumer halted")

// ErrInterrupted is returned by operations on a queue that was interrupted.
//
// Interruption is coordinated teardown. A producer or consumer woken by it
// must not retry: the queue accepts and delivers nothing afterwards.
var ErrInterrupted = errors.New("evq: queue interrupted")

// ErrTooManyConsumers is returned by ConsumerStarted once every configured
// consumer identity has been handed out.
var ErrTooManyConsumers = errors.New("evq: too many consumers")

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsHalted reports whether err carries a halt outcome.
func IsHalted(err error) bool {
	return errors.Is(err, ErrHalted)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil, ErrWouldBlock, or ErrMore.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}

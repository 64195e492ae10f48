// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package evq_test

import (
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/evq"
	"code.hybscloud.com/iox"
)

// retryWithTimeout retries f until it returns true or timeout expires.
func retryWithTimeout(t *testing.T, timeout time.Duration, f func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	backoff := iox.Backoff{}
	for !f() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout after %v: %s", timeout, msg)
		}
		backoff.Wait()
	}
}

// waitForCount waits until counter reaches target or timeout expires.
func waitForCount(t *testing.T, timeout time.Duration, counter *atomix.Int64, target int64, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	backoff := iox.Backoff{}
	for counter.Load() < target {
		if time.Now().After(deadline) {
			t.Fatalf("timeout after %v: %s (got %d, want %d)", timeout, msg, counter.Load(), target)
		}
		backoff.Wait()
	}
}

// delivery is one handler invocation.
type delivery struct {
	val    int
	pos    int
	isLast bool
}

// consumeOnce runs one consumption call and records every delivery.
func consumeOnce(c evq.Consumer[int]) ([]delivery, int, error) {
	var got []delivery
	n, err := c.ConsumeBatchWhenAvailable(func(v int, pos int, isLast bool) error {
		got = append(got, delivery{v, pos, isLast})
		return nil
	})
	return got, n, err
}

// checkBatch verifies values, 0-based positions, and isLast on the final item only.
func checkBatch(t *testing.T, got []delivery, want []int) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("batch length: got %d, want %d", len(got), len(want))
	}
	for i, d := range got {
		if d.val != want[i] {
			t.Fatalf("batch[%d]: got %d, want %d", i, d.val, want[i])
		}
		if d.pos != i {
			t.Fatalf("batch[%d] pos: got %d, want %d", i, d.pos, i)
		}
		if d.isLast != (i == len(want)-1) {
			t.Fatalf("batch[%d] isLast: got %v", i, d.isLast)
		}
	}
}

func publishRange(t *testing.T, q evq.Producer[int], from, to int) {
	t.Helper()
	for i := from; i <= to; i++ {
		v := i
		if err := q.Publish(&v); err != nil {
			t.Fatalf("Publish(%d): %v", i, err)
		}
	}
}

func checkState(t *testing.T, st evq.State, population, wp, rp int64) {
	t.Helper()
	if st.Population != population || st.WritePos != wp || st.ReadPos != rp {
		t.Fatalf("State: got %v, want population=%d write_pos=%d read_pos=%d", st, population, wp, rp)
	}
}

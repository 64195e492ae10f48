// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package evq_test

import (
	"testing"

	"code.hybscloud.com/evq"
)

// =============================================================================
// State
// =============================================================================

func TestStateSnapshot(t *testing.T) {
	q := evq.BuildRing[int](evq.New(8))
	q.ConsumerStarted()
	publishRange(t, q, 1, 2)

	st := q.State()
	if st.Capacity != 8 {
		t.Fatalf("Capacity: got %d, want 8", st.Capacity)
	}
	if pct := st.PctFull(); pct != 0.25 {
		t.Fatalf("PctFull: got %v, want 0.25", pct)
	}
	m := st.Map()
	for key, want := range map[string]int64{"capacity": 8, "population": 2, "write_pos": 1, "read_pos": -1} {
		if got, ok := m[key].(int64); !ok || got != want {
			t.Fatalf("Map[%q]: got %v, want %d", key, m[key], want)
		}
	}
	if s := st.String(); s != "capacity=8 population=2 write_pos=1 read_pos=-1" {
		t.Fatalf("String: got %q", s)
	}
	if (evq.State{}).PctFull() != 0 {
		t.Fatal("PctFull on zero State: want 0")
	}
}

func TestConsumerStateString(t *testing.T) {
	for s, want := range map[evq.ConsumerState]string{
		evq.Idle:             "idle",
		evq.WaitingOnBarrier: "waiting",
		evq.Delivering:       "delivering",
		evq.Halted:           "halted",
		evq.ConsumerState(9): "ConsumerState(9)",
	} {
		if got := s.String(); got != want {
			t.Fatalf("String: got %q, want %q", got, want)
		}
	}
}

func TestErrorClassification(t *testing.T) {
	if !evq.IsHalted(evq.ErrHalted) || evq.IsHalted(evq.ErrInterrupted) {
		t.Fatal("IsHalted misclassifies")
	}
	if !evq.IsNonFailure(nil) || !evq.IsNonFailure(evq.ErrWouldBlock) {
		t.Fatal("IsNonFailure: nil and ErrWouldBlock are non-failures")
	}
	if evq.IsWouldBlock(evq.ErrHalted) {
		t.Fatal("IsWouldBlock(ErrHalted): got true")
	}
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package evq

import "fmt"

// State is a point-in-time snapshot of a queue.
//
// Positions are sequences: -1 before the first publish (WritePos) or the
// first consumption (ReadPos). Population is the number of published items
// not yet read by the slowest consumer; 0 <= Population <= Capacity.
//
// Snapshots are computed on demand and never cached. External monitoring
// and admission control poll them.
type State struct {
	Capacity   int64
	Population int64
	WritePos   int64
	ReadPos    int64
}

// PctFull returns Population as a fraction of Capacity.
func (s State) PctFull() float64 {
	if s.Capacity == 0 {
		return 0
	}
	return float64(s.Population) / float64(s.Capacity)
}

// Map returns the snapshot keyed the way engine metrics consumers expect.
func (s State) Map() map[string]any {
	return map[string]any{
		"capacity":   s.Capacity,
		"population": s.Population,
		"write_pos":  s.WritePos,
		"read_pos":   s.ReadPos,
	}
}

func (s State) String() string {
	return fmt.Sprintf("capacity=%d population=%d write_pos=%d read_pos=%d",
		s.Capacity, s.Population, s.WritePos, s.ReadPos)
}

// newState builds a snapshot from read and write positions.
// rp must be loaded before wp so the population is never an under-estimate.
func newState(capacity, wp, rp int64) State {
	if rp > wp {
		rp = wp
	}
	population := wp - rp
	if population < 0 {
		population = 0
	}
	if population > capacity {
		population = capacity
	}
	return State{
		Capacity:   capacity,
		Population: population,
		WritePos:   wp,
		ReadPos:    rp,
	}
}

// ConsumerState is where a consumer is in its consumption cycle.
//
//	Idle -> WaitingOnBarrier -> Delivering -> Idle
//
// Halted is terminal.
type ConsumerState int32

const (
	Idle ConsumerState = iota
	WaitingOnBarrier
	Delivering
	Halted
)

func (s ConsumerState) String() string {
	switch s {
	case Idle:
		return "idle"
	case WaitingOnBarrier:
		return "waiting"
	case Delivering:
		return "delivering"
	case Halted:
		return "halted"
	default:
		return fmt.Sprintf("ConsumerState(%d)", int32(s))
	}
}

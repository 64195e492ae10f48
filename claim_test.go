// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package evq_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/evq"
)

// =============================================================================
// Claim Strategies
// =============================================================================

// fakeGate is a Gate with a fixed consumer minimum.
type fakeGate struct {
	capacity    int64
	minimum     int64
	interrupted bool
}

func (g *fakeGate) Capacity() int64   { return g.capacity }
func (g *fakeGate) Minimum() int64    { return g.minimum }
func (g *fakeGate) Interrupted() bool { return g.interrupted }

func claimStrategies() map[string]func() evq.ClaimStrategy {
	return map[string]func() evq.ClaimStrategy{
		"single": evq.NewSingleProducerClaim,
		"multi":  evq.NewMultiProducerClaim,
	}
}

// TestClaimTryNext checks claims stop one lap ahead of the slowest consumer.
func TestClaimTryNext(t *testing.T) {
	for name, newClaim := range claimStrategies() {
		c := newClaim()
		g := &fakeGate{capacity: 4, minimum: evq.InitialSequence}

		for want := int64(0); want < 4; want++ {
			got, err := c.TryNext(g)
			if err != nil || got != want {
				t.Fatalf("%s: TryNext: got (%d, %v), want (%d, nil)", name, got, err, want)
			}
		}
		if _, err := c.TryNext(g); !errors.Is(err, evq.ErrWouldBlock) {
			t.Fatalf("%s: TryNext on full: got %v, want ErrWouldBlock", name, err)
		}

		g.minimum = 1
		for want := int64(4); want < 6; want++ {
			got, err := c.TryNext(g)
			if err != nil || got != want {
				t.Fatalf("%s: TryNext after release: got (%d, %v), want (%d, nil)", name, got, err, want)
			}
		}
		if _, err := c.TryNext(g); !errors.Is(err, evq.ErrWouldBlock) {
			t.Fatalf("%s: TryNext on full: got %v, want ErrWouldBlock", name, err)
		}
	}
}

// TestClaimNext checks the blocking claim when capacity is free.
func TestClaimNext(t *testing.T) {
	for name, newClaim := range claimStrategies() {
		c := newClaim()
		g := &fakeGate{capacity: 2, minimum: evq.InitialSequence}
		for want := int64(0); want < 2; want++ {
			got, err := c.Next(g)
			if err != nil || got != want {
				t.Fatalf("%s: Next: got (%d, %v), want (%d, nil)", name, got, err, want)
			}
		}
	}
}

// TestClaimNextInterrupted checks a claim blocked on capacity gives up.
func TestClaimNextInterrupted(t *testing.T) {
	for name, newClaim := range claimStrategies() {
		c := newClaim()
		g := &fakeGate{capacity: 2, minimum: evq.InitialSequence, interrupted: true}
		c.Next(g)
		c.Next(g)
		if _, err := c.Next(g); !errors.Is(err, evq.ErrInterrupted) {
			t.Fatalf("%s: Next on full interrupted gate: got %v, want ErrInterrupted", name, err)
		}
	}
}

// TestClaimPublish checks publication advances the cursor.
func TestClaimPublish(t *testing.T) {
	for name, newClaim := range claimStrategies() {
		c := newClaim()
		g := &fakeGate{capacity: 4, minimum: evq.InitialSequence}
		cursor := evq.NewSequence(evq.InitialSequence)

		seq, _ := c.Next(g)
		if err := c.Publish(seq, cursor, g); err != nil {
			t.Fatalf("%s: Publish: %v", name, err)
		}
		if cursor.Get() != seq {
			t.Fatalf("%s: cursor: got %d, want %d", name, cursor.Get(), seq)
		}
	}
}

// TestMultiProducerPublishInOrder checks a later claim cannot publish while
// an earlier one is outstanding.
func TestMultiProducerPublishInOrder(t *testing.T) {
	c := evq.NewMultiProducerClaim()
	g := &fakeGate{capacity: 4, minimum: evq.InitialSequence}
	cursor := evq.NewSequence(evq.InitialSequence)

	c.Next(g) // 0, never published
	second, _ := c.Next(g)

	g.interrupted = true
	if err := c.Publish(second, cursor, g); !errors.Is(err, evq.ErrInterrupted) {
		t.Fatalf("Publish out of order: got %v, want ErrInterrupted", err)
	}
	if cursor.Get() != evq.InitialSequence {
		t.Fatalf("cursor: got %d, want -1", cursor.Get())
	}
}

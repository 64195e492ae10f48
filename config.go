// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package evq

import (
	"fmt"
	"time"
)

// WaitPolicy names a consumer wait behaviour.
type WaitPolicy string

const (
	WaitBusySpin WaitPolicy = "busy-spin"
	WaitYielding WaitPolicy = "yielding"
	WaitBlocking WaitPolicy = "blocking"
)

// ClaimPolicy names a producer reservation protocol.
type ClaimPolicy string

const (
	ClaimSingleProducer ClaimPolicy = "single-producer"
	ClaimMultiProducer  ClaimPolicy = "multi-producer"
)

// Variant names a queue implementation.
type Variant string

const (
	VariantRing    Variant = "ring"
	VariantBounded Variant = "bounded"
)

// ParseWaitPolicy parses a wait policy name.
func ParseWaitPolicy(s string) (WaitPolicy, error) {
	switch p := WaitPolicy(s); p {
	case WaitBusySpin, WaitYielding, WaitBlocking:
		return p, nil
	}
	return "", fmt.Errorf("evq: unknown wait policy %q", s)
}

// ParseClaimPolicy parses a claim policy name.
func ParseClaimPolicy(s string) (ClaimPolicy, error) {
	switch p := ClaimPolicy(s); p {
	case ClaimSingleProducer, ClaimMultiProducer:
		return p, nil
	}
	return "", fmt.Errorf("evq: unknown claim policy %q", s)
}

// ParseVariant parses a variant name.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case VariantRing, VariantBounded:
		return v, nil
	}
	return "", fmt.Errorf("evq: unknown variant %q", s)
}

// Config is the plain-data form of a queue configuration, as carried in
// stage configuration maps and command-line flags.
type Config struct {
	Name        string        `json:"name"`
	Capacity    int           `json:"capacity"`
	Variant     Variant       `json:"variant"`
	WaitPolicy  WaitPolicy    `json:"wait_policy"`
	WaitTimeout time.Duration `json:"wait_timeout"`
	ClaimPolicy ClaimPolicy   `json:"claim_policy"`
	Consumers   int           `json:"consumers"`
}

// DefaultConfig returns the configuration New applies by default.
func DefaultConfig() Config {
	return Config{
		Name:        "queue",
		Capacity:    1024,
		Variant:     VariantRing,
		WaitPolicy:  WaitBlocking,
		WaitTimeout: DefaultWaitTimeout,
		ClaimPolicy: ClaimMultiProducer,
		Consumers:   1,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Capacity < 2 {
		return fmt.Errorf("evq: capacity must be >= 2, got %d", c.Capacity)
	}
	if c.Consumers < 1 {
		return fmt.Errorf("evq: consumers must be >= 1, got %d", c.Consumers)
	}
	if _, err := ParseVariant(string(c.Variant)); err != nil {
		return err
	}
	if _, err := ParseWaitPolicy(string(c.WaitPolicy)); err != nil {
		return err
	}
	if _, err := ParseClaimPolicy(string(c.ClaimPolicy)); err != nil {
		return err
	}
	return nil
}

// FromConfig returns a Builder configured from c.
func FromConfig(c Config) (*Builder, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	b := New(c.Capacity).Consumers(c.Consumers)
	if c.Name != "" {
		b.Named(c.Name)
	}
	if c.Variant == VariantBounded {
		b.Bounded()
	}
	if c.ClaimPolicy == ClaimSingleProducer {
		b.SingleProducer()
	}
	switch c.WaitPolicy {
	case WaitBusySpin:
		b.BusySpin()
	case WaitYielding:
		b.Yielding()
	default:
		b.Blocking(c.WaitTimeout)
	}
	return b, nil
}

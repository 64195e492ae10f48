// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package soak_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"code.hybscloud.com/evq"
	"code.hybscloud.com/evq/internal/soak"
)

func soakConfig(variant evq.Variant, consumers int) soak.Config {
	cfg := soak.DefaultConfig()
	cfg.Name = string(variant)
	cfg.Variant = variant
	cfg.Capacity = 64
	cfg.Consumers = consumers
	cfg.WaitTimeout = 5 * time.Millisecond
	cfg.ItemsPerProducer = 2000
	return cfg
}

func TestRunRingBatch(t *testing.T) {
	if evq.RaceEnabled {
		t.Skip("skip: ring slots are ordered by acquire-release sequences")
	}
	report, err := soak.Run(context.Background(), soakConfig(evq.VariantRing, 1))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Consumed != 4*2000 {
		t.Fatalf("Consumed: got %d, want %d", report.Consumed, 4*2000)
	}
	if report.MaxPopulation > 64 {
		t.Fatalf("MaxPopulation: got %d, want <= 64", report.MaxPopulation)
	}
}

func TestRunRingWorkQueue(t *testing.T) {
	if evq.RaceEnabled {
		t.Skip("skip: ring slots are ordered by acquire-release sequences")
	}
	cfg := soakConfig(evq.VariantRing, 3)
	cfg.ClaimPolicy = evq.ClaimMultiProducer
	if _, err := soak.Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunRingSingleProducer(t *testing.T) {
	if evq.RaceEnabled {
		t.Skip("skip: ring slots are ordered by acquire-release sequences")
	}
	cfg := soakConfig(evq.VariantRing, 1)
	cfg.ClaimPolicy = evq.ClaimSingleProducer
	cfg.Producers = 1
	cfg.WaitPolicy = evq.WaitYielding
	if _, err := soak.Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunBounded(t *testing.T) {
	for _, consumers := range []int{1, 2} {
		cfg := soakConfig(evq.VariantBounded, consumers)
		cfg.Jitter = 20 * time.Microsecond
		cfg.ItemsPerProducer = 500
		report, err := soak.Run(context.Background(), cfg)
		if err != nil {
			t.Fatalf("consumers=%d: Run: %v", consumers, err)
		}
		if report.Published != report.Consumed {
			t.Fatalf("consumers=%d: published %d, consumed %d",
				consumers, report.Published, report.Consumed)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	cfg := soakConfig(evq.VariantBounded, 1)
	cfg.Jitter = time.Millisecond
	cfg.ItemsPerProducer = 100000

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	report, err := soak.Run(ctx, cfg)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run: got %v, want %v", err, context.DeadlineExceeded)
	}
	if report.Published >= int64(cfg.Producers*cfg.ItemsPerProducer) {
		t.Fatalf("Published: got %d, want a partial run", report.Published)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := soak.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig: %v", err)
	}

	bad := cfg
	bad.Producers = 0
	if bad.Validate() == nil {
		t.Fatal("Validate: want error for zero producers")
	}
	bad = cfg
	bad.Jitter = 2 * time.Second
	if bad.Validate() == nil {
		t.Fatal("Validate: want error for jitter above 1s")
	}
	bad = cfg
	bad.ClaimPolicy = evq.ClaimSingleProducer
	if bad.Validate() == nil {
		t.Fatal("Validate: want error for single-producer claim with 4 producers")
	}
	bad = cfg
	bad.Capacity = 1
	if _, err := soak.Run(context.Background(), bad); err == nil {
		t.Fatal("Run: want error for capacity 1")
	}
}

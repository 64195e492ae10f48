// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command evqsoak runs a soak test against one queue configuration and
// exits non-zero if any delivery guarantee was violated.
//
// Usage:
//
//	evqsoak -variant ring -capacity 1024 -consumers 4 -producers 8 -items 100000
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"code.hybscloud.com/evq"
	"code.hybscloud.com/evq/internal/soak"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := soak.DefaultConfig()

	var variant, wait, claim, level string
	var duration time.Duration
	flag.StringVar(&cfg.Name, "name", "soak", "queue name used in logs")
	flag.IntVar(&cfg.Capacity, "capacity", cfg.Capacity, "queue capacity (rounded up to a power of 2)")
	flag.StringVar(&variant, "variant", string(cfg.Variant), "queue variant: ring or bounded")
	flag.StringVar(&wait, "wait", string(cfg.WaitPolicy), "consumer wait policy: busy-spin, yielding or blocking")
	flag.DurationVar(&cfg.WaitTimeout, "wait-timeout", cfg.WaitTimeout, "blocking wait timeout")
	flag.StringVar(&claim, "claim", string(cfg.ClaimPolicy), "producer claim policy: single-producer or multi-producer")
	flag.IntVar(&cfg.Consumers, "consumers", cfg.Consumers, "consumer goroutines (>1 selects work-queue mode)")
	flag.IntVar(&cfg.Producers, "producers", cfg.Producers, "producer goroutines")
	flag.IntVar(&cfg.ItemsPerProducer, "items", cfg.ItemsPerProducer, "items published per producer")
	flag.DurationVar(&cfg.Jitter, "jitter", cfg.Jitter, "max random pause between publishes")
	flag.DurationVar(&cfg.SampleEvery, "sample", cfg.SampleEvery, "state polling interval")
	flag.DurationVar(&duration, "timeout", 0, "abort the run after this long (0 = no limit)")
	flag.StringVar(&level, "log-level", "info", "log level")
	flag.Parse()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithError(err).Fatal("invalid log level")
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg.Variant, err = evq.ParseVariant(variant); err != nil {
		logrus.WithError(err).Fatal("invalid flag")
	}
	if cfg.WaitPolicy, err = evq.ParseWaitPolicy(wait); err != nil {
		logrus.WithError(err).Fatal("invalid flag")
	}
	if cfg.ClaimPolicy, err = evq.ParseClaimPolicy(claim); err != nil {
		logrus.WithError(err).Fatal("invalid flag")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	report, err := soak.Run(ctx, cfg)
	if err != nil {
		logrus.WithError(err).WithFields(report.Fields()).Error("soak failed")
		os.Exit(1)
	}
	logrus.WithFields(report.Fields()).Info("soak passed")
}

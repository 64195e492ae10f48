// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package soak drives a queue with concurrent producers and consumers and
// checks its delivery guarantees while it runs.
//
// Every item carries its producer and per-producer sequence, so the run
// can verify exactly-once delivery, per-producer order (single consumer),
// and that State stays within bounds and WritePos never moves backwards.
package soak

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/evq"
	"code.hybscloud.com/evq/metric"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fastrand"
)

var log = logrus.WithField("subsys", "evq-soak")

// DefaultSampleEvery is the State polling interval.
const DefaultSampleEvery = time.Millisecond

// Config is a soak run: the queue under test plus the load shape.
type Config struct {
	evq.Config

	Producers        int           `json:"producers"`
	ItemsPerProducer int           `json:"items_per_producer"`
	Jitter           time.Duration `json:"jitter"`       // Max random pause between publishes
	SampleEvery      time.Duration `json:"sample_every"` // State polling interval
}

// DefaultConfig returns a small run against the default queue.
func DefaultConfig() Config {
	return Config{
		Config:           evq.DefaultConfig(),
		Producers:        4,
		ItemsPerProducer: 10000,
		SampleEvery:      DefaultSampleEvery,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if c.Producers < 1 {
		return fmt.Errorf("soak: producers must be >= 1, got %d", c.Producers)
	}
	if c.ClaimPolicy == evq.ClaimSingleProducer && c.Variant == evq.VariantRing && c.Producers != 1 {
		return fmt.Errorf("soak: single-producer claim with %d producers", c.Producers)
	}
	if c.ItemsPerProducer < 1 {
		return fmt.Errorf("soak: items per producer must be >= 1, got %d", c.ItemsPerProducer)
	}
	if c.Jitter < 0 || c.Jitter > time.Second {
		return fmt.Errorf("soak: jitter must be within [0, 1s], got %v", c.Jitter)
	}
	return nil
}

// Report summarizes a run.
type Report struct {
	Published     int64
	Consumed      int64
	Elapsed       time.Duration
	MeanDelay     time.Duration // Publish to delivery, last window
	AvgWait       time.Duration // Consumption call to first delivery
	MaxPopulation int64
	Samples       int
}

// Fields returns the report as log fields.
func (r Report) Fields() logrus.Fields {
	return logrus.Fields{
		"published":      r.Published,
		"consumed":       r.Consumed,
		"elapsed":        r.Elapsed,
		"mean_delay":     r.MeanDelay,
		"avg_wait":       r.AvgWait,
		"max_population": r.MaxPopulation,
		"samples":        r.Samples,
	}
}

// ErrViolation wraps every guarantee a run found broken.
var ErrViolation = errors.New("soak: guarantee violated")

type item struct {
	producer int
	seq      int
	stamp    time.Time
}

type run struct {
	cfg   Config
	q     evq.Queue[item]
	delay *metric.Delay
	wait  *metric.WaitTime

	seen      []atomix.Int32 // Deliveries per item
	published atomix.Int64
	consumed  atomix.Int64

	mu         sync.Mutex
	violations []string
}

func (r *run) violate(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.mu.Lock()
	if len(r.violations) < 16 {
		r.violations = append(r.violations, msg)
	}
	r.mu.Unlock()
	log.WithField("queue", r.q.Name()).Error(msg)
}

// Run executes one soak run. Cancelling ctx interrupts the queue and
// returns ctx's error with the partial report.
func Run(ctx context.Context, cfg Config) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	if cfg.SampleEvery <= 0 {
		cfg.SampleEvery = DefaultSampleEvery
	}
	b, err := evq.FromConfig(cfg.Config)
	if err != nil {
		return Report{}, err
	}

	r := &run{
		cfg:   cfg,
		q:     evq.Build[item](b),
		delay: metric.NewDelay(cfg.Name, 0),
		wait:  metric.NewWaitTime(0),
		seen:  make([]atomix.Int32, cfg.Producers*cfg.ItemsPerProducer),
	}
	log.WithField("queue", cfg.Name).WithFields(logrus.Fields{
		"variant":   cfg.Variant,
		"producers": cfg.Producers,
		"consumers": cfg.Consumers,
		"items":     len(r.seen),
	}).Info("soak started")

	start := time.Now()
	stop := make(chan struct{})
	var samplerWG, consumerWG, producerWG sync.WaitGroup

	consumers := make([]evq.Consumer[item], cfg.Consumers)
	for i := range consumers {
		if consumers[i], err = r.q.ConsumerStarted(); err != nil {
			return Report{}, err
		}
	}
	for _, c := range consumers {
		consumerWG.Add(1)
		go func() {
			defer consumerWG.Done()
			r.consume(c)
		}()
	}

	var report Report
	samplerWG.Add(1)
	go func() {
		defer samplerWG.Done()
		report.MaxPopulation, report.Samples = r.sample(stop)
	}()

	for p := range cfg.Producers {
		producerWG.Add(1)
		go func() {
			defer producerWG.Done()
			r.produce(p)
		}()
	}

	// Interrupt on cancellation; released once the run completes.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			r.q.Interrupt()
		case <-done:
		}
	}()

	producerWG.Wait()
	if ctx.Err() == nil {
		if err := r.q.HaltWithInterrupt(); err != nil {
			r.violate("halt: %v", err)
		}
	}
	consumerWG.Wait()
	close(done)
	close(stop)
	samplerWG.Wait()

	report.Published = r.published.Load()
	report.Consumed = r.consumed.Load()
	report.Elapsed = time.Since(start)
	report.MeanDelay = r.delay.Mean()
	report.AvgWait = r.wait.Average()
	log.WithField("queue", cfg.Name).WithFields(report.Fields()).Info("soak finished")

	if err := ctx.Err(); err != nil {
		return report, err
	}
	r.verify(report)
	if len(r.violations) > 0 {
		return report, fmt.Errorf("%w: %s", ErrViolation, r.violations[0])
	}
	return report, nil
}

func (r *run) produce(p int) {
	jitter := uint32(r.cfg.Jitter)
	for i := range r.cfg.ItemsPerProducer {
		if jitter > 0 {
			time.Sleep(time.Duration(fastrand.Uint32n(jitter)))
		}
		it := item{producer: p, seq: i, stamp: time.Now()}
		if err := r.q.Publish(&it); err != nil {
			if !errors.Is(err, evq.ErrInterrupted) {
				r.violate("producer %d: publish %d: %v", p, i, err)
			}
			return
		}
		r.published.Add(1)
	}
}

func (r *run) consume(c evq.Consumer[item]) {
	// Per-producer order only holds with a single consumer.
	ordered := r.cfg.Consumers == 1
	last := make([]int, r.cfg.Producers)
	for i := range last {
		last[i] = -1
	}

	for {
		begin := time.Now()
		first := true
		_, err := c.ConsumeBatchWhenAvailable(func(it item, pos int, isLast bool) error {
			if first {
				r.wait.Update(time.Since(begin))
				first = false
			}
			r.delay.Update(time.Since(it.stamp))

			idx := it.producer*r.cfg.ItemsPerProducer + it.seq
			if n := r.seen[idx].Add(1); n != 1 {
				r.violate("item %d/%d delivered %d times", it.producer, it.seq, n)
			}
			if ordered {
				if it.seq <= last[it.producer] {
					r.violate("producer %d: seq %d after %d", it.producer, it.seq, last[it.producer])
				}
				last[it.producer] = it.seq
			}
			r.consumed.Add(1)
			return nil
		})
		switch {
		case err == nil:
		case errors.Is(err, evq.ErrHalted), errors.Is(err, evq.ErrInterrupted):
			return
		default:
			r.violate("consumer %d: %v", c.ID(), err)
			return
		}
	}
}

// sample polls State until stop closes.
func (r *run) sample(stop <-chan struct{}) (maxPopulation int64, samples int) {
	ticker := time.NewTicker(r.cfg.SampleEvery)
	defer ticker.Stop()

	prev := evq.InitialSequence
	for {
		select {
		case <-stop:
			return maxPopulation, samples
		case <-ticker.C:
		}
		st := r.q.State()
		samples++
		if st.Population < 0 || st.Population > st.Capacity {
			r.violate("population %d outside [0, %d]", st.Population, st.Capacity)
		}
		if st.WritePos < prev {
			r.violate("write position moved back from %d to %d", prev, st.WritePos)
		}
		prev = st.WritePos
		maxPopulation = max(maxPopulation, st.Population)
	}
}

func (r *run) verify(report Report) {
	want := int64(len(r.seen))
	if report.Published != want {
		r.violate("published %d, want %d", report.Published, want)
	}
	if report.Consumed != want {
		r.violate("consumed %d, want %d", report.Consumed, want)
	}
	for i := range r.seen {
		if r.seen[i].Load() != 1 {
			r.violate("item %d/%d delivered %d times",
				i/r.cfg.ItemsPerProducer, i%r.cfg.ItemsPerProducer, r.seen[i].Load())
			return
		}
	}
}

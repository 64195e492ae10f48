// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package metric

import (
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/sirupsen/logrus"
)

// DefaultWindow is the number of samples Delay averages over.
const DefaultWindow = 1500

// Delay is the mean queuing delay over a sliding window of samples.
//
// Each time a full window of new samples has been recorded the mean is
// logged at info level with the owner's name.
type Delay struct {
	mu      sync.Mutex
	samples *queue.Queue // time.Duration, oldest first
	sum     time.Duration
	window  int
	fresh   int // Samples since the last log line
	log     *logrus.Entry
}

// NewDelay returns a Delay for the named owner (typically an executor id).
// window <= 0 selects DefaultWindow.
func NewDelay(name string, window int) *Delay {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Delay{
		samples: queue.New(),
		window:  window,
		log:     log.WithField("owner", name),
	}
}

// Update records one queuing delay.
func (d *Delay) Update(v time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.samples.Add(v)
	d.sum += v
	if d.samples.Length() > d.window {
		d.sum -= d.samples.Remove().(time.Duration)
	}

	d.fresh++
	if d.fresh == d.window {
		d.fresh = 0
		d.log.WithFields(logrus.Fields{
			"mean":    d.meanLocked(),
			"samples": d.samples.Length(),
		}).Info("recv queue delay")
	}
}

// Mean returns the mean over the current window, 0 when empty.
func (d *Delay) Mean() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.meanLocked()
}

func (d *Delay) meanLocked() time.Duration {
	n := d.samples.Length()
	if n == 0 {
		return 0
	}
	return d.sum / time.Duration(n)
}

// Len returns the number of samples in the window.
func (d *Delay) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.samples.Length()
}

// Reset drops every sample.
func (d *Delay) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.samples = queue.New()
	d.sum = 0
	d.fresh = 0
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metric tracks queue latency figures for stage monitoring.
//
// Both metrics are cheap enough to update from a consumer loop and are
// safe for concurrent use.
package metric

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("subsys", "evq-metric")

// DefaultRounds is how many updates WaitTime takes between folds.
const DefaultRounds = 2048

// WaitTime is a running mean of the time items spend waiting in a queue.
//
// Every rounds updates the accumulated samples are folded into a single
// sample carrying the current mean, so older history decays instead of
// dominating the figure.
type WaitTime struct {
	mu     sync.Mutex
	sum    float64
	count  int
	round  int
	rounds int
}

// NewWaitTime returns a WaitTime folding every rounds updates.
// rounds <= 0 selects DefaultRounds.
func NewWaitTime(rounds int) *WaitTime {
	if rounds <= 0 {
		rounds = DefaultRounds
	}
	return &WaitTime{rounds: rounds}
}

// Update records one wait.
func (w *WaitTime) Update(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.sum += float64(d)
	w.count++
	w.round++
	if w.round == w.rounds {
		w.round = 0
		w.sum /= float64(w.count)
		w.count = 1
	}
}

// Average returns the current mean wait, 0 before the first update.
func (w *WaitTime) Average() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.count == 0 {
		return 0
	}
	return time.Duration(w.sum / float64(w.count))
}

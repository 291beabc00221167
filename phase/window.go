// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package phase implements the sliding-window TPS estimator and the
// hysteretic three-state phase detector (spec.md §3, §4.2).
package phase

import (
	"time"

	"github.com/luxfi/zonesim/config"
)

// Window is a fixed-capacity ring buffer of event timestamps. Capacity
// is chosen high enough (spec.md: 100x window seconds) that no entry
// is lost mid-window under realistic generation rates.
type Window struct {
	timestamps []time.Time
	head       int
	count      int
	capacity   int
	size       time.Duration
}

// NewWindow returns a Window covering the given duration with the
// given ring capacity.
func NewWindow(size time.Duration, capacity int) *Window {
	return &Window{
		timestamps: make([]time.Time, capacity),
		capacity:   capacity,
		size:       size,
	}
}

// DefaultWindow returns a window sized per spec.md defaults:
// WindowSizeSeconds seconds with a WindowCapacityMult capacity factor.
func DefaultWindow() *Window {
	return NewWindow(
		time.Duration(config.WindowSizeSeconds)*time.Second,
		config.WindowSizeSeconds*config.WindowCapacityMult,
	)
}

// Add records a new event timestamp, overwriting the oldest entry once
// the ring is full.
func (w *Window) Add(ts time.Time) {
	w.timestamps[w.head] = ts
	w.head = (w.head + 1) % w.capacity
	if w.count < w.capacity {
		w.count++
	}
}

// TPS estimates transactions-per-second as the count of timestamps
// within the last window duration, divided by the window duration in
// seconds.
func (w *Window) TPS(now time.Time) float64 {
	valid := 0
	for i := 0; i < w.count; i++ {
		if now.Sub(w.timestamps[i]) < w.size {
			valid++
		}
	}
	return float64(valid) / w.size.Seconds()
}

// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package phase

import (
	"time"

	"github.com/luxfi/zonesim/config"
)

// Detector holds the current phase and applies the hysteretic
// transition table from spec.md §4.2 on each Detect call.
//
// CONSECUTIVE_CHECKS is reserved by spec.md for an optional debouncer
// ("require the same transition proposed on N successive calls before
// accepting it"). This Detector relies on hysteresis alone and does
// not wire the debouncer in, matching the reference implementation
// (original_source/src/phases.c's detect_phase has no such counter)
// and spec.md's explicit permission to omit it as long as the choice
// is documented — this is that documentation.
type Detector struct {
	current config.Phase
	params  config.Parameters
}

// NewDetector returns a Detector starting in the given phase.
func NewDetector(start config.Phase, params config.Parameters) *Detector {
	return &Detector{current: start, params: params}
}

// Phase returns the current phase without evaluating a transition.
func (d *Detector) Phase() config.Phase {
	return d.current
}

// Detect computes the TPS from window at now, applies the hysteretic
// transition table, updates the detector's current phase, and returns
// it (plus whether it actually changed).
func (d *Detector) Detect(window *Window, now time.Time) (config.Phase, bool) {
	tps := window.TPS(now)
	next := transition(d.current, tps, d.params)
	changed := next != d.current
	d.current = next
	return next, changed
}

// transition implements the table from spec.md §4.2 exactly.
func transition(cur config.Phase, tps float64, p config.Parameters) config.Phase {
	tauHigh, tauLow, h := p.TauHigh, p.TauLow, p.Hysteresis

	switch cur {
	case config.PhaseHigh:
		if tps < tauHigh*(1-h) {
			if tps > tauLow {
				return config.PhaseNormal
			}
			return config.PhaseLow
		}
	case config.PhaseNormal:
		if tps > tauHigh*(1+h) {
			return config.PhaseHigh
		}
		if tps < tauLow*(1-h) {
			return config.PhaseLow
		}
	case config.PhaseLow:
		if tps > tauLow*(1+h) {
			if tps > tauHigh {
				return config.PhaseHigh
			}
			return config.PhaseNormal
		}
	}
	return cur
}

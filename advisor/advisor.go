// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package advisor models the optional external selector hook that
// sits in front of consensus selection: given a snapshot of a
// participant's metrics, it may recommend an algorithm, or decline and
// let the rule-based selector decide. Grounded on
// original_source/src/consensus.c's select_via_python / select_by_flowchart
// pair — the reference implementation shells out to a Python process
// for this; no such co-process exists in this simulator, so Advisor is
// the in-process seam that stands in for it (spec.md's Non-goals
// exclude external AI integration, not the selection hook itself).
package advisor

import "github.com/luxfi/zonesim/config"

// Metrics is the snapshot an Advisor reasons over, mirroring
// consensus.c's build_metrics_dict.
type Metrics struct {
	ZoneID       int
	ZoneSize     int
	NetworkSize  int
	Phase        config.Phase
	AvgLatencyMs float64
	TxCountHint  float64
	Permissioned bool
}

// Advisor recommends a consensus algorithm for the given metrics. The
// boolean return reports whether it has an opinion; false means
// "defer to the rule-based selector".
type Advisor interface {
	Advise(m Metrics) (config.Algorithm, bool)
}

// None never recommends anything, so every selection falls through to
// the rule-based selector. It is the default when no advisor is wired.
type None struct{}

func (None) Advise(Metrics) (config.Algorithm, bool) { return 0, false }

// FlowchartAdvisor implements the reference implementation's
// select_by_flowchart fallback path as an Advisor, so callers that
// want the documented decision tree made explicit (rather than
// embedded in the selector) can use it directly.
type FlowchartAdvisor struct{}

func (FlowchartAdvisor) Advise(m Metrics) (config.Algorithm, bool) {
	if m.Permissioned {
		return config.BFT, true
	}

	highScalabilityNeeded := m.Phase == config.PhaseHigh
	tolerateEnergyUsage := m.Phase != config.PhaseLow
	decentralizationImportant := m.Phase != config.PhaseLow

	if highScalabilityNeeded {
		if tolerateEnergyUsage {
			return config.FastVoting, true
		}
		return config.WeightedDAG, true
	}
	if decentralizationImportant {
		return config.WeightedDAG, true
	}
	return config.BFT, true
}

// LabelAdvisor recommends based on a free-text label, as the
// reference's map_label_to_algorithm does for the Python selector's
// string result. Unrecognized labels decline (fall through).
type LabelAdvisor struct {
	Label string
}

func (a LabelAdvisor) Advise(Metrics) (config.Algorithm, bool) {
	switch a.Label {
	case "bft", "pbft":
		return config.BFT, true
	case "dag":
		return config.WeightedDAG, true
	case "fast_voting", "nakamoto":
		return config.FastVoting, true
	default:
		return 0, false
	}
}

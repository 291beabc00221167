// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package consensus implements the three per-zone consensus protocols
// (Fast Voting, Weighted DAG, BFT) and the selector that picks among
// them per zone and phase (spec.md §4.3-§4.6).
package consensus

import (
	"github.com/luxfi/zonesim/advisor"
	"github.com/luxfi/zonesim/config"
)

// Select returns the algorithm a zone should use this round. m is the
// metrics snapshot the caller has gathered for its zone this round
// (spec.md §4.3's metrics dict: zone_id, zone_size, network_size,
// phase, avg_latency_ms, tx_count_hint); Select derives Permissioned
// itself from ZoneID's parity, overwriting whatever m.Permissioned
// held, exactly as consensus.c's build_metrics_dict always recomputes
// `permissioned = (zone_id % 2 == 0)` rather than accepting it as
// input. It first asks adv (if non-nil); if adv declines, it falls
// back to advisor.FlowchartAdvisor's rule-based decision tree, which
// always has an opinion. Grounded on
// original_source/src/consensus.c's get_consensus_algorithm.
func Select(m advisor.Metrics, adv advisor.Advisor) config.Algorithm {
	m.Permissioned = m.ZoneID%2 == 0
	if adv != nil {
		if alg, ok := adv.Advise(m); ok {
			return alg
		}
	}
	alg, _ := (advisor.FlowchartAdvisor{}).Advise(m)
	return alg
}

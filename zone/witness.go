// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package zone

import (
	"golang.org/x/exp/maps"

	"github.com/luxfi/zonesim/config"
)

// neighborZoneSet returns the distinct zone IDs rank i can reach
// within config.WitnessLatencyMs, excluding itself.
func neighborZoneSet(i int, latencies []float64, zoneAssignments []int, p config.Parameters) map[int]struct{} {
	seen := make(map[int]struct{})
	for j, lat := range latencies {
		if j == i {
			continue
		}
		if lat < config.WitnessLatencyMs {
			seen[zoneAssignments[j]] = struct{}{}
		}
	}
	return seen
}

// IsWitness reports whether rank i is a witness: among peers with
// latency below config.WitnessLatencyMs, more than one distinct zone
// is represented in zoneAssignments. Witnesses are not wired into any
// consensus path in this simulator (spec.md §4.1 reserves them for
// "optional cross-zone validation"); they exist here as a queryable
// projection over the zone assignment, grounded on
// original_source/src/zones.c's identify_witnesses.
func IsWitness(i int, latencies []float64, zoneAssignments []int, p config.Parameters) bool {
	return len(neighborZoneSet(i, latencies, zoneAssignments, p)) > 1
}

// NeighborZones returns the distinct zone IDs rank i can reach within
// config.WitnessLatencyMs, for diagnostic logging at call sites that
// want to name the zones a witness bridges rather than just the count.
func NeighborZones(i int, latencies []float64, zoneAssignments []int, p config.Parameters) []int {
	return maps.Keys(neighborZoneSet(i, latencies, zoneAssignments, p))
}

// Witnesses returns every witness rank in [0, len(zoneAssignments)).
func Witnesses(latencyMatrix [][]float64, zoneAssignments []int, p config.Parameters) []int {
	var witnesses []int
	for i := range zoneAssignments {
		if IsWitness(i, latencyMatrix[i], zoneAssignments, p) {
			witnesses = append(witnesses, i)
		}
	}
	return witnesses
}

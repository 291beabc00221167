// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package zone

import (
	"github.com/luxfi/zonesim/config"
	"github.com/luxfi/zonesim/fabric"
	"github.com/luxfi/zonesim/sampler"
)

// Result is the outcome of one zone-formation round: every rank's
// assignment (indexed by global rank) and this rank's own zone ID.
type Result struct {
	Assignments []int
	ZoneID      int
}

// Form runs one round of zone formation over group: it exchanges each
// rank's similarity row via an all-gather, seeds k centroids with
// k-means++ at rank 0 and broadcasts them, then clusters the resulting
// matrix identically on every rank (Lloyd's iteration is deterministic
// given identical inputs, so no further synchronization is needed).
// Grounded on original_source/src/zones.c's form_zones.
func Form(group fabric.Group, latencies []float64, affinityCounts []int, totalTxCount int, p config.Parameters, src sampler.Source) Result {
	row := SimilarityRow(latencies, affinityCounts, totalTxCount, p)
	matrix := group.AllGatherFloat64(row)

	n := len(matrix)
	k := p.MaxZones
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}

	var centroids []int
	if group.Rank() == 0 {
		centroids = KMeansPlusPlusInit(matrix, k, src)
	} else {
		centroids = make([]int, k)
	}
	centroids = group.BroadcastInts(centroids)

	assignments := Clustering(matrix, k, centroids, config.KMeansMaxIterations)

	return Result{
		Assignments: assignments,
		ZoneID:      assignments[group.Rank()],
	}
}

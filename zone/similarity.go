// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package zone implements affinity-based zone formation: similarity
// scoring, k-means++ seeded clustering, and witness identification
// (spec.md §4.1).
package zone

import (
	"github.com/luxfi/zonesim/config"
)

// Similarity scores rank j from rank i's point of view by blending
// normalized latency (lower is better) with transaction affinity
// (higher is better), grounded on
// original_source/src/zones.c's compute_similarity.
func Similarity(latency float64, affinityCount int, totalTxCount int, p config.Parameters) float64 {
	normLatency := latency / p.LatencyMax
	if normLatency > 1.0 {
		normLatency = 1.0
	}
	if normLatency < 0 {
		normLatency = 0
	}

	affinity := 0.0
	if totalTxCount > 0 {
		affinity = float64(affinityCount) / float64(totalTxCount)
	}

	return p.LatencyWeight*(1.0-normLatency) + p.AffinityWeight*affinity
}

// SimilarityRow computes rank i's similarity to every other rank given
// its latency and affinity-count tables.
func SimilarityRow(latencies []float64, affinityCounts []int, totalTxCount int, p config.Parameters) []float64 {
	row := make([]float64, len(latencies))
	for j := range row {
		row[j] = Similarity(latencies[j], affinityCounts[j], totalTxCount, p)
	}
	return row
}

// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package zone

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/zonesim/config"
	"github.com/luxfi/zonesim/fabric"
	"github.com/luxfi/zonesim/sampler"
)

func TestSimilarityWeighting(t *testing.T) {
	p := config.Default()
	// Zero latency, zero affinity: pure latency term.
	require.InDelta(t, p.LatencyWeight, Similarity(0, 0, 0, p), 1e-9)
	// Latency beyond the max clamps the latency term to zero.
	require.InDelta(t, 0, Similarity(p.LatencyMax*2, 0, 0, p), 1e-9)
	// Full affinity with max latency: only the affinity term remains.
	require.InDelta(t, p.AffinityWeight, Similarity(p.LatencyMax, 10, 10, p), 1e-9)
}

// blockMatrix builds an n x n similarity matrix with nGroups equal
// blocks: rows in the same block score inGroup against each other and
// outGroup against everyone else, giving k-means well-separated
// clusters to find (spec.md §8 scenario 3).
func blockMatrix(n, nGroups int, inGroup, outGroup float64) [][]float64 {
	groupSize := n / nGroups
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			if i/groupSize == j/groupSize {
				m[i][j] = inGroup
			} else {
				m[i][j] = outGroup
			}
		}
	}
	return m
}

func TestKMeansPlusPlusFourWaySeparation(t *testing.T) {
	const n, k = 8, 4
	matrix := blockMatrix(n, k, 0.95, 0.05)
	src := sampler.NewSource(1)

	centroids := KMeansPlusPlusInit(matrix, k, src)
	assignments := Clustering(matrix, k, centroids, 5)

	groupSize := n / k
	for g := 0; g < k; g++ {
		first := assignments[g*groupSize]
		for i := g * groupSize; i < (g+1)*groupSize; i++ {
			require.Equal(t, first, assignments[i], "row %d should share its block's cluster", i)
		}
	}
	// Every block must land in a distinct cluster.
	seen := map[int]bool{}
	for g := 0; g < k; g++ {
		seen[assignments[g*groupSize]] = true
	}
	require.Len(t, seen, k)
}

func TestWitnessIdentification(t *testing.T) {
	p := config.Default()
	// Rank 0 has two close neighbours (latency < 50ms) in different zones.
	latencies := []float64{0, 10, 20, 200}
	zoneAssignments := []int{0, 1, 2, 2}

	require.True(t, IsWitness(0, latencies, zoneAssignments, p))
}

func TestWitnessNotWitnessWhenSingleZoneNeighborhood(t *testing.T) {
	p := config.Default()
	latencies := []float64{0, 10, 20, 200}
	zoneAssignments := []int{0, 1, 1, 2}

	require.False(t, IsWitness(0, latencies, zoneAssignments, p))
}

func TestNeighborZonesListsDistinctZonesExcludingSelf(t *testing.T) {
	p := config.Default()
	latencies := []float64{0, 10, 20, 200}
	zoneAssignments := []int{0, 1, 2, 2}

	got := NeighborZones(0, latencies, zoneAssignments, p)
	require.ElementsMatch(t, []int{1, 2}, got)
}

func TestFormAgreesAcrossRanksAndPreservesOrder(t *testing.T) {
	const n, k = 8, 4
	p := config.Default()
	p.MaxZones = k
	// Keep in-group similarity achievable: with affinity held at 0,
	// Similarity tops out at p.LatencyWeight.
	matrix := blockMatrix(n, k, 0.9*p.LatencyWeight, 0.05)

	grp := fabric.NewGlobal(n)
	results := make([]Result, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for r := 0; r < n; r++ {
		go func(r int) {
			defer wg.Done()
			g := fabric.For(grp, r)
			// affinityCounts/totalTxCount unused by this matrix's fixed rows;
			// feed latencies that reduce to the same precomputed similarity.
			row := matrix[r]
			latencies := make([]float64, n)
			affinity := make([]int, n)
			for j, sim := range row {
				// Invert Similarity's latency-only formula to recover a
				// latency that reproduces sim exactly (affinity held at 0).
				latencies[j] = p.LatencyMax * (1 - sim/p.LatencyWeight)
			}
			src := sampler.NewSource(1)
			results[r] = Form(g, latencies, affinity, 0, p, src)
		}(r)
	}
	wg.Wait()

	groupSize := n / k
	for r := 1; r < n; r++ {
		require.Equal(t, results[0].Assignments, results[r].Assignments, "all ranks must compute the identical global assignment")
	}
	for g := 0; g < k; g++ {
		first := results[0].Assignments[g*groupSize]
		for i := g * groupSize; i < (g+1)*groupSize; i++ {
			require.Equal(t, first, results[0].Assignments[i])
		}
	}
}

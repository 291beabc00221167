// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package zone

import (
	"math"

	"github.com/luxfi/zonesim/config"
	"github.com/luxfi/zonesim/sampler"
)

// distance is the Euclidean distance between two equal-length feature
// vectors (here, two rows of the similarity matrix).
func distance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// KMeansPlusPlusInit seeds k centroids from a similarity matrix using
// the k-means++ strategy: the first centroid is uniform-random, every
// subsequent one is drawn with probability proportional to its squared
// distance from the nearest already-chosen centroid. Distance here is
// max-similarity minus similarity, so rows that are already alike to a
// chosen centroid are unlikely to be picked again. Grounded on
// original_source/src/zones.c's kmeans_plusplus_init.
func KMeansPlusPlusInit(matrix [][]float64, k int, src sampler.Source) []int {
	n := len(matrix)
	centroids := make([]int, 0, k)

	uniform := sampler.NewUniform(src)
	_ = uniform.Initialize(n)
	first, _ := uniform.Sample(1)
	centroids = append(centroids, first[0])

	maxSim := 0.0
	for _, row := range matrix {
		for _, v := range row {
			if v > maxSim {
				maxSim = v
			}
		}
	}

	for c := 1; c < k; c++ {
		weights := make([]uint64, n)
		chosen := make(map[int]bool, c)
		for _, idx := range centroids {
			chosen[idx] = true
		}

		anyWeight := false
		for i := 0; i < n; i++ {
			if chosen[i] {
				continue
			}
			minDist := math.MaxFloat64
			for _, cIdx := range centroids {
				d := maxSim - matrix[i][cIdx] + config.KMeansPlusPlusEpsilon
				if d < minDist {
					minDist = d
				}
			}
			sq := minDist * minDist
			// Scale into an integer weight; precision beyond 1e6 steps
			// does not change which bucket a draw lands in here.
			weights[i] = uint64(sq * 1e6)
			if weights[i] > 0 {
				anyWeight = true
			}
		}
		if !anyWeight {
			centroids = append(centroids, fallbackCentroid(uniform, chosen, n))
			continue
		}

		w := sampler.NewWeighted(src)
		if err := w.Initialize(weights); err != nil {
			centroids = append(centroids, fallbackCentroid(uniform, chosen, n))
			continue
		}
		picked, ok := w.Sample(1)
		if !ok {
			centroids = append(centroids, fallbackCentroid(uniform, chosen, n))
			continue
		}
		centroids = append(centroids, picked[0])
	}

	return centroids
}

// fallbackCentroid draws a uniformly random index not already chosen,
// matching kmeans_plusplus_init's fallback when every remaining
// candidate's weight underflows to zero.
func fallbackCentroid(uniform sampler.Uniform, chosen map[int]bool, n int) int {
	for {
		idx, ok := uniform.Sample(1)
		if ok && !chosen[idx[0]] {
			return idx[0]
		}
		if len(chosen) >= n {
			return 0
		}
	}
}

// Clustering assigns each of the n rows in matrix to one of k clusters
// via Lloyd's iteration, starting from the given initial centroid rows
// and stopping after maxIterations or once the largest centroid
// movement drops below config.KMeansConvergenceDelta. Grounded on
// original_source/src/zones.c's kmeans_clustering.
func Clustering(matrix [][]float64, k int, initialCentroids []int, maxIterations int) []int {
	n := len(matrix)
	dim := n

	centroids := make([][]float64, k)
	for i, rowIdx := range initialCentroids {
		centroids[i] = append([]float64(nil), matrix[rowIdx]...)
	}

	assignments := make([]int, n)

	for iter := 0; iter < maxIterations; iter++ {
		oldCentroids := make([][]float64, k)
		for i := range centroids {
			oldCentroids[i] = append([]float64(nil), centroids[i]...)
		}

		clusterSizes := make([]int, k)
		for i := 0; i < n; i++ {
			minDist := math.Inf(1)
			best := 0
			for j := 0; j < k; j++ {
				d := distance(matrix[i], centroids[j])
				if d < minDist {
					minDist = d
					best = j
				}
			}
			assignments[i] = best
			clusterSizes[best]++
		}

		next := make([][]float64, k)
		for j := range next {
			next[j] = make([]float64, dim)
		}
		for i := 0; i < n; i++ {
			cluster := assignments[i]
			if clusterSizes[cluster] == 0 {
				continue
			}
			for j := 0; j < dim; j++ {
				next[cluster][j] += matrix[i][j] / float64(clusterSizes[cluster])
			}
		}
		centroids = next

		maxChange := 0.0
		for i := 0; i < k; i++ {
			change := distance(centroids[i], oldCentroids[i])
			if change > maxChange {
				maxChange = change
			}
		}
		if maxChange < config.KMeansConvergenceDelta {
			break
		}
	}

	return assignments
}

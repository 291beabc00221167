// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sampler

import "math"

// weighted implements Weighted: sampling without replacement, where
// each draw picks index i with probability proportional to its
// remaining weight. k-means++ centroid selection uses this to pick
// each successive centroid with probability proportional to its
// squared distance from the nearest already-chosen centroid
// (spec.md §4.1, grounded on original_source/src/zones.c's
// kmeans_plusplus_init).
type weighted struct {
	weights     []uint64
	totalWeight uint64
	src         Source
}

// NewWeighted returns a Weighted backed by src.
func NewWeighted(src Source) Weighted {
	return &weighted{src: src}
}

func (w *weighted) Initialize(weights []uint64) error {
	w.weights = make([]uint64, len(weights))
	copy(w.weights, weights)

	w.totalWeight = 0
	for _, weight := range weights {
		if weight > math.MaxUint64-w.totalWeight {
			return ErrOutOfRange
		}
		w.totalWeight += weight
	}
	return nil
}

// Sample draws size indices without replacement. Indices with zero
// weight are never chosen once a positive-weight index exists. It
// falls back to uniform selection over all indices when every weight
// is zero (total weight 0), matching kmeans_plusplus_init's behavior
// when every candidate already coincides with a chosen centroid.
func (w *weighted) Sample(size int) ([]int, bool) {
	if size == 0 {
		return []int{}, true
	}
	if w.totalWeight == 0 {
		if len(w.weights) == 0 || size > len(w.weights) {
			return nil, false
		}
		indices := make([]int, size)
		used := make(map[int]bool, size)
		for i := 0; i < size; i++ {
			for {
				idx := int(w.src.Uint64() % uint64(len(w.weights)))
				if !used[idx] {
					used[idx] = true
					indices[i] = idx
					break
				}
			}
		}
		return indices, true
	}
	if uint64(size) > w.totalWeight {
		return nil, false
	}

	indices := make([]int, size)
	usedDraws := make(map[uint64]bool, size)
	for i := 0; i < size; i++ {
		var draw uint64
		for {
			draw = w.src.Uint64() % w.totalWeight
			if !usedDraws[draw] {
				usedDraws[draw] = true
				break
			}
		}
		cum := uint64(0)
		for j, weight := range w.weights {
			cum += weight
			if draw < cum {
				indices[i] = j
				break
			}
		}
	}
	return indices, true
}

// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sampler provides the randomness primitives shared by
// k-means++ centroid selection (zone formation) and Fast-Voting peer
// sampling (consensus): a seedable Source, uniform sampling without
// replacement, and weighted sampling without replacement.
package sampler

import "errors"

var ErrOutOfRange = errors.New("sampler: out of range")

// Source is a seedable source of uniform random uint64s.
type Source interface {
	Seed(int64)
	Uint64() uint64
}

// Sampler draws size indices from an initialized population.
type Sampler interface {
	Sample(size int) ([]int, bool)
}

// Uniform samples indices without replacement, each equally likely.
type Uniform interface {
	Sampler
	Initialize(count int) error
}

// Weighted samples indices without replacement, proportional to a
// per-index weight.
type Weighted interface {
	Sampler
	Initialize(weights []uint64) error
}

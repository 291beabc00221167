// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sampler

import "gonum.org/v1/gonum/mathext/prng"

// mt19937Source wraps gonum's MT19937 generator to implement Source.
// Both the zone-formation k-means++ seeding and Fast-Voting peer
// sampling need a seedable, reproducible generator so a fixed-seed run
// always partitions and samples the same way (spec.md §8 scenario 3).
type mt19937Source struct {
	mt *prng.MT19937
}

// NewSource returns a Source seeded deterministically.
func NewSource(seed int64) Source {
	s := &mt19937Source{mt: prng.NewMT19937()}
	s.Seed(seed)
	return s
}

func (s *mt19937Source) Seed(seed int64) {
	s.mt.Seed(uint64(seed))
}

func (s *mt19937Source) Uint64() uint64 {
	return s.mt.Uint64()
}

// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"github.com/luxfi/zonesim/config"
	"github.com/luxfi/zonesim/sampler"
	"github.com/luxfi/zonesim/transaction"
)

// FastVoting runs Avalanche-style repeated sampling over a zone of
// zoneSize peers. Every sampled vote is validate(tx), the same
// predicate for all samples — a simulator simplification spec.md
// §7 requires preserving exactly, since this simulator has no real
// peers to query. src draws the (otherwise inert) with-replacement
// peer samples each round, matching
// original_source/src/fast_voting.c's rand()%zone_size draws.
func FastVoting(tx transaction.Tx, zoneSize int, src sampler.Source, p config.Parameters) bool {
	if zoneSize < p.FVSampleSize {
		return true
	}

	vote := tx.Validate()

	preference := -1 // -1 undecided, 0 reject, 1 accept
	consecutive := 0
	maxRounds := p.FVConsecutiveRounds + p.FVMaxExtraRounds

	for round := 0; round < maxRounds; round++ {
		acceptCount, rejectCount := 0, 0
		for i := 0; i < p.FVSampleSize; i++ {
			_ = int(src.Uint64() % uint64(zoneSize)) // peer drawn, unused: see doc comment
			if vote {
				acceptCount++
			} else {
				rejectCount++
			}
		}

		var proposal int
		switch {
		case acceptCount >= p.FVQuorum:
			proposal = 1
		case rejectCount >= p.FVQuorum:
			proposal = 0
		default:
			consecutive = 0
			continue
		}

		if proposal == preference {
			consecutive++
		} else {
			preference = proposal
			consecutive = 1
		}

		if consecutive >= p.FVConsecutiveRounds {
			return preference == 1
		}
	}

	return false
}

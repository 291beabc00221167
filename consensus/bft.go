// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"github.com/luxfi/zonesim/config"
	"github.com/luxfi/zonesim/fabric"
	"github.com/luxfi/zonesim/transaction"
)

// BFT runs a one-round quorum vote over zoneGroup: every member votes
// validate(tx), the votes are summed across the zone (fabric's reduce
// stands in for MPI_Allgather + local count, since the simulator only
// needs the aggregate), and tx is accepted once the acceptance ratio
// reaches config.Parameters.BFTQuorum. Zones of size <= 2 skip the
// collective and return the local vote, avoiding a round-trip for a
// decision a single vote already determines. Grounded on
// original_source/src/bft.c's bft_consensus.
func BFT(tx transaction.Tx, zoneGroup fabric.Group, p config.Parameters) bool {
	vote := tx.Validate()

	if zoneGroup.Size() <= 2 {
		return vote
	}

	localVote := 0
	if vote {
		localVote = 1
	}
	accepts := zoneGroup.ReduceSumInt(localVote)
	ratio := float64(accepts) / float64(zoneGroup.Size())
	return ratio >= p.BFTQuorum
}

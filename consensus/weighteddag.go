// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"github.com/luxfi/zonesim/config"
	"github.com/luxfi/zonesim/dag"
	"github.com/luxfi/zonesim/transaction"
)

// WeightedDAG accepts tx once its cumulative decayed-child weight in
// store reaches config.Parameters.WDMinWeight. Grounded on
// original_source/src/weighted_dag.c's weighted_dag_consensus.
func WeightedDAG(tx transaction.Tx, store *dag.Store, p config.Parameters) bool {
	idx := store.Find(tx.TxID, tx.Sender)
	if idx == -1 {
		return false
	}
	return store.Weight(idx) >= p.WDMinWeight
}

// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package dag implements the local, append-only transaction graph and
// its cumulative decayed-child-weight recurrence (spec.md §3, §4.1).
package dag

import (
	"math"

	"github.com/luxfi/zonesim/config"
	"github.com/luxfi/zonesim/transaction"
)

// Store is an append-only sequence of transactions plus a parallel
// integer weight table. It is owned by exactly one participant and
// must never be shared across goroutines without external locking —
// the simulator's single-threaded-per-participant model (spec.md §5)
// relies on that.
type Store struct {
	txs      []transaction.Tx
	weights  []int
	capacity int
	decay    float64
}

// New returns an empty Store with the given capacity. Once capacity
// transactions have been appended, further Append calls are dropped
// silently (spec.md §7, capacity exhaustion policy).
func New(capacity int) *Store {
	return &Store{
		txs:      make([]transaction.Tx, 0, capacity),
		weights:  make([]int, 0, capacity),
		capacity: capacity,
		decay:    config.WDDecay,
	}
}

// Len returns the number of stored transactions.
func (s *Store) Len() int {
	return len(s.txs)
}

// Append adds tx to the store with an initial weight of 1. It reports
// false (and drops tx) if the store is at capacity.
func (s *Store) Append(tx transaction.Tx) bool {
	if len(s.txs) >= s.capacity {
		return false
	}
	s.txs = append(s.txs, tx)
	s.weights = append(s.weights, 1)
	return true
}

// At returns the transaction stored at index i.
func (s *Store) At(i int) transaction.Tx {
	return s.txs[i]
}

// Weight returns the current weight of index i, or 0 if i is out of range.
func (s *Store) Weight(i int) int {
	if i < 0 || i >= len(s.weights) {
		return 0
	}
	return s.weights[i]
}

// LatestParents returns the DAG indices a newly generated transaction
// should reference: (-1,-1) when empty, (0,-1) for a single entry, and
// the last two indices otherwise (spec.md §8 boundary cases).
func (s *Store) LatestParents() (int, int) {
	n := len(s.txs)
	switch {
	case n == 0:
		return transaction.NoParent, transaction.NoParent
	case n == 1:
		return 0, transaction.NoParent
	default:
		return n - 2, n - 1
	}
}

// Find locates a transaction by (txID, sender) as Weighted-DAG
// consensus requires; returns -1 if absent.
func (s *Store) Find(txID int, sender transaction.Rank) int {
	for i, tx := range s.txs {
		if tx.TxID == txID && tx.Sender == sender {
			return i
		}
	}
	return -1
}

// UpdateWeights recomputes the cumulative decayed-child-weight table
// from scratch:
//
//	W[i] = 1 + floor(decay * sum(W[j] : j>i, parents_of_j references i))
//
// evaluated from the highest index downward so each term on the right
// is already finalized when read (spec.md §3). The pass is idempotent
// when no Append has happened since the last call.
func (s *Store) UpdateWeights() {
	n := len(s.txs)
	for i := range s.weights {
		s.weights[i] = 1
	}
	for i := n - 1; i >= 0; i-- {
		childSupport := 0
		for j := i + 1; j < n; j++ {
			child := s.txs[j]
			if child.Parents[0] == i || child.Parents[1] == i {
				childSupport += s.weights[j]
			}
		}
		s.weights[i] += int(math.Floor(s.decay * float64(childSupport)))
	}
}

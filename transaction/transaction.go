// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package transaction defines the immutable transaction value object
// exchanged between participants and stored in the DAG.
package transaction

import (
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/luxfi/ids"
)

// Rank identifies a participant within the global group (0..N-1).
type Rank int

// NoParent marks an absent DAG parent slot.
const NoParent = -1

// Tx is an immutable transaction record. Fields are set once at
// creation time by the originating participant and never mutated
// afterwards; every recipient stores its own copy.
type Tx struct {
	TxID      int       // unique within Sender
	Sender    Rank
	Receiver  Rank
	Amount    float64
	Parents   [2]int // DAG indices at the originator, or NoParent
	ZoneID    int
	Phase     int
	Timestamp time.Time
}

// New builds a Tx with the given parents (NoParent when unavailable).
// TxID and Timestamp are left zero-valued; the caller stamps them.
func New(sender, receiver Rank, amount float64, parents [2]int, zoneID, phase int) Tx {
	return Tx{
		Sender:   sender,
		Receiver: receiver,
		Amount:   amount,
		Parents:  parents,
		ZoneID:   zoneID,
		Phase:    phase,
	}
}

// Validate reports whether tx is well-formed. Amount must be strictly
// positive and both endpoints must be valid ranks; this is the only
// predicate every consensus protocol samples.
func (t Tx) Validate() bool {
	if t.Amount <= 0 {
		return false
	}
	if t.Sender < 0 || t.Receiver < 0 {
		return false
	}
	return true
}

// Bytes returns a deterministic encoding of the immutable fields, used
// to derive ID() and for wire transfer inside the simulated fabric.
func (t Tx) Bytes() []byte {
	buf := make([]byte, 0, 64)
	var scratch [8]byte

	putInt := func(v int64) {
		binary.BigEndian.PutUint64(scratch[:], uint64(v))
		buf = append(buf, scratch[:]...)
	}
	putFloat := func(v float64) {
		binary.BigEndian.PutUint64(scratch[:], uint64(int64(v*1e9)))
		buf = append(buf, scratch[:]...)
	}

	putInt(int64(t.TxID))
	putInt(int64(t.Sender))
	putInt(int64(t.Receiver))
	putFloat(t.Amount)
	putInt(int64(t.Parents[0]))
	putInt(int64(t.Parents[1]))
	putInt(int64(t.ZoneID))
	putInt(int64(t.Phase))
	putInt(t.Timestamp.UnixNano())
	return buf
}

// FromBytes decodes the encoding produced by Bytes, as used on the
// receiving end of a simulated wire transfer.
func FromBytes(buf []byte) Tx {
	getInt := func(off int) int64 {
		return int64(binary.BigEndian.Uint64(buf[off : off+8]))
	}
	getFloat := func(off int) float64 {
		return float64(getInt(off)) / 1e9
	}

	return Tx{
		TxID:      int(getInt(0)),
		Sender:    Rank(getInt(8)),
		Receiver:  Rank(getInt(16)),
		Amount:    getFloat(24),
		Parents:   [2]int{int(getInt(32)), int(getInt(40))},
		ZoneID:    int(getInt(48)),
		Phase:     int(getInt(56)),
		Timestamp: time.Unix(0, getInt(64)),
	}
}

// ID returns the content-addressed digest of tx, in the same spirit
// as the teacher's engine/dag.Tx.ID(): a sha256 of the immutable
// encoding. The simulator's own lookups use (TxID, Sender) per
// spec.md; ID() exists for logging and collision detection in tests.
func (t Tx) ID() ids.ID {
	return ids.ID(sha256.Sum256(t.Bytes()))
}

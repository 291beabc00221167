// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package transaction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		tx   Tx
		want bool
	}{
		{"positive amount", New(0, 1, 10.0, [2]int{NoParent, NoParent}, 0, 0), true},
		{"zero amount", New(0, 1, 0, [2]int{NoParent, NoParent}, 0, 0), false},
		{"negative amount", New(0, 1, -5, [2]int{NoParent, NoParent}, 0, 0), false},
		{"negative sender", New(-1, 1, 5, [2]int{NoParent, NoParent}, 0, 0), false},
		{"negative receiver", New(0, -1, 5, [2]int{NoParent, NoParent}, 0, 0), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, c.tx.Validate())
		})
	}
}

func TestIDDeterministic(t *testing.T) {
	tx := New(0, 1, 10.0, [2]int{NoParent, NoParent}, 0, 0)
	tx.TxID = 42

	require.Equal(t, tx.ID(), tx.ID())

	other := tx
	other.Amount = 20.0
	require.NotEqual(t, tx.ID(), other.ID())
}

func TestBytesRoundTrip(t *testing.T) {
	tx := New(3, 7, 12.34, [2]int{5, NoParent}, 2, 1)
	tx.TxID = 99
	tx.Timestamp = time.Unix(1700000000, 123456789) // a stamped wall time; the zero time.Time is outside UnixNano's range

	got := FromBytes(tx.Bytes())

	require.Equal(t, tx.TxID, got.TxID)
	require.Equal(t, tx.Sender, got.Sender)
	require.Equal(t, tx.Receiver, got.Receiver)
	require.InDelta(t, tx.Amount, got.Amount, 1e-6)
	require.Equal(t, tx.Parents, got.Parents)
	require.Equal(t, tx.ZoneID, got.ZoneID)
	require.Equal(t, tx.Phase, got.Phase)
	require.True(t, tx.Timestamp.Equal(got.Timestamp))
}

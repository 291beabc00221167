// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package participant

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/zonesim/fabric"
	"github.com/luxfi/zonesim/sampler"
)

func TestAssignGeographyThreeClusters(t *testing.T) {
	const n = 9
	grp := fabric.NewGlobal(n)
	xs := make([]float64, n)

	for r := 0; r < n; r++ {
		p := New(r, n, fabric.For(grp, r))
		p.AssignGeography(sampler.NewSource(int64(r)))
		xs[r] = p.X
	}

	// Ranks 0-2 near Asia (x~100), 3-5 near Europe (x~300), 6-8 near Americas (x~500).
	for r := 0; r < 3; r++ {
		require.InDelta(t, 100.0, xs[r], 30)
	}
	for r := 3; r < 6; r++ {
		require.InDelta(t, 300.0, xs[r], 30)
	}
	for r := 6; r < 9; r++ {
		require.InDelta(t, 500.0, xs[r], 30)
	}
}

func TestExchangeLatenciesFloorAndSymmetricCoords(t *testing.T) {
	const n = 4
	grp := fabric.NewGlobal(n)

	participants := make([]*Participant, n)
	for r := 0; r < n; r++ {
		participants[r] = New(r, n, fabric.For(grp, r))
	}
	// Co-locate everyone so distance is 0 and latency floors at 1ms.
	for _, p := range participants {
		p.X, p.Y = 100, 100
	}

	var wg sync.WaitGroup
	wg.Add(n)
	for r := 0; r < n; r++ {
		go func(r int) {
			defer wg.Done()
			participants[r].ExchangeLatencies(sampler.NewSource(int64(r)))
		}(r)
	}
	wg.Wait()

	for r := 0; r < n; r++ {
		require.Len(t, participants[r].Latencies, n)
		for _, lat := range participants[r].Latencies {
			require.GreaterOrEqual(t, lat, 1.0)
		}
	}
}

func TestRecordAffinity(t *testing.T) {
	p := New(0, 5, nil)
	p.RecordAffinity(2)
	p.RecordAffinity(2)
	p.RecordAffinity(4)

	require.Equal(t, 2, p.Affinity[2])
	require.Equal(t, 1, p.Affinity[4])
	require.Equal(t, 3, p.TotalTxCount)
}

func TestRecordAffinityIgnoresOutOfRange(t *testing.T) {
	p := New(0, 2, nil)
	p.RecordAffinity(-1)
	p.RecordAffinity(5)
	require.Equal(t, 2, p.TotalTxCount) // counted, just no affinity bump
}

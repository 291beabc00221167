// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package driver

import (
	"sync"
	"testing"
	"time"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/zonesim/advisor"
	"github.com/luxfi/zonesim/config"
	"github.com/luxfi/zonesim/fabric"
	"github.com/luxfi/zonesim/metrics"
	"github.com/luxfi/zonesim/participant"
	"github.com/luxfi/zonesim/sampler"
	"github.com/luxfi/zonesim/zone"
)

// runFullParticipant carries one rank through the same bootstrap
// cmd/simulator/main.go's runParticipant performs (geography, latency
// exchange, initial zone formation, a global barrier) before handing
// off to a Driver for the bounded run, and returns its network
// aggregate alongside its own per-rank finalized count.
func runFullParticipant(rank, size int, global fabric.Group, params config.Parameters) (metrics.Aggregate, int) {
	view := fabric.For(global, rank)
	src := sampler.NewSource(int64(rank) + 1)

	p := participant.New(rank, size, view)
	p.AssignGeography(src)
	p.ExchangeLatencies(src)

	res := zone.Form(p.Global, p.Latencies, p.Affinity, p.TotalTxCount, params, src)
	p.ZoneID = res.ZoneID
	p.ZoneGroup = p.Global.Split(res.ZoneID)

	view.Barrier()

	m, err := metrics.New(rank, prometheus.NewRegistry())
	if err != nil {
		return metrics.Aggregate{}, 0
	}

	d := New(log.NewNoOpLogger(), p, m, src, params, advisor.None{})
	agg := d.Run(time.Now())
	return agg, m.FinalizedCount()
}

// TestRunMultiParticipantCompletesWithoutDeadlockAndAggregatesExactly
// drives spec.md §8 scenario 6's shape (several concurrent
// participants, generation active for most of a short bounded run)
// end to end over a real fabric.Group: every rank's full
// driver.Driver.Run loop, including the staged shutdown sequence
// spec.md calls out as the subtlest logic in the whole system. A test
// timeout shorter than the actual test timeout catches any rank
// blocking forever in a collective (Barrier/AllGather/Split), and the
// rank-0 network aggregate is checked against the literal sum of every
// rank's own finalized counter.
func TestRunMultiParticipantCompletesWithoutDeadlockAndAggregatesExactly(t *testing.T) {
	const n = 4
	params := config.Default()
	params.ExperimentDuration = 600 * time.Millisecond
	params.TxGenerationProb = 1.0 // maximize generated/finalized activity within the short window

	global := fabric.NewGlobal(n)

	aggs := make([]metrics.Aggregate, n)
	finalized := make([]int, n)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(n)
	for r := 0; r < n; r++ {
		go func(r int) {
			defer wg.Done()
			aggs[r], finalized[r] = runFullParticipant(r, n, global, params)
		}(r)
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("participants did not complete: a rank is blocked in a collective")
	}

	sum := 0
	for _, f := range finalized {
		sum += f
	}
	require.Equal(t, sum, aggs[0].TotalFinalized, "rank 0's network aggregate must equal the sum of every rank's own finalized count")
}

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
)

func newTestDriver(t *testing.T, rank, size int, grp fabric.Group, params config.Parameters) *Driver {
	t.Helper()
	p := participant.New(rank, size, grp)
	p.ZoneGroup = grp
	m, err := metrics.New(rank, prometheus.NewRegistry())
	require.NoError(t, err)
	return New(log.NewNoOpLogger(), p, m, sampler.NewSource(int64(rank)), params, advisor.None{})
}

func TestIterateGeneratesAndProcessesWithinProcessWindow(t *testing.T) {
	const n = 3
	grp := fabric.NewGlobal(n)
	params := config.Default()
	params.TxGenerationProb = 1.0 // always generate, isolating the process-window boundary

	d := newTestDriver(t, 0, n, fabric.For(grp, 0), params)

	var wg sync.WaitGroup
	wg.Add(n - 1)
	for r := 1; r < n; r++ {
		go func(r int) {
			defer wg.Done()
			view := fabric.For(grp, r)
			// Zone 0 is permissioned, so rank 0 runs BFT: a zone-wide
			// collective the other members must join.
			view.ReduceSumInt(1)
		}(r)
	}

	now := time.Now()
	shutdownTime := now.Add(time.Hour)
	processTime := now.Add(time.Hour)
	d.lastRebalance = now // as Run sets it; otherwise iterate starts a global rebalance
	d.iterate(now, shutdownTime, processTime)
	wg.Wait()

	require.Equal(t, 1, d.Store.Len())
	require.Equal(t, 1, d.Metric.TotalCount())
}

func TestIterateSkipsGenerationPastShutdownTime(t *testing.T) {
	const n = 2
	grp := fabric.NewGlobal(n)
	params := config.Default()
	params.TxGenerationProb = 1.0

	d := newTestDriver(t, 0, n, fabric.For(grp, 0), params)

	now := time.Now()
	shutdownTime := now.Add(-time.Second) // already past
	processTime := now.Add(time.Hour)
	d.lastRebalance = now // as Run sets it; otherwise iterate starts a global rebalance
	d.iterate(now, shutdownTime, processTime)

	require.Equal(t, 0, d.Store.Len())
}

func TestGenerateRecordsTxButSkipsConsensusPastProcessTime(t *testing.T) {
	const n = 2
	grp := fabric.NewGlobal(n)
	params := config.Default()

	d := newTestDriver(t, 0, n, fabric.For(grp, 0), params)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		fabric.For(grp, 1).TryRecv(txTag)
	}()

	now := time.Now()
	d.generateAndMaybeProcess(now, false)
	wg.Wait()

	require.Equal(t, 1, d.Store.Len())
	require.Equal(t, 1, d.Metric.TotalCount())
	require.Equal(t, 0, d.Metric.FinalizedCount())
}

func TestDrainInboundAppliesOnlyWithinProcessWindow(t *testing.T) {
	const n = 2
	grp := fabric.NewGlobal(n)
	params := config.Default()

	sender := newTestDriver(t, 0, n, fabric.For(grp, 0), params)
	receiver := newTestDriver(t, 1, n, fabric.For(grp, 1), params)

	sender.generateAndMaybeProcess(time.Now(), false)

	receiver.drainInbound(time.Now(), false)
	require.Equal(t, 0, receiver.Store.Len())

	sender.generateAndMaybeProcess(time.Now(), false)
	receiver.drainInbound(time.Now(), true)
	require.Equal(t, 1, receiver.Store.Len())
	require.Equal(t, 1, receiver.P.Affinity[0])
}

func TestShutdownDrainsRemainingMessagesThenBarrierReleases(t *testing.T) {
	const n = 2
	grp := fabric.NewGlobal(n)
	params := config.Default()

	d0 := newTestDriver(t, 0, n, fabric.For(grp, 0), params)
	view1 := fabric.For(grp, 1)

	// Queue a straggler message that arrives after the main loop ends.
	view1.Send(0, txTag, []byte{0})

	var wg sync.WaitGroup
	wg.Add(1)
	released := false
	go func() {
		defer wg.Done()
		view1.Barrier()
		released = true
	}()

	d0.shutdown()
	wg.Wait()
	require.True(t, released)
}

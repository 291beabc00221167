// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command simulator runs the zone-affinity consensus simulation
// described by spec.md end to end: every simulated participant is a
// goroutine sharing one in-process fabric.Group, each running its own
// driver.Driver for the configured duration. Grounded on
// original_source/src/main.c.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/zonesim/advisor"
	"github.com/luxfi/zonesim/config"
	"github.com/luxfi/zonesim/driver"
	"github.com/luxfi/zonesim/fabric"
	"github.com/luxfi/zonesim/metrics"
	"github.com/luxfi/zonesim/participant"
	"github.com/luxfi/zonesim/sampler"
	"github.com/luxfi/zonesim/zone"
)

func main() {
	nodes := flag.Int("nodes", 12, "number of simulated participants")
	flag.Parse()

	params := config.Default()
	if args := flag.Args(); len(args) > 0 {
		d, err := strconv.ParseFloat(args[0], 64)
		if err == nil && d > 0.0 {
			params.ExperimentDuration = time.Duration(d * float64(time.Second))
		} else {
			fmt.Fprintf(os.Stderr, "Warning: invalid duration input %q. Using default %s.\n", args[0], params.ExperimentDuration)
		}
	}
	if err := params.Valid(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid parameters: %v\n", err)
		os.Exit(1)
	}

	n := *nodes
	if n <= 0 {
		fmt.Fprintln(os.Stderr, "nodes must be positive")
		os.Exit(1)
	}

	fmt.Println("=== ASTP Blockchain Simulator ===")
	fmt.Printf("Nodes: %d\n", n)
	fmt.Printf("Duration: %s\n", params.ExperimentDuration)
	fmt.Println("==================================")
	fmt.Println()

	global := fabric.NewGlobal(n)
	// A real logger, not log.NewNoOpLogger(), so rank 0's phase-transition
	// and rebalance notices (driver.Driver.iterate/rebalance) actually
	// reach stdout; NewNoOpLogger is reserved for tests and library
	// callers that never construct a CLI entrypoint.
	logger := log.NewLogger("zonesim")

	aggs := make([]metrics.Aggregate, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for r := 0; r < n; r++ {
		go func(r int) {
			defer wg.Done()
			aggs[r] = runParticipant(r, n, global, params, logger)
		}(r)
	}
	wg.Wait()

	fmt.Println()
	fmt.Println("=== Simulation Complete ===")
	fmt.Printf("Network TPS:       %.2f\n", aggs[0].TotalTPS)
	fmt.Printf("Network Finalized: %d\n", aggs[0].TotalFinalized)
}

// runParticipant carries one simulated rank through geography
// assignment, initial zone formation, the bounded driver loop, and
// shutdown, printing its own summary line before returning the
// network aggregate (meaningful only at rank 0).
func runParticipant(rank, size int, global fabric.Group, params config.Parameters, logger log.Logger) metrics.Aggregate {
	view := fabric.For(global, rank)
	duration := view.BroadcastFloat64(params.ExperimentDuration.Seconds())
	params.ExperimentDuration = time.Duration(duration * float64(time.Second))

	src := sampler.NewSource(time.Now().UnixNano() + int64(rank))

	p := participant.New(rank, size, view)
	p.AssignGeography(src)
	p.ExchangeLatencies(src)

	res := zone.Form(p.Global, p.Latencies, p.Affinity, p.TotalTxCount, params, src)
	p.ZoneID = res.ZoneID
	p.ZoneGroup = p.Global.Split(res.ZoneID)

	view.Barrier()
	if rank == 0 {
		fmt.Println("Initialization complete. Starting simulation...")
		fmt.Println()
	}

	m, err := metrics.New(rank, prometheus.NewRegistry())
	if err != nil {
		fmt.Fprintf(os.Stderr, "rank %d: metrics registration failed: %v\n", rank, err)
		return metrics.Aggregate{}
	}

	d := driver.New(logger, p, m, src, params, advisor.None{})
	agg := d.Run(time.Now())

	fmt.Printf("rank %3d: zone=%d total=%d finalized=%d avgLatencyMs=%.2f tps=%.2f\n",
		rank, p.ZoneID, m.TotalCount(), m.FinalizedCount(), m.AvgLatencyMs(), m.TPS())

	return agg
}

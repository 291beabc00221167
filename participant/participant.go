// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package participant models one simulated blockchain process: its
// geography, latency table, affinity counters, and zone membership
// (spec.md §3, §4.1). Grounded on original_source/src/node.c.
package participant

import (
	"math"

	"github.com/luxfi/zonesim/config"
	"github.com/luxfi/zonesim/fabric"
	"github.com/luxfi/zonesim/sampler"
)

// geoCenters are the three synthetic geographic clusters (Asia,
// Europe, Americas) nodes are bootstrapped into.
var geoCenters = [3][2]float64{
	{100.0, 100.0},
	{300.0, 100.0},
	{500.0, 100.0},
}

// Participant is one rank's local state within the global group.
type Participant struct {
	Rank         fabric.Rank
	Size         int
	X, Y         float64
	Latencies    []float64
	Affinity     []int
	TotalTxCount int
	ZoneID       int
	Phase        config.Phase
	Global       fabric.Group
	ZoneGroup    fabric.Group
}

// New creates a participant bound to the global group at the given
// rank, with its affinity table sized for size peers.
func New(rank fabric.Rank, size int, global fabric.Group) *Participant {
	return &Participant{
		Rank:     rank,
		Size:     size,
		Affinity: make([]int, size),
		Phase:    config.PhaseNormal,
		Global:   global,
	}
}

// AssignGeography places the participant in one of three geographic
// clusters based on its rank, jittered by ±25 on each axis. Grounded
// on original_source/src/node.c's assign_geography.
func (p *Participant) AssignGeography(src sampler.Source) {
	clusterSize := p.Size / 3
	if clusterSize == 0 {
		clusterSize = 1
	}
	cluster := p.Rank / clusterSize
	if cluster >= 3 {
		cluster = 2
	}

	jitter := func() float64 {
		return float64(src.Uint64()%50) - 25
	}
	p.X = geoCenters[cluster][0] + jitter()
	p.Y = geoCenters[cluster][1] + jitter()
}

// latency converts Euclidean distance between two coordinates into a
// simulated millisecond latency: half the distance, ±10ms noise,
// floored at 1ms. Grounded on node.c's calculate_latency.
func latency(x1, y1, x2, y2 float64, src sampler.Source) float64 {
	dx, dy := x1-x2, y1-y2
	distance := math.Sqrt(dx*dx + dy*dy)
	base := distance * 0.5
	noise := float64(src.Uint64()%20) - 10
	got := base + noise
	if got < 1.0 {
		return 1.0
	}
	return got
}

// ExchangeLatencies all-gathers every participant's coordinates and
// computes this participant's latency to each peer. Grounded on
// node.c's exchange_latencies.
func (p *Participant) ExchangeLatencies(src sampler.Source) {
	coords := p.Global.AllGatherFloat64([]float64{p.X, p.Y})
	p.Latencies = make([]float64, len(coords))
	for i, c := range coords {
		p.Latencies[i] = latency(p.X, p.Y, c[0], c[1], src)
	}
}

// RecordAffinity increments the affinity counter for a peer whose
// transaction this participant just observed.
func (p *Participant) RecordAffinity(sender fabric.Rank) {
	if sender >= 0 && sender < len(p.Affinity) {
		p.Affinity[sender]++
	}
	p.TotalTxCount++
}

// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics tracks per-participant transaction counters and
// finalization latency, exposes them as Prometheus collectors, and
// reduces the network-wide totals to rank 0 (spec.md §3, §4.8).
// Grounded on original_source/src/metrics.c and the Prometheus
// registration style of protocol/nova/metrics.go.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/zonesim/fabric"
)

// DefaultLatencyCapacity matches metrics.c's latency sample array size.
const DefaultLatencyCapacity = 10000

// Metrics tracks one participant's transaction counters and
// finalization latencies.
type Metrics struct {
	total          prometheus.Counter
	finalized      prometheus.Counter
	totalCount     int
	finalizedCount int
	latencies      []float64
	capacity       int
	startTime      time.Time
	endTime        time.Time
}

// New returns a Metrics tracker registered against registerer.
func New(rank int, registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		total: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "zonesim_transactions_total",
			Help:        "Number of transactions created by this participant",
			ConstLabels: prometheus.Labels{"rank": strconv.Itoa(rank)},
		}),
		finalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "zonesim_transactions_finalized",
			Help:        "Number of transactions finalized by consensus on this participant",
			ConstLabels: prometheus.Labels{"rank": strconv.Itoa(rank)},
		}),
		capacity: DefaultLatencyCapacity,
	}

	if err := registerer.Register(m.total); err != nil {
		return nil, err
	}
	if err := registerer.Register(m.finalized); err != nil {
		return nil, err
	}
	return m, nil
}

// Start stamps the experiment's start time.
func (m *Metrics) Start(t time.Time) { m.startTime = t }

// End stamps the experiment's end time.
func (m *Metrics) End(t time.Time) { m.endTime = t }

// RecordTransaction counts a created transaction, whether or not it
// is later finalized.
func (m *Metrics) RecordTransaction() {
	m.total.Inc()
	m.totalCount++
}

// RecordFinalization counts a finalized transaction and, capacity
// permitting, records its end-to-end latency.
func (m *Metrics) RecordFinalization(createdAt, now time.Time) {
	m.finalized.Inc()
	m.finalizedCount++
	if len(m.latencies) < m.capacity {
		m.latencies = append(m.latencies, now.Sub(createdAt).Seconds()*1000.0)
	}
}

// TotalCount and FinalizedCount report the raw counters for local
// printing and reduction; Prometheus counters don't expose their own
// value cheaply, so Metrics tracks them in parallel plain fields.
func (m *Metrics) TotalCount() int     { return m.totalCount }
func (m *Metrics) FinalizedCount() int { return m.finalizedCount }

// AvgLatencyMs is the mean of every recorded finalization latency, or
// 0 if none were recorded.
func (m *Metrics) AvgLatencyMs() float64 {
	if len(m.latencies) == 0 {
		return 0
	}
	sum := 0.0
	for _, l := range m.latencies {
		sum += l
	}
	return sum / float64(len(m.latencies))
}

// TPS is this participant's finalized-transactions-per-second over
// [startTime, endTime].
func (m *Metrics) TPS() float64 {
	duration := m.endTime.Sub(m.startTime).Seconds()
	if duration <= 0 {
		return 0
	}
	return float64(m.finalizedCount) / duration
}

// Aggregate is the network-wide reduction computed at rank 0 (every
// other rank's return value is not meaningful, matching
// original_source/src/metrics.c's aggregate_metrics / MPI_Reduce).
type Aggregate struct {
	TotalTPS       float64
	TotalFinalized int
}

// Aggregate reduces this participant's TPS and finalized count across
// global via fabric's sum reductions.
func (m *Metrics) Aggregate(global fabric.Group) Aggregate {
	return Aggregate{
		TotalTPS:       global.ReduceSumFloat64(m.TPS()),
		TotalFinalized: global.ReduceSumInt(m.finalizedCount),
	}
}

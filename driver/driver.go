// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package driver runs one participant's bounded simulation loop:
// phase detection, transaction generation and consensus, inbound
// drain, periodic DAG weight updates and zone rebalancing, and the
// staged shutdown protocol (spec.md §4.7). Grounded on
// original_source/src/main.c.
package driver

import (
	"time"

	"github.com/luxfi/log"
	"go.uber.org/zap"

	"github.com/luxfi/zonesim/advisor"
	"github.com/luxfi/zonesim/config"
	"github.com/luxfi/zonesim/consensus"
	"github.com/luxfi/zonesim/dag"
	"github.com/luxfi/zonesim/metrics"
	"github.com/luxfi/zonesim/participant"
	"github.com/luxfi/zonesim/phase"
	"github.com/luxfi/zonesim/sampler"
	"github.com/luxfi/zonesim/transaction"
	"github.com/luxfi/zonesim/zone"
)

// txTag is the message tag every transaction broadcast and receive
// uses, matching original_source/src/transaction.c's hardcoded 0.
const txTag = 0

// Driver owns one participant's full simulation state across one
// bounded run.
type Driver struct {
	Log     log.Logger
	P       *participant.Participant
	Store   *dag.Store
	Window  *phase.Window
	Det     *phase.Detector
	Metric  *metrics.Metrics
	Src     sampler.Source
	Params  config.Parameters
	Advice  advisor.Advisor

	txCounter     int
	iterCount     int
	lastRebalance time.Time
}

// weightUpdateEveryTicks is how many loop iterations separate two DAG
// weight recomputations, derived from config.LoopSleep and
// config.WeightUpdateIntervalFraction so the cadence stays roughly
// once per second regardless of the loop's sleep granularity.
var weightUpdateEveryTicks = int(time.Second/config.LoopSleep) / config.WeightUpdateIntervalFraction

// New assembles a Driver for an already geography-assigned,
// latency-exchanged, zone-formed participant.
func New(logger log.Logger, p *participant.Participant, m *metrics.Metrics, src sampler.Source, params config.Parameters, adv advisor.Advisor) *Driver {
	return &Driver{
		Log:    logger,
		P:      p,
		Store:  dag.New(config.MaxTransactions),
		Window: phase.DefaultWindow(),
		Det:    phase.NewDetector(config.PhaseNormal, params),
		Metric: m,
		Src:    src,
		Params: params,
		Advice: adv,
	}
}

// Run executes the full experiment for d.Params.ExperimentDuration
// starting at start, then runs the shutdown protocol, and returns the
// network-wide aggregate (meaningful only at global rank 0).
func (d *Driver) Run(start time.Time) metrics.Aggregate {
	d.Metric.Start(start)
	d.lastRebalance = start

	endTime := start.Add(d.Params.ExperimentDuration)
	shutdownTime := endTime.Add(-config.ShutdownLeadTime)
	processTime := endTime.Add(-config.ProcessLeadTime)

	for now := time.Now(); now.Before(endTime); now = time.Now() {
		d.iterate(now, shutdownTime, processTime)
		time.Sleep(config.LoopSleep)
	}

	d.Metric.End(time.Now())
	d.shutdown()

	if d.P.Global != nil {
		d.P.Global.Barrier()
	}
	agg := d.Metric.Aggregate(d.P.Global)
	return agg
}

// iterate runs exactly one pass of the per-iteration loop body
// (spec.md §4.7 steps 1-5); the caller is responsible for the
// trailing sleep (step 6).
func (d *Driver) iterate(now, shutdownTime, processTime time.Time) {
	canGenerate := now.Before(shutdownTime)
	canProcess := now.Before(processTime)

	oldPhase := d.Det.Phase()
	newPhase, changed := d.Det.Detect(d.Window, now)
	d.P.Phase = newPhase
	if changed && d.P.Rank == 0 && d.Log != nil {
		d.Log.Info("phase transition",
			zap.Stringer("from", oldPhase),
			zap.Stringer("to", newPhase),
		)
	}

	if canGenerate && d.Src.Uint64()%1000 < uint64(d.Params.TxGenerationProb*1000) {
		d.generateAndMaybeProcess(now, canProcess)
	}

	d.drainInbound(now, canProcess)

	d.iterCount++
	if weightUpdateEveryTicks > 0 && d.iterCount%weightUpdateEveryTicks == 0 {
		d.Store.UpdateWeights()
	}

	if now.Sub(d.lastRebalance) > d.Params.ZoneRebalanceInterval {
		d.rebalance(now)
	}
}

func (d *Driver) generateAndMaybeProcess(now time.Time, canProcess bool) {
	p0, p1 := d.Store.LatestParents()
	receiver := int(d.Src.Uint64() % uint64(d.P.Size))
	amount := float64(d.Src.Uint64()%10000) / 100.0

	tx := transaction.New(
		transaction.Rank(d.P.Rank),
		transaction.Rank(receiver),
		amount,
		[2]int{p0, p1},
		d.P.ZoneID,
		int(d.P.Phase),
	)
	tx.TxID = d.txCounter
	d.txCounter++
	tx.Timestamp = now

	d.broadcastToZone(tx)
	d.Store.Append(tx)
	d.Window.Add(now)
	d.P.TotalTxCount++
	d.Metric.RecordTransaction()

	if canProcess {
		m := advisor.Metrics{
			ZoneID:       d.P.ZoneID,
			ZoneSize:     d.P.ZoneGroup.Size(),
			NetworkSize:  d.P.Size,
			Phase:        d.P.Phase,
			AvgLatencyMs: d.avgLatencyMs(),
			TxCountHint:  float64(d.P.TotalTxCount),
		}
		alg := consensus.Select(m, d.Advice)
		accepted := d.execute(tx, alg)
		if accepted {
			d.Metric.RecordFinalization(tx.Timestamp, time.Now())
		}
	}
}

// avgLatencyMs is the mean of this participant's latency table, the
// avg_latency_ms field of the advisor's metrics dict (spec.md §4.3).
func (d *Driver) avgLatencyMs() float64 {
	if len(d.P.Latencies) == 0 {
		return 0
	}
	sum := 0.0
	for _, l := range d.P.Latencies {
		sum += l
	}
	return sum / float64(len(d.P.Latencies))
}

func (d *Driver) execute(tx transaction.Tx, alg config.Algorithm) bool {
	switch alg {
	case config.FastVoting:
		return consensus.FastVoting(tx, d.P.ZoneGroup.Size(), d.Src, d.Params)
	case config.WeightedDAG:
		return consensus.WeightedDAG(tx, d.Store, d.Params)
	default:
		return consensus.BFT(tx, d.P.ZoneGroup, d.Params)
	}
}

// broadcastToZone sends tx to every zone peer except self, tagged
// txTag, without waiting for delivery (spec.md §4.8).
func (d *Driver) broadcastToZone(tx transaction.Tx) {
	zg := d.P.ZoneGroup
	if zg == nil {
		return
	}
	payload := tx.Bytes()
	self := zg.Rank()
	for r := 0; r < zg.Size(); r++ {
		if r == self {
			continue
		}
		zg.Send(r, txTag, payload)
	}
}

// drainInbound repeatedly probes-then-receives until the zone group
// has nothing pending, applying each message only if canProcess.
func (d *Driver) drainInbound(now time.Time, canProcess bool) {
	zg := d.P.ZoneGroup
	if zg == nil {
		return
	}
	for {
		msg, ok := zg.TryRecv(txTag)
		if !ok {
			return
		}
		if !canProcess {
			continue
		}
		tx := transaction.FromBytes(msg.Payload)
		d.Store.Append(tx)
		d.Window.Add(now)
		d.P.RecordAffinity(transaction.Rank(msg.From))
	}
}

func (d *Driver) rebalance(now time.Time) {
	res := zone.Form(d.P.Global, d.P.Latencies, d.P.Affinity, d.P.TotalTxCount, d.Params, d.Src)
	d.P.ZoneID = res.ZoneID
	// The prior zone group is simply dropped; an in-process channel
	// group needs no explicit teardown.
	d.P.ZoneGroup = d.P.Global.Split(res.ZoneID)
	d.lastRebalance = now
	if d.P.Rank == 0 && d.Log != nil {
		d.Log.Info("zone rebalancing complete")
	}
}

// shutdown runs the staged drain-and-barrier sequence (spec.md §4.7
// "Shutdown"): a grace period, a bounded drain with a
// consecutive-empty exit condition, a final aggressive drain, then a
// zone-group barrier.
func (d *Driver) shutdown() {
	time.Sleep(config.ShutdownGracePeriod)

	zg := d.P.ZoneGroup
	if zg == nil {
		return
	}

	consecutiveEmpty := 0
	for i := 0; i < config.ShutdownDrainMaxIterations; i++ {
		if _, ok := zg.TryRecv(txTag); ok {
			consecutiveEmpty = 0
			continue
		}
		consecutiveEmpty++
		if consecutiveEmpty > config.ShutdownDrainEmptyThreshold {
			break
		}
		time.Sleep(config.ShutdownDrainSleep)
	}

	for {
		if _, ok := zg.TryRecv(txTag); !ok {
			break
		}
	}

	zg.Barrier()
}

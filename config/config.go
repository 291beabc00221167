// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds every tunable constant of the zone-consensus
// simulator and a validated Parameters struct assembled from them.
package config

import (
	"fmt"
	"time"
)

// Zone formation.
const (
	MaxZones               = 4
	ZoneRebalanceInterval  = 300 * time.Second
	LatencyWeight          = 0.6
	AffinityWeight         = 0.4
	LatencyMax             = 300.0 // ms
	KMeansPlusPlusEpsilon  = 1e-6
	KMeansConvergenceDelta = 1e-4
	KMeansMaxIterations    = 100
	WitnessLatencyMs       = 50.0
)

// Phase detection.
const (
	TauHigh            = 50.0
	TauLow             = 10.0
	Hysteresis         = 0.1
	WindowSizeSeconds  = 60
	WindowCapacityMult = 100 // window capacity = WindowSizeSeconds * this
	ConsecutiveChecks  = 2   // reserved debouncer constant, see phase.Detector docs
)

// Phase is the three-state load classification driving consensus selection.
type Phase int

const (
	PhaseLow Phase = iota
	PhaseNormal
	PhaseHigh
)

func (p Phase) String() string {
	switch p {
	case PhaseLow:
		return "LOW"
	case PhaseNormal:
		return "NORMAL"
	case PhaseHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// Consensus algorithm selection.
const (
	FVSampleSize        = 10
	FVQuorum            = 7
	FVConsecutiveRounds = 5
	FVMaxExtraRounds    = 10 // total round budget is FVConsecutiveRounds + FVMaxExtraRounds
	WDMinWeight         = 5
	WDDecay             = 0.1
	BFTQuorum           = 0.67
	BFTTimeout          = 5 * time.Second
)

// Network / experiment.
const (
	MaxTransactions              = 100000
	TxGenerationProb             = 0.1
	DefaultExperimentDuration    = 10 * time.Second
	ShutdownLeadTime             = 300 * time.Millisecond
	ProcessLeadTime              = 100 * time.Millisecond
	ShutdownGracePeriod          = 200 * time.Millisecond
	ShutdownDrainMaxIterations   = 100
	ShutdownDrainEmptyThreshold  = 10
	ShutdownDrainSleep           = 100 * time.Microsecond
	LoopSleep                    = 1 * time.Millisecond
	WeightUpdateIntervalFraction = 1 // update weights every 1/this seconds' worth of loop ticks, i.e. ~once per second
)

// Algorithm is the tagged variant of the three consensus protocols.
type Algorithm int

const (
	FastVoting Algorithm = iota
	WeightedDAG
	BFT
)

func (a Algorithm) String() string {
	switch a {
	case FastVoting:
		return "FAST_VOTING"
	case WeightedDAG:
		return "WEIGHTED_DAG"
	case BFT:
		return "BFT"
	default:
		return "UNKNOWN"
	}
}

// Parameters bundles every tunable the simulator reads at startup.
// Defaults match spec.md exactly; fields exist so tests and alternate
// experiments can override individual knobs without touching the
// package constants.
type Parameters struct {
	MaxZones              int
	ZoneRebalanceInterval time.Duration
	LatencyWeight         float64
	AffinityWeight        float64
	LatencyMax            float64

	TauHigh           float64
	TauLow            float64
	Hysteresis        float64
	WindowSizeSeconds int

	FVSampleSize        int
	FVQuorum            int
	FVConsecutiveRounds int
	FVMaxExtraRounds    int

	WDMinWeight int
	WDDecay     float64

	BFTQuorum  float64
	BFTTimeout time.Duration

	TxGenerationProb   float64
	ExperimentDuration time.Duration
}

// Default returns the parameter set described by spec.md §2-4.
func Default() Parameters {
	return Parameters{
		MaxZones:              MaxZones,
		ZoneRebalanceInterval: ZoneRebalanceInterval,
		LatencyWeight:         LatencyWeight,
		AffinityWeight:        AffinityWeight,
		LatencyMax:            LatencyMax,

		TauHigh:           TauHigh,
		TauLow:            TauLow,
		Hysteresis:        Hysteresis,
		WindowSizeSeconds: WindowSizeSeconds,

		FVSampleSize:        FVSampleSize,
		FVQuorum:            FVQuorum,
		FVConsecutiveRounds: FVConsecutiveRounds,
		FVMaxExtraRounds:    FVMaxExtraRounds,

		WDMinWeight: WDMinWeight,
		WDDecay:     WDDecay,

		BFTQuorum:  BFTQuorum,
		BFTTimeout: BFTTimeout,

		TxGenerationProb:   TxGenerationProb,
		ExperimentDuration: DefaultExperimentDuration,
	}
}

// Valid reports whether p is internally consistent. It follows the
// ordered-switch style used throughout the teacher's own parameter
// validation.
func (p Parameters) Valid() error {
	switch {
	case p.MaxZones <= 0:
		return fmt.Errorf("maxZones = %d: fails the condition that 0 < maxZones", p.MaxZones)
	case p.LatencyWeight < 0 || p.AffinityWeight < 0:
		return fmt.Errorf("latencyWeight = %.2f, affinityWeight = %.2f: weights must be non-negative", p.LatencyWeight, p.AffinityWeight)
	case p.TauLow <= 0 || p.TauHigh <= p.TauLow:
		return fmt.Errorf("tauLow = %.2f, tauHigh = %.2f: fails the condition that 0 < tauLow < tauHigh", p.TauLow, p.TauHigh)
	case p.Hysteresis <= 0 || p.Hysteresis >= 1:
		return fmt.Errorf("hysteresis = %.2f: fails the condition that 0 < hysteresis < 1", p.Hysteresis)
	case p.WindowSizeSeconds <= 0:
		return fmt.Errorf("windowSizeSeconds = %d: fails the condition that 0 < windowSizeSeconds", p.WindowSizeSeconds)
	case p.FVSampleSize <= 0:
		return fmt.Errorf("fvSampleSize = %d: fails the condition that 0 < fvSampleSize", p.FVSampleSize)
	case p.FVQuorum <= 0 || p.FVQuorum > p.FVSampleSize:
		return fmt.Errorf("fvQuorum = %d: fails the condition that 0 < fvQuorum <= fvSampleSize (%d)", p.FVQuorum, p.FVSampleSize)
	case p.FVConsecutiveRounds <= 0:
		return fmt.Errorf("fvConsecutiveRounds = %d: fails the condition that 0 < fvConsecutiveRounds", p.FVConsecutiveRounds)
	case p.WDMinWeight <= 0:
		return fmt.Errorf("wdMinWeight = %d: fails the condition that 0 < wdMinWeight", p.WDMinWeight)
	case p.WDDecay <= 0 || p.WDDecay >= 1:
		return fmt.Errorf("wdDecay = %.2f: fails the condition that 0 < wdDecay < 1", p.WDDecay)
	case p.BFTQuorum <= 0 || p.BFTQuorum > 1:
		return fmt.Errorf("bftQuorum = %.2f: fails the condition that 0 < bftQuorum <= 1", p.BFTQuorum)
	case p.ExperimentDuration <= 0:
		return fmt.Errorf("experimentDuration = %s: fails the condition that 0 < experimentDuration", p.ExperimentDuration)
	}
	return nil
}

// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fabric simulates the MPI-style messaging primitives the
// original implementation relies on (point-to-point send/probe/recv,
// all-gather, reduce-to-rank-0, broadcast-from-rank-0, barrier, and
// communicator split) entirely in-process, over goroutines and
// channels. No Go MPI binding exists anywhere in the retrieved
// corpus, so this package is the concrete stand-in for spec.md's
// external messaging interface (spec.md §5). Because every member
// lives in the same address space, collectives exchange Go values
// directly through a rendezvous instead of marshaling to bytes; only
// point-to-point Send/Recv — the one boundary spec.md models as wire
// transfer — carries []byte (see transaction.Tx.Bytes).
package fabric

import "sync"

// Rank identifies a member within a Group (0..Size()-1).
type Rank = int

// Message is a tagged point-to-point payload as delivered by Send/Recv.
type Message struct {
	From    Rank
	Tag     int
	Payload []byte
}

// Group is one communicator: a fixed ordered set of ranks that can
// exchange point-to-point messages and perform collective operations
// together. The global group and each zone sub-group implement this
// same interface, mirroring MPI_COMM_WORLD and an MPI_Comm_split
// result.
type Group interface {
	Rank() Rank
	Size() int

	// Send delivers payload to rank `to`, tagged with tag, without
	// blocking on the receiver reading it.
	Send(to Rank, tag int, payload []byte)
	// Probe blocks until a message tagged tag is available from any
	// source and returns its sender, without dequeuing it.
	Probe(tag int) Rank
	// Recv blocks until a message tagged tag is available from any
	// source and dequeues it.
	Recv(tag int) Message
	// TryRecv dequeues a pending message tagged tag without blocking,
	// reporting false if none is queued.
	TryRecv(tag int) (Message, bool)

	// AllGatherFloat64 exchanges local among every member and returns
	// the result indexed by rank, identically on every caller.
	AllGatherFloat64(local []float64) [][]float64
	// BroadcastInts distributes rank 0's slice to every member.
	BroadcastInts(value []int) []int
	// BroadcastFloat64 distributes rank 0's value to every member.
	BroadcastFloat64(value float64) float64
	// ReduceSumFloat64 sums local across every member and returns the
	// total to every member (MPI_Reduce delivers it only at rank 0).
	ReduceSumFloat64(local float64) float64
	// ReduceSumInt sums local across every member and returns the
	// total to every member.
	ReduceSumInt(local int) int

	// Barrier blocks every member until all have called Barrier.
	Barrier()

	// Split partitions the group by colour, preserving each member's
	// relative rank order within its colour, and returns the caller's
	// resulting sub-group. Every member of the parent group must call
	// Split in the same logical round.
	Split(colour int) Group
}

// group is the shared in-process implementation backing both the
// global group and every zone sub-group split from it.
type group struct {
	members []*member

	mu      sync.Mutex
	current *round
}

type member struct {
	inbox chan Message
}

// round is one in-flight collective: every member contributes a value
// at its own rank index; the last arrival releases everyone at once
// with the completed slice. The group resets to a fresh round under
// the same lock that releases this one, so no data race is possible
// between a released caller starting the next collective and a
// straggler still reading this round's result.
type round struct {
	data    []any
	arrived int
	done    chan struct{}
}

// NewGlobal constructs the global group of size n. The returned Group
// is rank 0's view; use For to obtain every other rank's view.
func NewGlobal(n int) Group {
	g := &group{members: make([]*member, n)}
	for i := range g.members {
		g.members[i] = &member{inbox: make(chan Message, 4096)}
	}
	return &view{g: g, self: 0}
}

// view is a per-rank handle onto a group.
type view struct {
	g    *group
	self Rank
}

// For returns grp's sibling handle for rank r, used to hand each
// simulated participant its own view of the same underlying group.
func For(grp Group, r Rank) Group {
	v := grp.(*view)
	return &view{g: v.g, self: r}
}

func (v *view) Rank() Rank { return v.self }
func (v *view) Size() int  { return len(v.g.members) }

func (v *view) Send(to Rank, tag int, payload []byte) {
	v.g.members[to].inbox <- Message{From: v.self, Tag: tag, Payload: payload}
}

func (v *view) Probe(tag int) Rank {
	inbox := v.g.members[v.self].inbox
	var held []Message
	for {
		msg := <-inbox
		if msg.Tag == tag {
			inbox <- msg
			for _, m := range held {
				inbox <- m
			}
			return msg.From
		}
		held = append(held, msg)
	}
}

func (v *view) Recv(tag int) Message {
	inbox := v.g.members[v.self].inbox
	var held []Message
	for {
		msg := <-inbox
		if msg.Tag == tag {
			for _, m := range held {
				inbox <- m
			}
			return msg
		}
		held = append(held, msg)
	}
}

func (v *view) TryRecv(tag int) (Message, bool) {
	inbox := v.g.members[v.self].inbox
	var held []Message
	defer func() {
		for _, m := range held {
			inbox <- m
		}
	}()
	for {
		select {
		case msg := <-inbox:
			if msg.Tag == tag {
				return msg, true
			}
			held = append(held, msg)
		default:
			return Message{}, false
		}
	}
}

// rendezvous gathers one value per member of v's group, indexed by
// rank, and returns the completed slice to every caller once all have
// arrived.
func (v *view) rendezvous(local any) []any {
	g := v.g
	g.mu.Lock()
	if g.current == nil {
		g.current = &round{data: make([]any, len(g.members)), done: make(chan struct{})}
	}
	r := g.current
	r.data[v.self] = local
	r.arrived++
	if r.arrived == len(g.members) {
		g.current = nil
		g.mu.Unlock()
		close(r.done)
		return r.data
	}
	g.mu.Unlock()
	<-r.done
	return r.data
}

func (v *view) Barrier() {
	v.rendezvous(struct{}{})
}

func (v *view) AllGatherFloat64(local []float64) [][]float64 {
	raw := v.rendezvous(local)
	out := make([][]float64, len(raw))
	for i, r := range raw {
		out[i] = r.([]float64)
	}
	return out
}

func (v *view) BroadcastInts(value []int) []int {
	raw := v.rendezvous(value)
	return raw[0].([]int)
}

func (v *view) BroadcastFloat64(value float64) float64 {
	raw := v.rendezvous(value)
	return raw[0].(float64)
}

func (v *view) ReduceSumFloat64(local float64) float64 {
	raw := v.rendezvous(local)
	sum := 0.0
	for _, r := range raw {
		sum += r.(float64)
	}
	return sum
}

func (v *view) ReduceSumInt(local int) int {
	raw := v.rendezvous(local)
	sum := 0
	for _, r := range raw {
		sum += r.(int)
	}
	return sum
}

// subgroup bundles a newly split group with the parent ranks (in
// order) that belong to it, so each member can locate its own local
// rank within the new group.
type subgroup struct {
	g     *group
	order []Rank
}

func (v *view) Split(colour int) Group {
	raw := v.rendezvous(colour)
	colours := make([]int, len(raw))
	for i, c := range raw {
		colours[i] = c.(int)
	}

	var built map[int]*subgroup
	if v.self == 0 {
		built = buildSubgroups(colours)
	}
	raw2 := v.rendezvous(built)
	bundles := raw2[0].(map[int]*subgroup)

	sub := bundles[colour]
	idx := 0
	for i, r := range sub.order {
		if r == v.self {
			idx = i
			break
		}
	}
	return &view{g: sub.g, self: idx}
}

// buildSubgroups partitions global ranks 0..len(colours)-1 by colour,
// preserving ascending rank order within each colour, mirroring
// MPI_Comm_split.
func buildSubgroups(colours []int) map[int]*subgroup {
	order := map[int][]Rank{}
	for r, c := range colours {
		order[c] = append(order[c], r)
	}

	out := make(map[int]*subgroup, len(order))
	for c, ranks := range order {
		g := &group{members: make([]*member, len(ranks))}
		for i := range g.members {
			g.members[i] = &member{inbox: make(chan Message, 4096)}
		}
		out[c] = &subgroup{g: g, order: ranks}
	}
	return out
}

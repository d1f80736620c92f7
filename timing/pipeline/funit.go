package pipeline

import (
	"fmt"

	"github.com/archsim/mips5sim/insts"
	"github.com/archsim/mips5sim/simerr"
	"github.com/archsim/mips5sim/timing/latency"
)

// Lane is one execution slot within a functional-unit pool. It holds at
// most one in-flight instruction and the countdown until it completes. A
// lane is free iff RemainingLatency == 0.
type Lane struct {
	Instr            *insts.Instruction
	RemainingLatency uint32
	B                uint32
	NPC              uint32
}

func newLane() *Lane {
	return &Lane{Instr: insts.NewBubble()}
}

// Free reports whether the lane holds no in-flight instruction.
func (l *Lane) Free() bool {
	return l.RemainingLatency == 0
}

// Pool is the set of lanes backing one functional-unit class.
type Pool struct {
	Unit  latency.Unit
	Lanes []*Lane
}

func newPool(unit latency.Unit, n uint32) *Pool {
	p := &Pool{Unit: unit, Lanes: make([]*Lane, n)}
	for i := range p.Lanes {
		p.Lanes[i] = newLane()
	}
	return p
}

// FUBank is the FP variant's complete functional-unit pool set: one Pool
// per unit class that was configured via Config.Add.
type FUBank struct {
	Config *latency.Config
	pools  map[latency.Unit]*Pool
}

// NewFUBank builds a functional-unit bank from cfg, creating one Pool per
// unit class that has at least one configured lane.
func NewFUBank(cfg *latency.Config) *FUBank {
	bank := &FUBank{Config: cfg, pools: make(map[latency.Unit]*Pool)}
	for _, unit := range []latency.Unit{latency.INTEGER, latency.ADDER, latency.MULTIPLIER, latency.DIVIDER} {
		if n := cfg.TotalLanes(unit); n > 0 {
			bank.pools[unit] = newPool(unit, n)
		}
	}
	return bank
}

func (b *FUBank) pool(unit latency.Unit) *Pool {
	return b.pools[unit]
}

// GrowPool appends n more free lanes to unit's pool, creating the pool if
// this is its first lane. Used when InitExecUnit is called after the bank
// already exists, matching init_exec_unit's cumulative semantics.
func (b *FUBank) GrowPool(unit latency.Unit, n uint32) {
	p := b.pools[unit]
	if p == nil {
		p = &Pool{Unit: unit}
		b.pools[unit] = p
	}
	for i := uint32(0); i < n; i++ {
		p.Lanes = append(p.Lanes, newLane())
	}
}

// HasFreeLane reports whether unit's pool has at least one free lane. A
// pool that was never configured has no lanes and is never free.
func (b *FUBank) HasFreeLane(unit latency.Unit) bool {
	p := b.pool(unit)
	if p == nil {
		return false
	}
	for _, l := range p.Lanes {
		if l.Free() {
			return true
		}
	}
	return false
}

// LatencyCollision reports whether any occupied lane across the whole bank
// has exactly lat cycles of remaining latency (lat == 0 never collides:
// a bubble consumes no lane time and cannot collide with anything).
func (b *FUBank) LatencyCollision(lat uint32) bool {
	if lat == 0 {
		return false
	}
	for _, p := range b.pools {
		for _, l := range p.Lanes {
			if l.RemainingLatency == lat {
				return true
			}
		}
	}
	return false
}

// WAWHazard reports whether any occupied lane holds an instruction with the
// same destination register (index and bank) as instr, with remaining
// latency at least lat.
func (b *FUBank) WAWHazard(instr *insts.Instruction, lat uint32) bool {
	if lat == 0 || !instr.DestOp {
		return false
	}
	for _, p := range b.pools {
		for _, l := range p.Lanes {
			if l.Instr.DestOp && l.Instr.Dest == instr.Dest &&
				l.Instr.DestFloat == instr.DestFloat && lat <= l.RemainingLatency {
				return true
			}
		}
	}
	return false
}

// HasPendingBranch reports whether any lane in the INTEGER pool — the only
// pool a branch or JUMP ever issues to — currently holds a branch.
func (b *FUBank) HasPendingBranch() bool {
	p := b.pool(latency.INTEGER)
	if p == nil {
		return false
	}
	for _, l := range p.Lanes {
		if l.Instr.Branch {
			return true
		}
	}
	return false
}

// MaxRemainingLatency returns the largest remaining latency across every
// lane in the bank, used to size the drain latency of an issued EOP.
func (b *FUBank) MaxRemainingLatency() uint32 {
	var max uint32
	for _, p := range b.pools {
		for _, l := range p.Lanes {
			if l.RemainingLatency > max {
				max = l.RemainingLatency
			}
		}
	}
	return max
}

// Issue places instr into a free lane of unit's pool, occupying it for lat
// cycles (0 for an issued stall/bubble) and capturing the operand and
// branch-target operands the completed instruction will need. The hazard
// detector in ID must already have guaranteed a free lane exists; this
// returns ErrNoFunctionalUnit only if that invariant was violated.
func (b *FUBank) Issue(instr *insts.Instruction, unit latency.Unit, lat uint32, bVal uint32, npc uint32) error {
	p := b.pool(unit)
	if p == nil {
		return fmt.Errorf("unit %s: %w", unit, simerr.ErrNoFunctionalUnit)
	}
	for _, l := range p.Lanes {
		if l.Free() {
			l.Instr = instr
			l.RemainingLatency = lat
			l.B = bVal
			l.NPC = npc
			return nil
		}
	}
	return fmt.Errorf("unit %s: %w", unit, simerr.ErrNoFunctionalUnit)
}

// Tick decrements every occupied lane by one cycle. A lane whose countdown
// is already at zero is marked with a bubble, so WAW/control-pending scans
// never see a stale completed instruction sitting in a free lane. At most
// one lane may transition to zero this cycle (invariant I5); if more than
// one does, that is a bug in the hazard detector, reported as
// ErrMultipleCompletions rather than silently picking one.
func (b *FUBank) Tick() (completed *insts.Instruction, capturedB uint32, capturedNPC uint32, err error) {
	count := 0
	for _, p := range b.pools {
		for _, l := range p.Lanes {
			if l.RemainingLatency != 0 {
				l.RemainingLatency--
				if l.RemainingLatency == 0 {
					count++
					completed = l.Instr
					capturedB = l.B
					capturedNPC = l.NPC
				}
			} else {
				l.Instr = insts.NewBubble()
			}
		}
	}
	if count > 1 {
		return nil, 0, 0, simerr.ErrMultipleCompletions
	}
	return completed, capturedB, capturedNPC, nil
}

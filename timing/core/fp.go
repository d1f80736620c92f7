package core

import (
	"fmt"
	"os"

	"github.com/archsim/mips5sim/asm"
	"github.com/archsim/mips5sim/emu"
	"github.com/archsim/mips5sim/timing/latency"
	"github.com/archsim/mips5sim/timing/pipeline"
)

// FPMachine is the floating-point-extended five-stage pipeline simulator:
// a functional-unit lane pool replaces the integer variant's single-cycle
// EX stage.
type FPMachine struct {
	engine *pipeline.FPEngine
}

// NewFPMachine constructs a machine with the given data memory size and
// fixed read/write latency, and no functional units configured yet —
// InitExecUnit must be called for each unit class the program needs
// before Run.
func NewFPMachine(memSize, memLatency uint32) *FPMachine {
	cfg := latency.NewConfig()
	return &FPMachine{engine: pipeline.NewFPEngine(emu.NewMemory(memSize, memLatency), cfg)}
}

// InitExecUnit adds instances lanes of the given service latency to unit's
// functional-unit pool. Calling it more than once for the same unit grows
// the pool rather than replacing it; the latency of the most recent call
// becomes the pool's nominal latency for hazard detection.
func (m *FPMachine) InitExecUnit(unit latency.Unit, lat uint32, instances uint32) {
	m.engine.Bank.Config.Add(unit, lat, instances)
	m.engine.Bank.GrowPool(unit, instances)
}

// LoadProgram parses the assembly source at filename and installs it
// starting at baseAddress, pointing IF.PC there.
func (m *FPMachine) LoadProgram(filename string, baseAddress uint32) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open program %q: %w", filename, err)
	}
	defer f.Close()

	program, err := asm.Parse(f)
	if err != nil {
		return fmt.Errorf("failed to parse program %q: %w", filename, err)
	}
	m.engine.LoadProgram(program, baseAddress)
	return nil
}

// Run advances the machine by cycles cycles, or to EOP retirement if
// cycles is 0.
func (m *FPMachine) Run(cycles uint64) error {
	toCompletion := cycles == 0
	for i := uint64(0); toCompletion || i < cycles; i++ {
		halted, err := m.engine.Tick()
		if err != nil {
			return err
		}
		if halted {
			return nil
		}
	}
	return nil
}

// Reset clears memory, register files, every latch, and every FU lane.
func (m *FPMachine) Reset() {
	m.engine.Reset()
}

// GetSPRegister returns the value of special-purpose register reg in the
// named stage's latch.
func (m *FPMachine) GetSPRegister(reg pipeline.SPRegister, stage pipeline.Stage) uint32 {
	return m.engine.Latches[stage].Get(reg)
}

// GetIntRegister returns the current value of integer register r.
func (m *FPMachine) GetIntRegister(r uint32) uint32 {
	return m.engine.IntRegs.Read(r)
}

// GetFPRegister returns the current IEEE-754 bit pattern held in floating-
// point register r.
func (m *FPMachine) GetFPRegister(r uint32) uint32 {
	return m.engine.FPRegs.Read(r)
}

// SetIntRegister sets integer register r, bypassing busy tracking. Used by
// test fixtures to seed initial machine state.
func (m *FPMachine) SetIntRegister(r uint32, value uint32) {
	m.engine.IntRegs.Set(r, value)
}

// SetFPRegister sets floating-point register r, bypassing busy tracking.
// Used by test fixtures to seed initial machine state.
func (m *FPMachine) SetFPRegister(r uint32, value uint32) {
	m.engine.FPRegs.Set(r, value)
}

// WriteMemory writes a little-endian 32-bit word to data memory, bypassing
// the simulated memory latency. Used by test fixtures to seed initial
// machine state.
func (m *FPMachine) WriteMemory(addr uint32, value uint32) error {
	return m.engine.Mem.WriteWord(addr, value)
}

// GetClockCycles returns the number of cycles executed so far.
func (m *FPMachine) GetClockCycles() uint64 {
	return m.engine.CycleCount
}

// GetInstructionsExecuted returns the number of non-bubble, non-EOP
// instructions retired so far.
func (m *FPMachine) GetInstructionsExecuted() uint64 {
	return m.engine.InstructionsExecuted
}

// GetStalls returns the number of stall cycles recorded so far.
func (m *FPMachine) GetStalls() uint64 {
	return m.engine.StallCount
}

// GetIPC returns retired instructions per cycle, or 0 before any cycle has
// run.
func (m *FPMachine) GetIPC() float64 {
	if m.engine.CycleCount == 0 {
		return 0
	}
	return float64(m.engine.InstructionsExecuted) / float64(m.engine.CycleCount)
}

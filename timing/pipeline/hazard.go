package pipeline

import "github.com/archsim/mips5sim/insts"

// controlPending reports whether a branch is currently in flight somewhere
// downstream of ID: the incoming instruction is itself a branch, the EX
// latch holds one, or (FP variant) an occupied FU lane holds one. While a
// branch is pending, ID must not issue past it — the branch's outcome,
// resolved in MEM, can redirect IF.PC.
func controlPending(instr *insts.Instruction, exInstr *insts.Instruction, bank *FUBank) bool {
	if instr.Branch {
		return true
	}
	if exInstr.Branch {
		return true
	}
	if bank != nil && bank.HasPendingBranch() {
		return true
	}
	return false
}

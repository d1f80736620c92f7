package latency

import (
	"github.com/archsim/mips5sim/insts"
)

// UnitForOpcode returns the functional-unit class an opcode issues to in
// the FP variant. Every opcode maps to exactly one class: plain integer
// ALU ops, branches, JUMP, and every load/store go to INTEGER; ADDS/SUBS
// go to ADDER; the integer MULT and MULTS go to MULTIPLIER; the integer
// DIV and DIVS go to DIVIDER. Note that integer multiply and divide share
// their pool with the floating-point multiply and divide units — there is
// no separate integer multiplier.
func UnitForOpcode(op insts.Opcode) Unit {
	switch op {
	case insts.MULT, insts.MULTS:
		return MULTIPLIER
	case insts.DIV, insts.DIVS:
		return DIVIDER
	case insts.ADDS, insts.SUBS:
		return ADDER
	default:
		return INTEGER
	}
}

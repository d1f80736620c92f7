// Package asm parses the simulator's line-oriented assembly source format
// into a sequence of insts.Instruction values. One non-blank, non-comment
// line is one instruction; an optional "label:" prefix may precede the
// mnemonic on the same line. Branch and jump targets are resolved to a
// PC-relative word displacement in a second pass, once every label's
// instruction index is known.
package asm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/archsim/mips5sim/insts"
	"github.com/archsim/mips5sim/simerr"
)

// sourceLine is one parsed, non-blank line before operand resolution.
type sourceLine struct {
	lineNo   int // 1-based source line, for diagnostics
	label    string
	mnemonic string
	operands string
}

// Parse reads an assembly source program and returns the decoded
// instruction sequence, in program order. Labels resolve to the
// PC-relative displacement, in bytes, between the instruction that follows
// the branch/jump and the labeled instruction.
func Parse(r io.Reader) ([]*insts.Instruction, error) {
	lines, labels, err := scan(r)
	if err != nil {
		return nil, err
	}

	program := make([]*insts.Instruction, len(lines))
	for idx, ln := range lines {
		instr, err := decode(ln, idx, labels)
		if err != nil {
			return nil, err
		}
		program[idx] = instr
	}
	return program, nil
}

// scan performs the first pass: it strips comments and blank lines, peels
// off any "label:" prefix, and records each label's resolved instruction
// index. It does not yet resolve operands.
func scan(r io.Reader) ([]sourceLine, map[string]int, error) {
	var lines []sourceLine
	labels := make(map[string]int)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := stripComment(scanner.Text())
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		fields := strings.Fields(text)
		label := ""
		if strings.HasSuffix(fields[0], ":") {
			label = strings.TrimSuffix(fields[0], ":")
			fields = fields[1:]
			if len(fields) == 0 {
				return nil, nil, fmt.Errorf("line %d: label %q with no instruction: %w", lineNo, label, simerr.ErrUnknownMnemonic)
			}
		}

		mnemonic := strings.ToUpper(fields[0])
		if _, ok := insts.Lookup(mnemonic); !ok {
			return nil, nil, fmt.Errorf("line %d: %q: %w", lineNo, fields[0], simerr.ErrUnknownMnemonic)
		}

		if label != "" {
			labels[label] = len(lines)
		}

		lines = append(lines, sourceLine{
			lineNo:   lineNo,
			label:    label,
			mnemonic: mnemonic,
			operands: strings.Join(fields[1:], " "),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return lines, labels, nil
}

func stripComment(line string) string {
	if i := strings.IndexAny(line, "#;"); i >= 0 {
		return line[:i]
	}
	return line
}

// decode resolves a single sourceLine's operands into an insts.Instruction.
// idx is the instruction's own index in the program, used to turn a label
// reference into a PC-relative displacement.
func decode(ln sourceLine, idx int, labels map[string]int) (*insts.Instruction, error) {
	op, _ := insts.Lookup(ln.mnemonic)
	fields := strings.Fields(ln.operands)
	instr := &insts.Instruction{Opcode: op}

	switch {
	case op.IsRegRegALU() || op.IsFPALU():
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: %s expects 3 registers", ln.lineNo, ln.mnemonic)
		}
		dest, destFloat, err := parseRegister(fields[0], ln.lineNo)
		if err != nil {
			return nil, err
		}
		src1, src1Float, err := parseRegister(fields[1], ln.lineNo)
		if err != nil {
			return nil, err
		}
		src2, src2Float, err := parseRegister(fields[2], ln.lineNo)
		if err != nil {
			return nil, err
		}
		instr.Dest, instr.DestOp, instr.DestFloat = dest, true, destFloat
		instr.Src1, instr.Src1Op, instr.Src1Float = src1, true, src1Float
		instr.Src2, instr.Src2Op, instr.Src2Float = src2, true, src2Float

	case op.IsImmediateALU():
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: %s expects 2 registers and an immediate", ln.lineNo, ln.mnemonic)
		}
		dest, _, err := parseRegister(fields[0], ln.lineNo)
		if err != nil {
			return nil, err
		}
		src1, _, err := parseRegister(fields[1], ln.lineNo)
		if err != nil {
			return nil, err
		}
		imm, err := parseImmediate(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", ln.lineNo, err)
		}
		instr.Dest, instr.DestOp = dest, true
		instr.Src1, instr.Src1Op = src1, true
		instr.Imm = imm

	case op.IsConditionalBranch():
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: %s expects a register and a label", ln.lineNo, ln.mnemonic)
		}
		src1, _, err := parseRegister(fields[0], ln.lineNo)
		if err != nil {
			return nil, err
		}
		disp, err := resolveLabel(fields[1], idx, labels, ln.lineNo)
		if err != nil {
			return nil, err
		}
		instr.Src1, instr.Src1Op = src1, true
		instr.Imm = disp
		instr.Branch = true

	case op == insts.JUMP:
		if len(fields) != 1 {
			return nil, fmt.Errorf("line %d: JUMP expects a label", ln.lineNo)
		}
		disp, err := resolveLabel(fields[0], idx, labels, ln.lineNo)
		if err != nil {
			return nil, err
		}
		instr.Imm = disp
		instr.Branch = true

	case op.IsLoad():
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: %s expects Rd offset(Rbase)", ln.lineNo, ln.mnemonic)
		}
		dest, destFloat, err := parseRegister(fields[0], ln.lineNo)
		if err != nil {
			return nil, err
		}
		offset, base, err := parseOffsetBase(fields[1], ln.lineNo)
		if err != nil {
			return nil, err
		}
		instr.Dest, instr.DestOp, instr.DestFloat = dest, true, destFloat
		instr.Src1, instr.Src1Op = base, true
		instr.Imm = offset

	case op.IsStore():
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: %s expects Rsrc offset(Rbase)", ln.lineNo, ln.mnemonic)
		}
		src2, src2Float, err := parseRegister(fields[0], ln.lineNo)
		if err != nil {
			return nil, err
		}
		offset, base, err := parseOffsetBase(fields[1], ln.lineNo)
		if err != nil {
			return nil, err
		}
		instr.Src2, instr.Src2Op, instr.Src2Float = src2, true, src2Float
		instr.Src1, instr.Src1Op = base, true
		instr.Imm = offset

	case op == insts.EOP || op == insts.NOP:
		// no operands

	default:
		return nil, fmt.Errorf("line %d: %q: %w", ln.lineNo, ln.mnemonic, simerr.ErrUnknownMnemonic)
	}

	return instr, nil
}

// parseRegister decodes a register token such as "R3" or "F12" into an
// index and a bank selector (true for the floating-point bank).
func parseRegister(tok string, lineNo int) (idx uint32, float bool, err error) {
	if tok == "" {
		return 0, false, fmt.Errorf("line %d: empty register operand: %w", lineNo, simerr.ErrUnknownRegisterPrefix)
	}
	switch tok[0] {
	case 'R', 'r':
		float = false
	case 'F', 'f':
		float = true
	default:
		return 0, false, fmt.Errorf("line %d: %q: %w", lineNo, tok, simerr.ErrUnknownRegisterPrefix)
	}
	n, err := strconv.ParseUint(tok[1:], 10, 32)
	if err != nil {
		return 0, false, fmt.Errorf("line %d: %q: %w", lineNo, tok, simerr.ErrUnknownRegisterPrefix)
	}
	return uint32(n), float, nil
}

// parseImmediate decodes a decimal or 0x-prefixed hexadecimal signed
// immediate.
func parseImmediate(tok string) (int32, error) {
	base := 10
	neg := false
	s := tok
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}
	v, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid immediate %q: %w", tok, err)
	}
	if neg {
		v = -v
	}
	return int32(v), nil
}

// parseOffsetBase decodes a "offset(Rbase)" load/store address expression.
func parseOffsetBase(tok string, lineNo int) (offset int32, base uint32, err error) {
	open := strings.IndexByte(tok, '(')
	if open < 0 || !strings.HasSuffix(tok, ")") {
		return 0, 0, fmt.Errorf("line %d: %q: expected offset(Rbase)", lineNo, tok)
	}
	offsetStr := tok[:open]
	regStr := tok[open+1 : len(tok)-1]

	offset, err = parseImmediate(offsetStr)
	if err != nil {
		return 0, 0, fmt.Errorf("line %d: %w", lineNo, err)
	}
	base, _, err = parseRegister(regStr, lineNo)
	if err != nil {
		return 0, 0, err
	}
	return offset, base, nil
}

// resolveLabel turns a label reference into a PC-relative byte
// displacement: (target instruction index - this instruction index - 1) * 4,
// matching the convention that NPC (this instruction's address + 4) plus
// the displacement equals the labeled instruction's address.
func resolveLabel(label string, idx int, labels map[string]int, lineNo int) (int32, error) {
	target, ok := labels[label]
	if !ok {
		return 0, fmt.Errorf("line %d: undefined label %q: %w", lineNo, label, simerr.ErrUnknownMnemonic)
	}
	return int32((target - idx - 1) * 4), nil
}

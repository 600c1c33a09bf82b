/*
	   MIPS R3000A Disassembler

		Copyright (c) 2024, Richard Cornwell

		Permission is hereby granted, free of charge, to any person obtaining a
		copy of this software and associated documentation files (the "Software"),
		to deal in the Software without restriction, including without limitation
		the rights to use, copy, modify, merge, publish, distribute, sublicense,
		and/or sell copies of the Software, and to permit persons to whom the
		Software is furnished to do so, subject to the following conditions:

		The above copyright notice and this permission notice shall be included in
		all copies or substantial portions of the Software.

		THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
		IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
		FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
		RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
		IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
		CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/
package disassembler

import (
	"fmt"

	op "github.com/tlbanken/psx-sub000/emu/mips/opcodes"
)

// Disassemble decodes one 32-bit MIPS instruction word, packed little-endian
// as it sits in memory, and returns its mnemonic text plus the instruction
// length in bytes (always 4). data must hold at least 4 bytes.
func Disassemble(data []byte) (string, int) {
	word := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
	return DisassembleWord(word), 4
}

// DisassembleWord decodes a single instruction already assembled into a
// 32-bit value.
func DisassembleWord(word uint32) string {
	opField := (word >> 26) & 0x3f
	rs := (word >> 21) & 0x1f
	rt := (word >> 16) & 0x1f
	rd := (word >> 11) & 0x1f
	shamt := (word >> 6) & 0x1f
	funct := word & 0x3f
	imm16 := int16(word & 0xffff)
	target := word & 0x03ffffff

	switch opField {
	case op.OpSPECIAL:
		entry, ok := op.Special[funct]
		if !ok {
			return undefined(word)
		}
		return formatEntry(entry, rs, rt, rd, shamt, imm16, target, word)
	case op.OpBCONDZ:
		entry, ok := op.BcondZ[rt]
		if !ok {
			return undefined(word)
		}
		return formatEntry(entry, rs, rt, rd, shamt, imm16, target, word)
	case op.OpCOP0, op.OpCOP1, op.OpCOP2, op.OpCOP3:
		return disassembleCop(opField, word, rs, rt, rd)
	default:
		entry, ok := op.Primary[opField]
		if !ok {
			return undefined(word)
		}
		return formatEntry(entry, rs, rt, rd, shamt, imm16, target, word)
	}
}

func disassembleCop(opField, word, rs, rt, rd uint32) string {
	copNum := opField - op.OpCOP0
	if rs == 0x10 && (word&0x3f) == op.Cop0FnRFE {
		return "rfe"
	}
	if name, ok := op.CopMnemonic[rs]; ok {
		return fmt.Sprintf("%s%d $%s, $%d", name, copNum, op.RegName(rt), rd)
	}
	return fmt.Sprintf("cop%d 0x%07x", copNum, word&0x01ffffff)
}

func formatEntry(e op.Entry, rs, rt, rd, shamt uint32, imm16 int16, target, word uint32) string {
	switch e.Type {
	case op.TyRegRD:
		return fmt.Sprintf("%-8s$%s", e.Name, op.RegName(rd))
	case op.TyRegRSRT:
		return fmt.Sprintf("%-8s$%s, $%s", e.Name, op.RegName(rs), op.RegName(rt))
	case op.TyRegRSRTRD:
		return fmt.Sprintf("%-8s$%s, $%s, $%s", e.Name, op.RegName(rd), op.RegName(rs), op.RegName(rt))
	case op.TyShift:
		return fmt.Sprintf("%-8s$%s, $%s, %d", e.Name, op.RegName(rd), op.RegName(rt), shamt)
	case op.TyImmRTRS:
		return fmt.Sprintf("%-8s$%s, $%s, %d", e.Name, op.RegName(rt), op.RegName(rs), imm16)
	case op.TyImmRT:
		return fmt.Sprintf("%-8s$%s, 0x%04x", e.Name, op.RegName(rt), uint16(imm16))
	case op.TyBranchRSRT:
		return fmt.Sprintf("%-8s$%s, $%s, %d", e.Name, op.RegName(rs), op.RegName(rt), imm16)
	case op.TyBranchRS:
		return fmt.Sprintf("%-8s$%s, %d", e.Name, op.RegName(rs), imm16)
	case op.TyJump:
		return fmt.Sprintf("%-8s0x%07x", e.Name, target<<2)
	case op.TyJumpReg:
		if rd != 0 && e.Name == "jalr" {
			return fmt.Sprintf("%-8s$%s, $%s", e.Name, op.RegName(rd), op.RegName(rs))
		}
		return fmt.Sprintf("%-8s$%s", e.Name, op.RegName(rs))
	case op.TyLoadStore:
		return fmt.Sprintf("%-8s$%s, %d($%s)", e.Name, op.RegName(rt), imm16, op.RegName(rs))
	case op.TyCode20:
		return fmt.Sprintf("%-8s0x%05x", e.Name, (word>>6)&0xfffff)
	default:
		return e.Name
	}
}

func undefined(word uint32) string {
	return fmt.Sprintf(".word   0x%08x", word)
}

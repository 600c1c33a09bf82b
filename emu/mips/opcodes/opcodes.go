/*
   MIPS R3000A opcode tables for assembly and disassembly

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
   ROBERT M SUPNIK BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

package opcodes

// Primary opcode field, bits 31:26.
const (
	OpSPECIAL = 0x00
	OpBCONDZ  = 0x01
	OpJ       = 0x02
	OpJAL     = 0x03
	OpBEQ     = 0x04
	OpBNE     = 0x05
	OpBLEZ    = 0x06
	OpBGTZ    = 0x07
	OpADDI    = 0x08
	OpADDIU   = 0x09
	OpSLTI    = 0x0A
	OpSLTIU   = 0x0B
	OpANDI    = 0x0C
	OpORI     = 0x0D
	OpXORI    = 0x0E
	OpLUI     = 0x0F
	OpCOP0    = 0x10
	OpCOP1    = 0x11
	OpCOP2    = 0x12
	OpCOP3    = 0x13
	OpLB      = 0x20
	OpLH      = 0x21
	OpLWL     = 0x22
	OpLW      = 0x23
	OpLBU     = 0x24
	OpLHU     = 0x25
	OpLWR     = 0x26
	OpSB      = 0x28
	OpSH      = 0x29
	OpSWL     = 0x2A
	OpSW      = 0x2B
	OpSWR     = 0x2E
)

// SPECIAL function field, bits 5:0, used when the primary opcode is 0.
const (
	FnSLL     = 0x00
	FnSRL     = 0x02
	FnSRA     = 0x03
	FnSLLV    = 0x04
	FnSRLV    = 0x06
	FnSRAV    = 0x07
	FnJR      = 0x08
	FnJALR    = 0x09
	FnSYSCALL = 0x0C
	FnBREAK   = 0x0D
	FnMFHI    = 0x10
	FnMTHI    = 0x11
	FnMFLO    = 0x12
	FnMTLO    = 0x13
	FnMULT    = 0x18
	FnMULTU   = 0x19
	FnDIV     = 0x1A
	FnDIVU    = 0x1B
	FnADD     = 0x20
	FnADDU    = 0x21
	FnSUB     = 0x22
	FnSUBU    = 0x23
	FnAND     = 0x24
	FnOR      = 0x25
	FnXOR     = 0x26
	FnNOR     = 0x27
	FnSLT     = 0x2A
	FnSLTU    = 0x2B
)

// BCONDZ rt sub-opcode field, used when the primary opcode is OpBCONDZ.
const (
	SubBLTZ   = 0x00
	SubBGEZ   = 0x01
	SubBLTZAL = 0x10
	SubBGEZAL = 0x11
)

// Coprocessor rs sub-opcode field, used on COPz instructions.
const (
	CopMF = 0x00
	CopCF = 0x02
	CopMT = 0x04
	CopCT = 0x06
	CopBC = 0x08
)

// Cop0FnRFE is the COP0 function code selected when rs >= 0x10 (rs field
// holds 0x10 and the low 6 bits of the instruction hold this value).
const Cop0FnRFE = 0x10

// Type tags the operand shape of an opcode table entry, playing the same
// role the S/370 disassembler's per-opcode format tag plays for RR/RX/RS/SI.
type Type int

const (
	TyUnknown Type = iota
	TyRegRD        // rd              MFHI, MFLO
	TyRegRSRT      // rs, rt          MULT, DIV, MULTU, DIVU
	TyRegRSRTRD    // rd, rs, rt      ADD, AND, SLT, ...
	TyShift        // rd, rt, shamt   SLL, SRL, SRA
	TyImmRTRS      // rt, rs, imm16   ADDI, ANDI, ...
	TyImmRT        // rt, imm16       LUI
	TyBranchRSRT   // rs, rt, offset  BEQ, BNE
	TyBranchRS     // rs, offset      BLEZ, BGTZ, BLTZ, BGEZ
	TyJump         // target26        J, JAL
	TyJumpReg      // rs[, rd]        JR, JALR
	TyLoadStore    // rt, imm16(rs)   LW, SW, ...
	TyCopMove      // rt, rd          MFC0, MTC0, ...
	TyCode20       // 20-bit code     SYSCALL, BREAK
	TyNoArgs       // no operands     RFE
)

// Entry describes one opcode's mnemonic and operand shape.
type Entry struct {
	Name string
	Type Type
}

// Primary holds the opcodes that decode directly off the primary field
// (anything that is not SPECIAL, BCONDZ, or a coprocessor op).
var Primary = map[uint32]Entry{
	OpJ:     {"j", TyJump},
	OpJAL:   {"jal", TyJump},
	OpBEQ:   {"beq", TyBranchRSRT},
	OpBNE:   {"bne", TyBranchRSRT},
	OpBLEZ:  {"blez", TyBranchRS},
	OpBGTZ:  {"bgtz", TyBranchRS},
	OpADDI:  {"addi", TyImmRTRS},
	OpADDIU: {"addiu", TyImmRTRS},
	OpSLTI:  {"slti", TyImmRTRS},
	OpSLTIU: {"sltiu", TyImmRTRS},
	OpANDI:  {"andi", TyImmRTRS},
	OpORI:   {"ori", TyImmRTRS},
	OpXORI:  {"xori", TyImmRTRS},
	OpLUI:   {"lui", TyImmRT},
	OpLB:    {"lb", TyLoadStore},
	OpLH:    {"lh", TyLoadStore},
	OpLWL:   {"lwl", TyLoadStore},
	OpLW:    {"lw", TyLoadStore},
	OpLBU:   {"lbu", TyLoadStore},
	OpLHU:   {"lhu", TyLoadStore},
	OpLWR:   {"lwr", TyLoadStore},
	OpSB:    {"sb", TyLoadStore},
	OpSH:    {"sh", TyLoadStore},
	OpSWL:   {"swl", TyLoadStore},
	OpSW:    {"sw", TyLoadStore},
	OpSWR:   {"swr", TyLoadStore},
}

// Special holds the SPECIAL-family (primary opcode 0) functions.
var Special = map[uint32]Entry{
	FnSLL:     {"sll", TyShift},
	FnSRL:     {"srl", TyShift},
	FnSRA:     {"sra", TyShift},
	FnSLLV:    {"sllv", TyRegRSRTRD},
	FnSRLV:    {"srlv", TyRegRSRTRD},
	FnSRAV:    {"srav", TyRegRSRTRD},
	FnJR:      {"jr", TyJumpReg},
	FnJALR:    {"jalr", TyJumpReg},
	FnSYSCALL: {"syscall", TyCode20},
	FnBREAK:   {"break", TyCode20},
	FnMFHI:    {"mfhi", TyRegRD},
	FnMTHI:    {"mthi", TyRegRD},
	FnMFLO:    {"mflo", TyRegRD},
	FnMTLO:    {"mtlo", TyRegRD},
	FnMULT:    {"mult", TyRegRSRT},
	FnMULTU:   {"multu", TyRegRSRT},
	FnDIV:     {"div", TyRegRSRT},
	FnDIVU:    {"divu", TyRegRSRT},
	FnADD:     {"add", TyRegRSRTRD},
	FnADDU:    {"addu", TyRegRSRTRD},
	FnSUB:     {"sub", TyRegRSRTRD},
	FnSUBU:    {"subu", TyRegRSRTRD},
	FnAND:     {"and", TyRegRSRTRD},
	FnOR:      {"or", TyRegRSRTRD},
	FnXOR:     {"xor", TyRegRSRTRD},
	FnNOR:     {"nor", TyRegRSRTRD},
	FnSLT:     {"slt", TyRegRSRTRD},
	FnSLTU:    {"sltu", TyRegRSRTRD},
}

// BcondZ holds the REGIMM-family (primary opcode 1) rt sub-opcodes.
var BcondZ = map[uint32]Entry{
	SubBLTZ:   {"bltz", TyBranchRS},
	SubBGEZ:   {"bgez", TyBranchRS},
	SubBLTZAL: {"bltzal", TyBranchRS},
	SubBGEZAL: {"bgezal", TyBranchRS},
}

// CopMnemonic gives the move-instruction prefix for a coprocessor rs
// sub-opcode, e.g. CopMT -> "mtc".
var CopMnemonic = map[uint32]string{
	CopMF: "mfc",
	CopCF: "cfc",
	CopMT: "mtc",
	CopCT: "ctc",
}

var regNames = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

// RegName returns the conventional MIPS ABI name for register index 0..31.
func RegName(r uint32) string {
	return regNames[r&0x1f]
}

// RegNumber looks up a register by its conventional name, e.g. "a0" -> 4.
// ok is false for an unrecognized name.
func RegNumber(name string) (n uint32, ok bool) {
	for i, nm := range regNames {
		if nm == name {
			return uint32(i), true
		}
	}
	return 0, false
}

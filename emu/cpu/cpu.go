/*
 * psx-sub000 - MIPS R3000A CPU core
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package cpu implements the MIPS R3000A integer pipeline: fetch, a single
// explicit switch-based decode/execute stage (preferred over a function
// table because it is exhaustiveness-checkable), the branch-delay and
// load-delay slots, and entry into coprocessor-0 exceptions. It knows
// nothing about DMA, the GPU or timers; it only ever touches memory
// through the Bus interface and the architectural state through the
// cop0 interface.
package cpu

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/tlbanken/psx-sub000/emu/cop0"
	op "github.com/tlbanken/psx-sub000/emu/mips/opcodes"
)

// Bus is the subset of emu/bus.Bus the CPU core drives: width-specific
// reads and writes addressed by virtual address.
type Bus interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, value uint8)
	Write16(addr uint32, value uint16)
	Write32(addr uint32, value uint32)
}

// cop0Controller is the subset of cop0.Cop0 the core needs: exception
// entry, the external-interrupt sample, and the MTC0/MFC0/RFE surface.
type cop0Controller interface {
	InterruptPending() bool
	RaiseException(exc cop0.Exception, badv uint32, copNum uint32, currentPC uint32, branchDelay bool) uint32
	ReadReg(reg uint32) uint32
	WriteReg(reg uint32, value uint32)
	Rfe()
}

// pendingLoad is the one-instruction-deep load-delay slot: a load's result
// is staged here instead of being written to its register immediately.
type pendingLoad struct {
	reg   uint32
	val   uint32
	valid bool
}

// CPU holds the R3000A's architectural register file and fetch state.
type CPU struct {
	regs [32]uint32
	hi   uint32
	lo   uint32

	pc     uint32
	nextPC uint32

	// tookBranch is set when the instruction just dispatched was a taken
	// branch or jump; it becomes curDelay (in_branch_delay) for the very
	// next instruction.
	tookBranch bool

	// curPC/curDelay are the current instruction's fetch PC and
	// branch-delay status, captured once per Step/Execute call and read
	// by every exception-raising helper invoked during dispatch.
	curPC    uint32
	curDelay bool

	load pendingLoad

	bus  Bus
	cop0 cop0Controller
}

const resetPC = 0xBFC0_0000

// New returns a CPU wired to bus and c0, reset to power-on state.
func New(bus Bus, c0 cop0Controller) *CPU {
	c := &CPU{bus: bus, cop0: c0}
	c.Reset()
	return c
}

// Reset restores power-on state: PC at the BIOS entry point, all GPRs,
// HI/LO and the load-delay slot cleared.
func (c *CPU) Reset() {
	c.regs = [32]uint32{}
	c.hi, c.lo = 0, 0
	c.pc = resetPC
	c.nextPC = c.pc + 4
	c.tookBranch = false
	c.load = pendingLoad{}
}

// PC returns the address of the next instruction to fetch.
func (c *CPU) PC() uint32 { return c.pc }

// SetPC overwrites PC and retargets Next_PC to PC+4.
func (c *CPU) SetPC(addr uint32) {
	c.pc = addr
	c.nextPC = addr + 4
}

// Reg reads general-purpose register i; R0 always reads zero.
func (c *CPU) Reg(i uint32) uint32 {
	if i == 0 {
		return 0
	}
	return c.regs[i]
}

// SetReg writes general-purpose register i; writes to R0 are discarded.
func (c *CPU) SetReg(i uint32, v uint32) {
	if i == 0 {
		return
	}
	c.regs[i] = v
}

// HI, LO, SetHI, SetLO access the multiply/divide result registers.
func (c *CPU) HI() uint32     { return c.hi }
func (c *CPU) LO() uint32     { return c.lo }
func (c *CPU) SetHI(v uint32) { c.hi = v }
func (c *CPU) SetLO(v uint32) { c.lo = v }

// InBranchDelaySlot reports whether the instruction most recently
// dispatched was itself inside a branch delay slot.
func (c *CPU) InBranchDelaySlot() bool { return c.curDelay }

// Step executes exactly one instruction: sample the external interrupt
// line, fetch at PC (raising AddrErrLoad if misaligned), advance PC/Next_PC,
// then dispatch.
func (c *CPU) Step() {
	c.curPC = c.pc
	c.curDelay = c.tookBranch
	c.tookBranch = false

	if c.cop0.InterruptPending() {
		c.enterException(cop0.Interrupt, 0, 0)
		return
	}
	if c.curPC&0x3 != 0 {
		c.enterException(cop0.AddrErrLoad, c.curPC, 0)
		return
	}

	instr := c.bus.Read32(c.curPC)
	c.pc = c.nextPC
	c.nextPC = c.pc + 4
	c.runInstruction(instr)
}

// Execute runs a single already-decoded instruction word without going
// through the bus fetch or the interrupt/alignment checks Step performs;
// it still advances PC/Next_PC and applies the load-delay/branch-delay
// rules. Used by tests that want to drive the ALU directly.
func (c *CPU) Execute(instr uint32) {
	c.curPC = c.pc
	c.curDelay = c.tookBranch
	c.tookBranch = false
	c.pc = c.nextPC
	c.nextPC = c.pc + 4
	c.runInstruction(instr)
}

func (c *CPU) runInstruction(instr uint32) {
	opField := (instr >> 26) & 0x3f
	rt := (instr >> 16) & 0x1f
	c.commitPendingLoad(opField, rt)
	c.dispatch(instr, opField)
}

// commitPendingLoad applies step 4: the staged load from the previous
// instruction is written back unless the current instruction is itself a
// load targeting the same register, in which case the commit is skipped
// so loadBase can see the still-staged value (the LWL/LWR merge idiom).
func (c *CPU) commitPendingLoad(opField, rt uint32) {
	if !c.load.valid {
		return
	}
	if isLoadOp(opField) && rt == c.load.reg {
		return
	}
	c.SetReg(c.load.reg, c.load.val)
	c.load = pendingLoad{}
}

func isLoadOp(opField uint32) bool {
	switch opField {
	case op.OpLB, op.OpLH, op.OpLWL, op.OpLW, op.OpLBU, op.OpLHU, op.OpLWR:
		return true
	default:
		return false
	}
}

// loadBase returns the value a load-merge instruction (LWL/LWR) should
// start from: the still-staged value if the previous load targeted the
// same register and was left uncommitted, otherwise the live register.
func (c *CPU) loadBase(rt uint32) uint32 {
	if c.load.valid && c.load.reg == rt {
		return c.load.val
	}
	return c.Reg(rt)
}

func (c *CPU) stageLoad(rt, val uint32) {
	c.load = pendingLoad{reg: rt, val: val, valid: true}
}

// enterException raises exc with the current instruction's captured PC
// and branch-delay status, redirects fetch to the exception vector, and
// discards any in-flight load per SPEC_FULL.md's raise_exception contract.
func (c *CPU) enterException(exc cop0.Exception, badv uint32, copNum uint32) {
	newPC := c.cop0.RaiseException(exc, badv, copNum, c.curPC, c.curDelay)
	c.pc = newPC
	c.nextPC = newPC + 4
	c.tookBranch = false
	c.load = pendingLoad{}
}

func (c *CPU) addr(rs uint32, imm int32) uint32 {
	return c.Reg(rs) + uint32(imm)
}

// link writes the post-delay-slot return address into register reg,
// before the branch target is committed to Next_PC (so e.g. JALR R1 R1
// still reads the old R1 as the jump target).
func (c *CPU) link(reg uint32) {
	c.SetReg(reg, c.curPC+8)
}

func (c *CPU) jump(target uint32) {
	c.nextPC = (c.curPC & 0xF000_0000) | (target << 2)
	c.tookBranch = true
}

func (c *CPU) jumpReg(addr uint32) {
	c.nextPC = addr
	c.tookBranch = true
}

func (c *CPU) branchIf(cond bool, imm int32) {
	if cond {
		c.nextPC = c.pc + uint32(imm<<2)
		c.tookBranch = true
	}
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func addOverflows(a, b, sum int32) bool {
	return (a >= 0) == (b >= 0) && (sum >= 0) != (a >= 0)
}

func subOverflows(a, b, diff int32) bool {
	return (a >= 0) != (b >= 0) && (diff >= 0) != (a >= 0)
}

func (c *CPU) dispatch(instr uint32, opField uint32) {
	rs := (instr >> 21) & 0x1f
	rt := (instr >> 16) & 0x1f
	rd := (instr >> 11) & 0x1f
	shamt := (instr >> 6) & 0x1f
	funct := instr & 0x3f
	imm := int32(int16(instr & 0xffff))
	target := instr & 0x03ff_ffff

	switch opField {
	case op.OpSPECIAL:
		c.execSpecial(funct, rs, rt, rd, shamt)
	case op.OpBCONDZ:
		c.execBcondz(rt, rs, imm)
	case op.OpJ:
		c.jump(target)
	case op.OpJAL:
		c.link(31)
		c.jump(target)
	case op.OpBEQ:
		c.branchIf(c.Reg(rs) == c.Reg(rt), imm)
	case op.OpBNE:
		c.branchIf(c.Reg(rs) != c.Reg(rt), imm)
	case op.OpBLEZ:
		c.branchIf(int32(c.Reg(rs)) <= 0, imm)
	case op.OpBGTZ:
		c.branchIf(int32(c.Reg(rs)) > 0, imm)
	case op.OpADDI:
		c.execAddImm(rt, rs, imm, true)
	case op.OpADDIU:
		c.execAddImm(rt, rs, imm, false)
	case op.OpSLTI:
		c.SetReg(rt, b2u(int32(c.Reg(rs)) < imm))
	case op.OpSLTIU:
		c.SetReg(rt, b2u(c.Reg(rs) < uint32(imm)))
	case op.OpANDI:
		c.SetReg(rt, c.Reg(rs)&uint32(uint16(instr)))
	case op.OpORI:
		c.SetReg(rt, c.Reg(rs)|uint32(uint16(instr)))
	case op.OpXORI:
		c.SetReg(rt, c.Reg(rs)^uint32(uint16(instr)))
	case op.OpLUI:
		c.SetReg(rt, uint32(uint16(instr))<<16)
	case op.OpCOP0:
		c.execCop0(instr, rs, rt, rd)
	case op.OpCOP1:
		c.enterException(cop0.CopUnusable, 0, 1)
	case op.OpCOP2:
		slog.Warn("cpu: COP2 instruction ignored (stub)", "instr", fmt.Sprintf("%#08x", instr))
	case op.OpCOP3:
		c.enterException(cop0.CopUnusable, 0, 3)
	case op.OpLB:
		c.loadByte(rt, rs, imm, true)
	case op.OpLH:
		c.loadHalf(rt, rs, imm, true)
	case op.OpLWL:
		c.loadLeft(rt, rs, imm)
	case op.OpLW:
		c.loadWord(rt, rs, imm)
	case op.OpLBU:
		c.loadByte(rt, rs, imm, false)
	case op.OpLHU:
		c.loadHalf(rt, rs, imm, false)
	case op.OpLWR:
		c.loadRight(rt, rs, imm)
	case op.OpSB:
		c.bus.Write8(c.addr(rs, imm), uint8(c.Reg(rt)))
	case op.OpSH:
		c.storeHalf(rt, rs, imm)
	case op.OpSWL:
		c.storeLeft(rt, rs, imm)
	case op.OpSW:
		c.storeWord(rt, rs, imm)
	case op.OpSWR:
		c.storeRight(rt, rs, imm)
	default:
		c.enterException(cop0.ReservedInstr, 0, 0)
	}
}

func (c *CPU) execSpecial(funct, rs, rt, rd, shamt uint32) {
	switch funct {
	case op.FnSLL:
		c.SetReg(rd, c.Reg(rt)<<shamt)
	case op.FnSRL:
		c.SetReg(rd, c.Reg(rt)>>shamt)
	case op.FnSRA:
		c.SetReg(rd, uint32(int32(c.Reg(rt))>>shamt))
	case op.FnSLLV:
		c.SetReg(rd, c.Reg(rt)<<(c.Reg(rs)&0x1f))
	case op.FnSRLV:
		c.SetReg(rd, c.Reg(rt)>>(c.Reg(rs)&0x1f))
	case op.FnSRAV:
		c.SetReg(rd, uint32(int32(c.Reg(rt))>>(c.Reg(rs)&0x1f)))
	case op.FnJR:
		c.jumpReg(c.Reg(rs))
	case op.FnJALR:
		target := c.Reg(rs)
		c.link(rd)
		c.jumpReg(target)
	case op.FnSYSCALL:
		c.enterException(cop0.Syscall, 0, 0)
	case op.FnBREAK:
		c.enterException(cop0.Break, 0, 0)
	case op.FnMFHI:
		c.SetReg(rd, c.hi)
	case op.FnMTHI:
		c.hi = c.Reg(rs)
	case op.FnMFLO:
		c.SetReg(rd, c.lo)
	case op.FnMTLO:
		c.lo = c.Reg(rs)
	case op.FnMULT:
		prod := int64(int32(c.Reg(rs))) * int64(int32(c.Reg(rt)))
		c.hi = uint32(uint64(prod) >> 32)
		c.lo = uint32(prod)
	case op.FnMULTU:
		prod := uint64(c.Reg(rs)) * uint64(c.Reg(rt))
		c.hi = uint32(prod >> 32)
		c.lo = uint32(prod)
	case op.FnDIV:
		c.execDiv(rs, rt)
	case op.FnDIVU:
		c.execDivU(rs, rt)
	case op.FnADD:
		c.execAdd(rd, rs, rt, true)
	case op.FnADDU:
		c.execAdd(rd, rs, rt, false)
	case op.FnSUB:
		c.execSub(rd, rs, rt, true)
	case op.FnSUBU:
		c.execSub(rd, rs, rt, false)
	case op.FnAND:
		c.SetReg(rd, c.Reg(rs)&c.Reg(rt))
	case op.FnOR:
		c.SetReg(rd, c.Reg(rs)|c.Reg(rt))
	case op.FnXOR:
		c.SetReg(rd, c.Reg(rs)^c.Reg(rt))
	case op.FnNOR:
		c.SetReg(rd, ^(c.Reg(rs) | c.Reg(rt)))
	case op.FnSLT:
		c.SetReg(rd, b2u(int32(c.Reg(rs)) < int32(c.Reg(rt))))
	case op.FnSLTU:
		c.SetReg(rd, b2u(c.Reg(rs) < c.Reg(rt)))
	default:
		c.enterException(cop0.ReservedInstr, 0, 0)
	}
}

func (c *CPU) execBcondz(rt, rs uint32, imm int32) {
	val := int32(c.Reg(rs))
	var taken, link bool
	switch rt {
	case op.SubBLTZ:
		taken = val < 0
	case op.SubBGEZ:
		taken = val >= 0
	case op.SubBLTZAL:
		taken, link = val < 0, true
	case op.SubBGEZAL:
		taken, link = val >= 0, true
	default:
		c.enterException(cop0.ReservedInstr, 0, 0)
		return
	}
	if link {
		c.link(31)
	}
	c.branchIf(taken, imm)
}

func (c *CPU) execAddImm(rt, rs uint32, imm int32, checkOverflow bool) {
	a := int32(c.Reg(rs))
	sum := a + imm
	if checkOverflow && addOverflows(a, imm, sum) {
		c.enterException(cop0.Overflow, 0, 0)
		return
	}
	c.SetReg(rt, uint32(sum))
}

func (c *CPU) execAdd(rd, rs, rt uint32, checkOverflow bool) {
	a := int32(c.Reg(rs))
	b := int32(c.Reg(rt))
	sum := a + b
	if checkOverflow && addOverflows(a, b, sum) {
		c.enterException(cop0.Overflow, 0, 0)
		return
	}
	c.SetReg(rd, uint32(sum))
}

func (c *CPU) execSub(rd, rs, rt uint32, checkOverflow bool) {
	a := int32(c.Reg(rs))
	b := int32(c.Reg(rt))
	diff := a - b
	if checkOverflow && subOverflows(a, b, diff) {
		c.enterException(cop0.Overflow, 0, 0)
		return
	}
	c.SetReg(rd, uint32(diff))
}

// execDiv implements signed division, including the R3000A's
// division-by-zero and INT_MIN/-1 conventions (SPEC_FULL.md §4.4).
func (c *CPU) execDiv(rs, rt uint32) {
	a := int32(c.Reg(rs))
	b := int32(c.Reg(rt))
	if b == 0 {
		c.hi = uint32(a)
		if a < 0 {
			c.lo = 1
		} else {
			c.lo = 0xFFFF_FFFF
		}
		return
	}
	if a == math.MinInt32 && b == -1 {
		c.lo = 0x8000_0000
		c.hi = 0
		return
	}
	c.lo = uint32(a / b)
	c.hi = uint32(a % b)
}

func (c *CPU) execDivU(rs, rt uint32) {
	a := c.Reg(rs)
	b := c.Reg(rt)
	if b == 0 {
		c.hi = a
		c.lo = 0xFFFF_FFFF
		return
	}
	c.lo = a / b
	c.hi = a % b
}

func (c *CPU) execCop0(instr, rs, rt, rd uint32) {
	if rs == 0x10 && instr&0x3f == op.Cop0FnRFE {
		c.cop0.Rfe()
		return
	}
	switch rs {
	case op.CopMF, op.CopCF:
		c.SetReg(rt, c.cop0.ReadReg(rd))
	case op.CopMT, op.CopCT:
		c.cop0.WriteReg(rd, c.Reg(rt))
	default:
		slog.Warn("cpu: unsupported COP0 sub-op", "rs", rs)
	}
}

func (c *CPU) loadByte(rt, rs uint32, imm int32, signed bool) {
	addr := c.addr(rs, imm)
	v := c.bus.Read8(addr)
	if signed {
		c.stageLoad(rt, uint32(int32(int8(v))))
	} else {
		c.stageLoad(rt, uint32(v))
	}
}

func (c *CPU) loadHalf(rt, rs uint32, imm int32, signed bool) {
	addr := c.addr(rs, imm)
	if addr&0x1 != 0 {
		c.enterException(cop0.AddrErrLoad, addr, 0)
		return
	}
	v := c.bus.Read16(addr)
	if signed {
		c.stageLoad(rt, uint32(int32(int16(v))))
	} else {
		c.stageLoad(rt, uint32(v))
	}
}

func (c *CPU) loadWord(rt, rs uint32, imm int32) {
	addr := c.addr(rs, imm)
	if addr&0x3 != 0 {
		c.enterException(cop0.AddrErrLoad, addr, 0)
		return
	}
	c.stageLoad(rt, c.bus.Read32(addr))
}

// loadLeft/loadRight implement LWL/LWR: they never raise AddrErr, and
// each reads the aligned word containing the target address and merges
// it with loadBase(rt) (the live register, or the still-staged value from
// a preceding LWL/LWR pair targeting the same register).
func (c *CPU) loadLeft(rt, rs uint32, imm int32) {
	addr := c.addr(rs, imm)
	word := c.bus.Read32(addr &^ 3)
	shift := (addr & 3) * 8
	cur := c.loadBase(rt)
	val := (cur & (0x00FF_FFFF >> shift)) | (word << (24 - shift))
	c.stageLoad(rt, val)
}

func (c *CPU) loadRight(rt, rs uint32, imm int32) {
	addr := c.addr(rs, imm)
	word := c.bus.Read32(addr &^ 3)
	shift := (addr & 3) * 8
	cur := c.loadBase(rt)
	val := (cur & (0xFFFF_FF00 << (24 - shift))) | (word >> shift)
	c.stageLoad(rt, val)
}

func (c *CPU) storeHalf(rt, rs uint32, imm int32) {
	addr := c.addr(rs, imm)
	if addr&0x1 != 0 {
		c.enterException(cop0.AddrErrStore, addr, 0)
		return
	}
	c.bus.Write16(addr, uint16(c.Reg(rt)))
}

func (c *CPU) storeWord(rt, rs uint32, imm int32) {
	addr := c.addr(rs, imm)
	if addr&0x3 != 0 {
		c.enterException(cop0.AddrErrStore, addr, 0)
		return
	}
	c.bus.Write32(addr, c.Reg(rt))
}

func (c *CPU) storeLeft(rt, rs uint32, imm int32) {
	addr := c.addr(rs, imm)
	aligned := addr &^ 3
	shift := (addr & 3) * 8
	mem := c.bus.Read32(aligned)
	mem = (mem & (0xFFFF_FF00 << shift)) | (c.Reg(rt) >> (24 - shift))
	c.bus.Write32(aligned, mem)
}

func (c *CPU) storeRight(rt, rs uint32, imm int32) {
	addr := c.addr(rs, imm)
	aligned := addr &^ 3
	shift := (addr & 3) * 8
	mem := c.bus.Read32(aligned)
	mem = (mem & (0x00FF_FFFF >> (24 - shift))) | (c.Reg(rt) << shift)
	c.bus.Write32(aligned, mem)
}

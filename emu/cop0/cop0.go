/*
 * psx-sub000 - Coprocessor 0 (system control)
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

// Package cop0 implements the system-control coprocessor: SR, Cause, EPC
// and BadVaddr, plus exception entry and the RFE privilege-stack pop. The
// CPU core calls RaiseException on every architecturally-defined exception
// (address errors, overflow, syscall/break, reserved/unusable
// instructions, external interrupts); MTC0/MFC0/RFE reach the registers
// through ReadReg/WriteReg/Rfe.
package cop0

// Exception identifies the condition passed to RaiseException, matching
// the MIPS-I ExcCode field values used in Cause bits 2-6.
type Exception uint32

const (
	Interrupt     Exception = 0x00
	AddrErrLoad   Exception = 0x04
	AddrErrStore  Exception = 0x05
	IBusErr       Exception = 0x06
	DBusErr       Exception = 0x07
	Syscall       Exception = 0x08
	Break         Exception = 0x09
	ReservedInstr Exception = 0x0a
	CopUnusable   Exception = 0x0b
	Overflow      Exception = 0x0c
)

// SR bit layout.
const (
	srIEc    = 1 << 0 // interrupt enable, current
	srKUc    = 1 << 1 // kernel(0)/user(1) mode, current
	srIEp    = 1 << 2 // interrupt enable, previous
	srKUp    = 1 << 3 // kernel/user, previous
	srIEo    = 1 << 4 // interrupt enable, old
	srKUo    = 1 << 5 // kernel/user, old
	srKUIEMask = 0x3f
	srImShift  = 8
	srImMask   = 0xff << srImShift
	srIsc      = 1 << 16 // cache isolated
	srBEV      = 1 << 22 // boot exception vector
)

// Cause bit layout.
const (
	causeExcCodeShift = 2
	causeExcCodeMask  = 0x1f << causeExcCodeShift
	causeIPShift      = 8
	causeIPMask       = 0xff << causeIPShift
	causeCEShift      = 28
	causeCEMask       = 0x3 << causeCEShift
	causeBD           = 1 << 30
)

// Register numbers reachable through MTC0/MFC0, per the subset the PSX
// BIOS and games actually touch.
const (
	RegBadVaddr = 8
	RegSR       = 12
	RegCause    = 13
	RegEPC      = 14
)

const (
	bootVectorNormal = 0x8000_0080
	bootVectorBEV    = 0xBFC0_0180
)

// Cop0 holds the system-control coprocessor's architectural state.
type Cop0 struct {
	sr       uint32
	cause    uint32
	epc      uint32
	badVaddr uint32
}

// New returns a Cop0 in its power-on state: BEV set (boot ROM vectors
// until the BIOS clears it), everything else zero.
func New() *Cop0 {
	c := &Cop0{}
	c.Reset()
	return c
}

// Reset restores power-on state.
func (c *Cop0) Reset() {
	c.sr = srBEV
	c.cause = 0
	c.epc = 0
	c.badVaddr = 0
}

// CacheIsolated reports SR bit 16, satisfying bus.CacheChecker.
func (c *Cop0) CacheIsolated() bool {
	return c.sr&srIsc != 0
}

// InterruptsEnabled reports SR.IEc: whether the CPU should act on a
// pending external interrupt this tick.
func (c *Cop0) InterruptsEnabled() bool {
	return c.sr&srIEc != 0
}

// SR returns the raw status register.
func (c *Cop0) SR() uint32 { return c.sr }

// EPC returns the saved exception PC.
func (c *Cop0) EPC() uint32 { return c.epc }

// Cause returns the raw cause register.
func (c *Cop0) Cause() uint32 { return c.cause }

// ExcCode extracts the exception code last written into Cause.
func (c *Cop0) ExcCode() Exception {
	return Exception((c.cause & causeExcCodeMask) >> causeExcCodeShift)
}

// RaiseException enters the coprocessor's exception handler: it records
// BadVaddr, EPC, and the exception code/coprocessor-number/branch-delay
// fields in Cause, pushes the IEc/KUc pair down the privilege stack, and
// returns the new PC the CPU core should fetch from next.
//
// EPC capture always uses the address of the faulting instruction itself:
// currentPC when it is not in a branch delay slot, currentPC-4 (the
// branch instruction) when it is. badv is only meaningful for
// AddrErrLoad/AddrErrStore; callers pass 0 otherwise.
func (c *Cop0) RaiseException(exc Exception, badv uint32, copNum uint32, currentPC uint32, branchDelay bool) uint32 {
	c.badVaddr = badv

	if branchDelay {
		c.epc = currentPC - 4
	} else {
		c.epc = currentPC
	}

	cause := c.cause &^ (causeExcCodeMask | causeCEMask | causeBD)
	cause |= uint32(exc) << causeExcCodeShift
	cause |= (copNum << causeCEShift) & causeCEMask
	if branchDelay {
		cause |= causeBD
	}
	c.cause = cause

	// Push the privilege/interrupt-enable pair down the three-deep stack
	// and disable interrupts in the handler.
	stack := c.sr & srKUIEMask
	c.sr = (c.sr &^ srKUIEMask) | (stack<<2)&srKUIEMask

	if c.sr&srBEV != 0 {
		return bootVectorBEV
	}
	return bootVectorNormal
}

// Rfe pops the privilege/interrupt-enable stack (the KUo/IEo pair moves
// down into KUp/IEp, KUp/IEp into KUc/IEc); bits 6-31 are untouched.
func (c *Cop0) Rfe() {
	stack := c.sr & srKUIEMask
	c.sr = (c.sr &^ srKUIEMask) | (stack >> 2)
}

// SetPending sets or clears Cause bit 8, the external-interrupt pending bit
// the core polls before raising an Interrupt exception.
func (c *Cop0) SetPending(pending bool) {
	if pending {
		c.cause |= 1 << causeIPShift
	} else {
		c.cause &^= 1 << causeIPShift
	}
}

// InterruptPending reports whether the CPU should take an Interrupt
// exception this tick: the external line is pending, SR.IEc is set, and
// the corresponding SR.Im bit (the one mirroring Cause bit 8) is unmasked.
func (c *Cop0) InterruptPending() bool {
	if !c.InterruptsEnabled() {
		return false
	}
	return c.cause&c.sr&causeIPMask != 0
}

// ReadReg reads a coprocessor-0 register by its MTC0/MFC0 register number.
func (c *Cop0) ReadReg(reg uint32) uint32 {
	switch reg {
	case RegBadVaddr:
		return c.badVaddr
	case RegSR:
		return c.sr
	case RegCause:
		return c.cause
	case RegEPC:
		return c.epc
	default:
		return 0
	}
}

// WriteReg writes a coprocessor-0 register by its MTC0 register number.
// BadVaddr and EPC are read-only from software in the baseline (real
// hardware allows writing them too, but nothing in this core depends on
// that); Cause only exposes its software-settable IP bits (0-1) to MTC0.
func (c *Cop0) WriteReg(reg uint32, value uint32) {
	switch reg {
	case RegSR:
		c.sr = value
	case RegCause:
		c.cause = (c.cause &^ 0x300) | (value & 0x300)
	}
}

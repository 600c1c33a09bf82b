/*
 * psx-sub000 - Memory control registers
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

// Package memctrl holds the expansion/delay-size configuration registers
// (MEMCTRL1, 0x1F801000-0x1F801020), the RAM_SIZE register (0x1F801060), and
// the cache control register (0xFFFE0130). None of these affect timing in
// this core; they are a plain read/write register file, the way the teacher
// keeps its control-register block a flat array behind named offsets.
package memctrl

// Register byte offsets within the MEMCTRL1 block (relative to 0x1F801000).
const (
	Exp1Base   = 0x00
	Exp2Base   = 0x04
	Exp1Delay  = 0x08
	Exp3Delay  = 0x0C
	BiosDelay  = 0x10
	SpuDelay   = 0x14
	CdromDelay = 0x18
	Exp2Delay  = 0x1C
	ComDelay   = 0x20
)

// MemCtrl holds the MEMCTRL1 register file, RAM_SIZE, and the cache control
// register as independent word-addressed blocks.
type MemCtrl struct {
	regs     [9]uint32 // MEMCTRL1, indexed by offset/4
	ramSize  uint32
	cacheCtl uint32
}

// New returns a MemCtrl with power-on defaults.
func New() *MemCtrl {
	m := &MemCtrl{}
	m.Reset()
	return m
}

// Reset restores power-on register values.
func (m *MemCtrl) Reset() {
	for i := range m.regs {
		m.regs[i] = 0
	}
	m.ramSize = 0x00000B88
	m.cacheCtl = 0
}

// ReadReg reads a MEMCTRL1 register by its byte offset.
func (m *MemCtrl) ReadReg(offset uint32) uint32 {
	idx := offset / 4
	if int(idx) >= len(m.regs) {
		return 0
	}
	return m.regs[idx]
}

// WriteReg writes a MEMCTRL1 register by its byte offset.
func (m *MemCtrl) WriteReg(offset uint32, value uint32) {
	idx := offset / 4
	if int(idx) >= len(m.regs) {
		return
	}
	m.regs[idx] = value
}

// RamSize reads the RAM_SIZE register (0x1F801060).
func (m *MemCtrl) RamSize() uint32 { return m.ramSize }

// SetRamSize writes the RAM_SIZE register.
func (m *MemCtrl) SetRamSize(value uint32) { m.ramSize = value }

// CacheControl reads the cache control register (0xFFFE0130).
func (m *MemCtrl) CacheControl() uint32 { return m.cacheCtl }

// SetCacheControl writes the cache control register (0xFFFE0130). Cache
// isolation itself is driven by COP0's SR bit 16, tracked in emu/cop0; this
// register is otherwise informational to this core.
func (m *MemCtrl) SetCacheControl(value uint32) { m.cacheCtl = value }

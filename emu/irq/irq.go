/*
 * psx-sub000 - Interrupt controller
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

// Package irq aggregates the eleven PSX interrupt sources (I_STAT, I_MASK,
// 0x1F801070-0x1F801078) into the single external interrupt line the CPU
// core polls once per tick.
package irq

// Source identifies one of the eleven interrupt bits.
type Source uint

const (
	Vblank Source = iota
	Gpu
	CdRom
	Dma
	Timer0
	Timer1
	Timer2
	Pad // controller / memory card
	Sio
	Spu
	Lightpen
)

// Register byte offsets within the interrupt block.
const (
	RegStat = 0x0
	RegMask = 0x4
)

// Controller holds I_STAT and I_MASK.
type Controller struct {
	stat uint16
	mask uint16
}

// New returns a Controller with both registers cleared.
func New() *Controller {
	return &Controller{}
}

// Reset clears I_STAT and I_MASK.
func (c *Controller) Reset() {
	c.stat = 0
	c.mask = 0
}

// Signal sets the bit for source in I_STAT. Any device detecting its
// condition calls this; it is independent of I_MASK.
func (c *Controller) Signal(source Source) {
	c.stat |= 1 << uint(source)
}

// Pending reports whether (I_STAT & I_MASK) is non-zero: the external
// interrupt line the CPU core samples once per tick.
func (c *Controller) Pending() bool {
	return c.stat&c.mask != 0
}

// ReadReg reads I_STAT or I_MASK by byte offset.
func (c *Controller) ReadReg(offset uint32) uint32 {
	switch offset & 0x7 {
	case RegStat:
		return uint32(c.stat)
	case RegMask:
		return uint32(c.mask)
	default:
		return 0
	}
}

// WriteReg writes I_STAT or I_MASK by byte offset. I_STAT is AND-only: a
// 0 bit in value acknowledges (clears) that status bit, a 1 bit leaves it
// unchanged. I_MASK is a plain overwrite.
func (c *Controller) WriteReg(offset uint32, value uint32) {
	switch offset & 0x7 {
	case RegStat:
		c.stat &= uint16(value)
	case RegMask:
		c.mask = uint16(value)
	}
}

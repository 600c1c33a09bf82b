/*
 * psx-sub000 - DMA controller
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

// Package dma implements the seven PSX DMA channels (0x1F801080-0x1F8010FC)
// plus the shared DPCR/DICR control registers at 0x1F8010F0/F4. Unlike the
// teacher's channel package, which drives an arbitrary attached Device
// through CCW chains, PSX DMA only ever moves words between RAM and one of
// two fixed endpoints (the GPU's GP0 port, or a self-generated ordering
// table), so channel 2 and channel 6 each get their own transfer routine
// instead of a general device dispatch.
package dma

import (
	"fmt"
	"log/slog"

	"github.com/tlbanken/psx-sub000/emu/ram"
)

// Channel indices.
const (
	MdecIn = iota
	MdecOut
	Gpu
	CdRom
	Spu
	Pio
	Otc
	numChannels
)

// Per-channel register byte offsets within a channel's 0x10-byte block.
const (
	RegMadr = 0x0
	RegBcr  = 0x4
	RegChcr = 0x8
)

// Control register byte offsets (relative to the DMA block base).
const (
	RegDpcr = 0x70
	RegDicr = 0x74
)

// CHCR bit layout.
const (
	chcrDirToRAM   = 0 << 0
	chcrDirFromRAM = 1 << 0
	chcrStepBack   = 1 << 1
	chcrChopping   = 1 << 8
	syncModeShift  = 9
	syncModeMask   = 0x3 << syncModeShift
	chcrBusy       = 1 << 24
	chcrTrigger    = 1 << 28
)

// DICR bit layout.
const (
	dicrForce        = 1 << 15
	dicrEnableShift  = 16
	dicrFlagShift    = 24
	dicrMasterEnable = 1 << 23
	dicrMasterFlag   = 1 << 31
)

// gpuPort is the subset of the GPU the DMA controller drives directly:
// each word of a GPU DMA transfer is submitted exactly as if the CPU had
// written it to GP0.
type gpuPort interface {
	WriteGP0(value uint32)
}

type channel struct {
	madr uint32
	bcr  uint32
	chcr uint32
}

// Controller holds the seven DMA channels and the shared control registers.
type Controller struct {
	ch   [numChannels]channel
	dpcr uint32
	dicr uint32

	ram *ram.RAM
	gpu gpuPort

	pending []int // channels queued for transfer at the next Step
}

// New returns a Controller wired to move data between r and gpu.
func New(r *ram.RAM, gpu gpuPort) *Controller {
	c := &Controller{ram: r, gpu: gpu}
	c.Reset()
	return c
}

// Reset restores power-on register state: all channels disabled, default
// channel priorities, no pending transfers.
func (c *Controller) Reset() {
	c.ch = [numChannels]channel{}
	c.dpcr = 0x07654321
	c.dicr = 0
	c.pending = c.pending[:0]
}

// enabled reports whether DPCR has channel n's enable bit (bit 4n+3) set.
func (c *Controller) enabled(n int) bool {
	return c.dpcr&(1<<uint(4*n+3)) != 0
}

// ready reports whether channel n's CHCR requests an immediate start:
// busy, and (sync mode != manual, or the trigger bit is also set).
func (c *channel) ready() bool {
	if c.chcr&chcrBusy == 0 {
		return false
	}
	syncMode := (c.chcr & syncModeMask) >> syncModeShift
	return syncMode != 0 || c.chcr&chcrTrigger != 0
}

// Step executes every DMA transfer queued by a CHCR write since the last
// Step call. Transfers complete atomically: no partial transfer is ever
// observed by the CPU (SPEC_FULL.md §5).
func (c *Controller) Step() error {
	queued := c.pending
	c.pending = nil
	for _, n := range queued {
		ch := &c.ch[n]
		if !c.enabled(n) || !ch.ready() {
			continue
		}
		if err := c.run(n); err != nil {
			return err
		}
		c.finish(n)
	}
	return nil
}

// finish clears the channel's start/busy and start/trigger bits and its
// DPCR enable bit. Real hardware auto-clears the DPCR enable bit on
// completion for several channels; the core applies this uniformly rather
// than special-casing which channels do and don't (§9 Open Questions).
func (c *Controller) finish(n int) {
	c.ch[n].chcr &^= chcrBusy | chcrTrigger
	c.dpcr &^= 1 << uint(4*n+3)
}

// run dispatches channel n's transfer by channel identity.
func (c *Controller) run(n int) error {
	switch n {
	case Gpu:
		syncMode := (c.ch[n].chcr & syncModeMask) >> syncModeShift
		if syncMode == 2 {
			c.linkedList()
		} else {
			c.block(n)
		}
		return nil
	case Otc:
		c.otcBlock()
		return nil
	case Spu:
		slog.Warn("dma: channel 4 (SPU) not emulated, transfer skipped")
		return nil
	default:
		return fmt.Errorf("dma: channel %d unsupported", n)
	}
}

// block runs a manual or request-mode block transfer for channel n.
func (c *Controller) block(n int) {
	ch := &c.ch[n]
	words := ch.bcr & 0xFFFF
	if words == 0 {
		words = 0x1_0000
	}
	addr := ch.madr & 0x001F_FFFC
	step := int32(4)
	if ch.chcr&chcrStepBack != 0 {
		step = -4
	}
	fromRAM := ch.chcr&chcrDirFromRAM != 0
	for i := uint32(0); i < words; i++ {
		if fromRAM {
			c.gpu.WriteGP0(c.ram.ReadWord(addr))
		}
		addr = uint32(int64(addr) + int64(step))
		addr &= 0x001F_FFFC
	}
	ch.madr = addr
}

// linkedList runs a channel-2 linked-list transfer: each packet's header
// gives a word count and the address of the next packet, terminated by a
// header whose low 24 bits are all ones.
func (c *Controller) linkedList() {
	addr := c.ch[Gpu].madr & 0x001F_FFFC
	for {
		header := c.ram.ReadWord(addr)
		count := header >> 24
		cur := addr + 4
		for i := uint32(0); i < count; i++ {
			c.gpu.WriteGP0(c.ram.ReadWord(cur))
			cur += 4
		}
		next := header & 0x00FF_FFFF
		if next == 0x00FF_FFFF {
			c.ch[Gpu].madr = next
			return
		}
		addr = next & 0x001F_FFFC
	}
}

// otcBlock builds a reverse ordering-table chain of BCR.lo16 words starting
// at MADR: the first word written (at MADR itself) is the terminator, and
// every later word holds the address handled immediately before it.
func (c *Controller) otcBlock() {
	words := c.ch[Otc].bcr & 0xFFFF
	if words == 0 {
		words = 0x1_0000
	}
	addr := c.ch[Otc].madr & 0x001F_FFFC
	for i := uint32(0); i < words; i++ {
		var val uint32
		if i == 0 {
			val = 0x00FF_FFFF
		} else {
			val = (addr + 4) & 0x00FF_FFFF
		}
		c.ram.WriteWord(addr, val)
		addr -= 4
		addr &= 0x001F_FFFC
	}
	c.ch[Otc].madr = (addr + 4) & 0x00FF_FFFF
}

// ReadReg reads a DMA register by its byte offset within the DMA block.
func (c *Controller) ReadReg(offset uint32) uint32 {
	switch offset {
	case RegDpcr:
		return c.dpcr
	case RegDicr:
		return c.readDICR()
	}
	n := int(offset / 0x10)
	if n >= numChannels {
		return 0
	}
	ch := &c.ch[n]
	switch offset % 0x10 {
	case RegMadr:
		return ch.madr
	case RegBcr:
		return ch.bcr
	case RegChcr:
		return ch.chcr
	default:
		return 0
	}
}

// readDICR composes the derived, read-only master IRQ flag (bit 31) into
// the stored DICR value: set iff the force bit is set, or the master
// enable bit is set, at least one per-channel enable bit (16-22) is set,
// and at least one matching flag bit is raised.
func (c *Controller) readDICR() uint32 {
	word := c.dicr &^ dicrMasterFlag
	force := word&dicrForce != 0
	enabled := (word >> dicrEnableShift) & 0x7F
	flags := (word >> dicrFlagShift) & 0x7F
	master := word&dicrMasterEnable != 0 && enabled&flags != 0
	if force || master {
		word |= dicrMasterFlag
	}
	return word
}

// WriteReg writes a DMA register by its byte offset. A CHCR write that
// leaves the channel ready to run queues it for the next Step call.
func (c *Controller) WriteReg(offset uint32, value uint32) {
	switch offset {
	case RegDpcr:
		c.dpcr = value
		return
	case RegDicr:
		c.writeDICR(value)
		return
	}
	n := int(offset / 0x10)
	if n >= numChannels {
		return
	}
	ch := &c.ch[n]
	switch offset % 0x10 {
	case RegMadr:
		ch.madr = value & 0x00FF_FFFF
	case RegBcr:
		ch.bcr = value
	case RegChcr:
		ch.chcr = value
		if c.enabled(n) && ch.ready() {
			c.pending = append(c.pending, n)
		}
	}
}

// writeDICR treats the per-channel flag bits (24-30) as write-one-to-clear:
// a 1 bit in value acknowledges (clears) that channel's flag, a 0 bit
// leaves it unchanged. The force, enable, and master-enable bits are a
// plain overwrite.
func (c *Controller) writeDICR(value uint32) {
	keep := value &^ (0x7F << dicrFlagShift)
	ackMask := (value >> dicrFlagShift) & 0x7F
	oldFlags := (c.dicr >> dicrFlagShift) & 0x7F
	newFlags := oldFlags &^ ackMask
	c.dicr = keep | newFlags<<dicrFlagShift
}

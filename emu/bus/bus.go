/*
 * psx-sub000 - System bus: address decode and device dispatch
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

// Package bus classifies a 32-bit virtual address into its segment, masks it
// down to a physical address and dispatches the access to exactly one
// device. This is the PSX's single unified address map: RAM, scratchpad,
// BIOS and every MMIO block hang off the same 4 GiB decode.
package bus

import (
	"log/slog"

	"github.com/tlbanken/psx-sub000/emu/bios"
	"github.com/tlbanken/psx-sub000/emu/memctrl"
	"github.com/tlbanken/psx-sub000/emu/ram"
	"github.com/tlbanken/psx-sub000/emu/scratchpad"
)

// Segment classifies a virtual address by its top bits.
type Segment int

const (
	KUSEG Segment = iota
	KSEG0
	KSEG1
	KSEG2
)

// Classify returns the segment containing addr.
func Classify(addr uint32) Segment {
	switch {
	case addr < 0x8000_0000:
		return KUSEG
	case addr < 0xA000_0000:
		return KSEG0
	case addr < 0xC000_0000:
		return KSEG1
	default:
		return KSEG2
	}
}

// Physical masks a virtual address down to a physical one for its segment.
// KUSEG and KSEG2 pass through unchanged; KSEG0/KSEG1 strip the segment's
// top bits, since both are windows onto the same physical map.
func Physical(addr uint32, seg Segment) uint32 {
	if seg == KSEG0 || seg == KSEG1 {
		return addr & 0x1FFF_FFFF
	}
	return addr
}

// Cacheable reports whether a segment is subject to cache-isolation writes
// (KUSEG and KSEG0; KSEG1 is the explicitly uncached window).
func Cacheable(seg Segment) bool {
	return seg == KUSEG || seg == KSEG0
}

// CacheChecker is satisfied by Cop0: the bus consults SR bit 16 to decide
// whether a cacheable-region RAM write should be suppressed.
type CacheChecker interface {
	CacheIsolated() bool
}

// regBlock is a word-addressed MMIO register file: interrupt, DMA, timer
// controllers and the memory-control block all expose this same shape.
type regBlock interface {
	ReadReg(offset uint32) uint32
	WriteReg(offset uint32, value uint32)
}

// gpuDevice models the GPU's two asymmetric ports: GP0/GPUREAD share one
// address, GP1/GPUSTAT share the other, each with a different meaning for
// reads versus writes.
type gpuDevice interface {
	WriteGP0(value uint32)
	WriteGP1(value uint32)
	ReadGPUREAD() uint32
	ReadGPUSTAT() uint32
}

// Watcher is the debug breakpoint hook: Watch is called on every bus access,
// before the device is touched.
type Watcher interface {
	Watch(addr uint32, write bool)
}

type wordReader func(offset uint32) uint32
type wordWriter func(offset uint32, value uint32)

// region is one entry of the address-decode table: a half-open physical
// range and the width-specific accessors that serve it.
type region struct {
	name       string
	base, end  uint32
	read8      func(off uint32) uint8
	write8     func(off uint32, v uint8)
	read16     func(off uint32) uint16
	write16    func(off uint32, v uint16)
	read32     func(off uint32) uint32
	write32    func(off uint32, v uint32)
	cacheGated bool // true only for the RAM region
}

// Bus wires RAM, scratchpad, BIOS and the MMIO blocks into one address map.
type Bus struct {
	ram     *ram.RAM
	scratch *scratchpad.Scratchpad
	bios    *bios.BIOS
	memctrl *memctrl.MemCtrl
	cop0    CacheChecker
	irq     regBlock
	dma     regBlock
	timer   regBlock
	gpu     gpuDevice
	watcher Watcher
	regions []region
}

// New wires a fully assembled Bus. Any of irq/dma/timer/gpu may be nil
// during incremental bring-up; accesses to their ranges then fall through
// to the default unmapped-read/write path.
func New(
	r *ram.RAM,
	s *scratchpad.Scratchpad,
	b *bios.BIOS,
	mc *memctrl.MemCtrl,
	cop0 CacheChecker,
	irq regBlock,
	dma regBlock,
	timer regBlock,
	gpu gpuDevice,
) *Bus {
	bs := &Bus{
		ram:     r,
		scratch: s,
		bios:    b,
		memctrl: mc,
		cop0:    cop0,
		irq:     irq,
		dma:     dma,
		timer:   timer,
		gpu:     gpu,
	}
	bs.regions = bs.buildRegions()
	return bs
}

// SetWatcher installs (or, with nil, removes) the debug breakpoint hook.
func (b *Bus) SetWatcher(w Watcher) {
	b.watcher = w
}

func regRead8(get wordReader, offset uint32) uint8 {
	word := get(offset &^ 3)
	return uint8(word >> ((offset & 3) * 8))
}

func regWrite8(get wordReader, set wordWriter, offset uint32, value uint8) {
	aligned := offset &^ 3
	shift := (offset & 3) * 8
	mask := uint32(0xff) << shift
	word := get(aligned)
	set(aligned, (word&^mask)|(uint32(value)<<shift))
}

func regRead16(get wordReader, offset uint32) uint16 {
	word := get(offset &^ 3)
	return uint16(word >> ((offset & 2) * 8))
}

func regWrite16(get wordReader, set wordWriter, offset uint32, value uint16) {
	aligned := offset &^ 3
	shift := (offset & 2) * 8
	mask := uint32(0xffff) << shift
	word := get(aligned)
	set(aligned, (word&^mask)|(uint32(value)<<shift))
}

func (b *Bus) buildRegions() []region {
	regions := []region{
		{
			name: "ram", base: 0x0000_0000, end: 0x0080_0000,
			read8: b.ram.ReadByte, write8: b.ram.WriteByte,
			read16: b.ram.ReadHalf, write16: b.ram.WriteHalf,
			read32: b.ram.ReadWord, write32: b.ram.WriteWord,
			cacheGated: true,
		},
		{
			name: "scratchpad", base: 0x1F80_0000, end: 0x1F80_0400,
			read8: b.scratch.ReadByte, write8: b.scratch.WriteByte,
			read16: b.scratch.ReadHalf, write16: b.scratch.WriteHalf,
			read32: b.scratch.ReadWord, write32: b.scratch.WriteWord,
		},
		{
			name: "bios", base: 0x1FC0_0000, end: 0x1FC8_0000,
			read8: b.bios.ReadByte, write8: b.bios.WriteByte,
			read16: b.bios.ReadHalf, write16: b.bios.WriteHalf,
			read32: b.bios.ReadWord, write32: b.bios.WriteWord,
		},
		b.regBlockRegion("memctrl1", 0x1F80_1000, 0x1F80_1024, b.memctrl.ReadReg, b.memctrl.WriteReg),
		b.regBlockRegion("cachecontrol", 0xFFFE_0130, 0xFFFE_0134,
			func(uint32) uint32 { return b.memctrl.CacheControl() },
			func(_ uint32, v uint32) { b.memctrl.SetCacheControl(v) }),
	}

	ramSizeRead := func(uint32) uint32 { return b.memctrl.RamSize() }
	ramSizeWrite := func(_ uint32, v uint32) { b.memctrl.SetRamSize(v) }
	regions = append(regions, b.regBlockRegion("ramsize", 0x1F80_1060, 0x1F80_1064, ramSizeRead, ramSizeWrite))

	if b.irq != nil {
		regions = append(regions, b.regBlockRegion("irq", 0x1F80_1070, 0x1F80_1078, b.irq.ReadReg, b.irq.WriteReg))
	}
	if b.dma != nil {
		regions = append(regions, b.regBlockRegion("dma", 0x1F80_1080, 0x1F80_10FC, b.dma.ReadReg, b.dma.WriteReg))
	}
	if b.timer != nil {
		regions = append(regions, b.regBlockRegion("timer", 0x1F80_1100, 0x1F80_1130, b.timer.ReadReg, b.timer.WriteReg))
	}
	if b.gpu != nil {
		regions = append(regions, region{
			name: "gpu", base: 0x1F80_1810, end: 0x1F80_1818,
			read8:  func(off uint32) uint8 { return regRead8(b.gpuWordReader(), off) },
			write8: func(off uint32, v uint8) { regWrite8(b.gpuWordReader(), b.gpuWordWriter(), off, v) },
			read16: func(off uint32) uint16 { return regRead16(b.gpuWordReader(), off) },
			write16: func(off uint32, v uint16) {
				regWrite16(b.gpuWordReader(), b.gpuWordWriter(), off, v)
			},
			read32:  b.gpuWordReader(),
			write32: b.gpuWordWriter(),
		})
	}
	return regions
}

func (b *Bus) gpuWordReader() wordReader {
	return func(off uint32) uint32 {
		if off < 4 {
			return b.gpu.ReadGPUREAD()
		}
		return b.gpu.ReadGPUSTAT()
	}
}

func (b *Bus) gpuWordWriter() wordWriter {
	return func(off uint32, v uint32) {
		if off < 4 {
			b.gpu.WriteGP0(v)
		} else {
			b.gpu.WriteGP1(v)
		}
	}
}

func (b *Bus) regBlockRegion(name string, base, end uint32, get wordReader, set wordWriter) region {
	return region{
		name: name, base: base, end: end,
		read8:   func(off uint32) uint8 { return regRead8(get, off) },
		write8:  func(off uint32, v uint8) { regWrite8(get, set, off, v) },
		read16:  func(off uint32) uint16 { return regRead16(get, off) },
		write16: func(off uint32, v uint16) { regWrite16(get, set, off, v) },
		read32:  get,
		write32: set,
	}
}

func (b *Bus) find(phys uint32) (*region, uint32) {
	for i := range b.regions {
		r := &b.regions[i]
		if phys >= r.base && phys < r.end {
			return r, phys - r.base
		}
	}
	return nil, 0
}

func (b *Bus) cacheSuppressed(seg Segment) bool {
	return b.cop0 != nil && b.cop0.CacheIsolated() && Cacheable(seg)
}

// Read8 reads one byte from the bus, decoding addr as a virtual address.
func (b *Bus) Read8(addr uint32) uint8 {
	if b.watcher != nil {
		b.watcher.Watch(addr, false)
	}
	seg := Classify(addr)
	phys := Physical(addr, seg)
	r, off := b.find(phys)
	if r == nil {
		slog.Warn("bus: unmapped read8", "addr", addr)
		return 0
	}
	return r.read8(off)
}

// Read16 reads one halfword from the bus.
func (b *Bus) Read16(addr uint32) uint16 {
	if b.watcher != nil {
		b.watcher.Watch(addr, false)
	}
	seg := Classify(addr)
	phys := Physical(addr, seg)
	r, off := b.find(phys)
	if r == nil {
		slog.Warn("bus: unmapped read16", "addr", addr)
		return 0
	}
	return r.read16(off)
}

// Read32 reads one word from the bus.
func (b *Bus) Read32(addr uint32) uint32 {
	if b.watcher != nil {
		b.watcher.Watch(addr, false)
	}
	seg := Classify(addr)
	phys := Physical(addr, seg)
	r, off := b.find(phys)
	if r == nil {
		slog.Warn("bus: unmapped read32", "addr", addr)
		return 0
	}
	return r.read32(off)
}

// Write8 writes one byte to the bus.
func (b *Bus) Write8(addr uint32, value uint8) {
	if b.watcher != nil {
		b.watcher.Watch(addr, true)
	}
	seg := Classify(addr)
	phys := Physical(addr, seg)
	r, off := b.find(phys)
	if r == nil {
		slog.Warn("bus: unmapped write8", "addr", addr, "value", value)
		return
	}
	if r.cacheGated && b.cacheSuppressed(seg) {
		return
	}
	r.write8(off, value)
}

// Write16 writes one halfword to the bus.
func (b *Bus) Write16(addr uint32, value uint16) {
	if b.watcher != nil {
		b.watcher.Watch(addr, true)
	}
	seg := Classify(addr)
	phys := Physical(addr, seg)
	r, off := b.find(phys)
	if r == nil {
		slog.Warn("bus: unmapped write16", "addr", addr, "value", value)
		return
	}
	if r.cacheGated && b.cacheSuppressed(seg) {
		return
	}
	r.write16(off, value)
}

// Write32 writes one word to the bus.
func (b *Bus) Write32(addr uint32, value uint32) {
	if b.watcher != nil {
		b.watcher.Watch(addr, true)
	}
	seg := Classify(addr)
	phys := Physical(addr, seg)
	r, off := b.find(phys)
	if r == nil {
		slog.Warn("bus: unmapped write32", "addr", addr, "value", value)
		return
	}
	if r.cacheGated && b.cacheSuppressed(seg) {
		return
	}
	r.write32(off, value)
}

// Probe32 reads a word without logging a warning on a miss and without
// invoking the watch hook, for speculative reads (the debug disassembly
// view peeking ahead of PC).
func (b *Bus) Probe32(addr uint32) (value uint32, ok bool) {
	seg := Classify(addr)
	phys := Physical(addr, seg)
	r, off := b.find(phys)
	if r == nil {
		return 0, false
	}
	return r.read32(off), true
}

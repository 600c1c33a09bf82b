/*
 * psx-sub000 - GPU command front-end
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

// Package gpu implements the GP0/GP1 command front-end (0x1F801810-
// 0x1F801818): the state machine that assembles polygon primitives and
// environment changes out of a stream of 32-bit command words. Rasterizing
// those primitives into pixels is out of scope; completed primitives are
// handed to an external Renderer instead.
package gpu

import (
	"fmt"
	"log/slog"
)

// VRAMSize is the console's video memory.
const VRAMSize = 1024 * 1024

// frameCycles is the approximate CPU-cycle count of one NTSC frame used to
// derive the step() "frame complete" signal. Not cycle-exact (§1 Non-goals).
const frameCycles = 263 * 2413

// GPUSTAT bit positions this core models.
const (
	statDrawModeMask  = 0x7FF // bits 0-10: texpage, semi-transparency, dither, draw-to-display
	statMaskSet       = 1 << 11
	statMaskEnable    = 1 << 12
	statVertRes       = 1 << 19 // always forced to 0
	statDisplayOff    = 1 << 23
	statIRQ           = 1 << 24
	statReadyCmd      = 1 << 26
	statReadySendVRAM = 1 << 27
	statReadyRecvDMA  = 1 << 28
	statDMADirMask    = 0x3 << 29
)

// subPhase names the GP0 command state machine's position, matching the
// data model's Ready|Color|Vertex|Texture|LoadCoord|LoadSize|LoadData
// sub-phases: Vertex is "awaiting a position word", Texture "awaiting a
// texcoord word", Color "awaiting a per-vertex color word".
type subPhase int

const (
	phaseReady subPhase = iota
	phaseColor
	phaseVertex
	phaseTexture
	phaseLoadCoord
	phaseLoadSize
	phaseLoadData
)

// Vertex is one corner of a completed polygon.
type Vertex struct {
	X, Y    int16
	R, G, B uint8
}

// Polygon is a fully-assembled primitive handed to the external renderer.
type Polygon struct {
	NumVertices                    int
	Vertices                       [4]Vertex
	Gouraud, Textured, Transparent bool
}

// Renderer consumes primitives the GPU front-end assembles. Rasterization
// itself lives entirely outside the core.
type Renderer interface {
	DrawPolygon(p Polygon)
}

type nopRenderer struct{}

func (nopRenderer) DrawPolygon(Polygon) {}

// polygonCmd tracks an in-progress polygon command's accumulator.
type polygonCmd struct {
	numVerts    int
	textured    bool
	transparent bool
	gouraud     bool
	plan        []subPhase
	cursor      int
	verts       []Vertex
	curColor    [3]uint8
	curPos      Vertex
}

// blitCmd tracks an in-progress CPU<->VRAM rectangle transfer.
type blitCmd struct {
	toVRAM    bool
	width     uint32
	height    uint32
	wordsLeft uint32
}

// GPU is the command front-end plus the state the environment/display
// commands mutate. It does not rasterize: VRAM is kept only as a buffer
// for the (unimplemented) readback path.
type GPU struct {
	stat uint32

	texWinMaskX, texWinMaskY     uint8
	texWinOffX, texWinOffY       uint8
	drawAreaX0, drawAreaY0       uint16
	drawAreaX1, drawAreaY1       uint16
	drawOffsetX, drawOffsetY     int16

	displayStartX, displayStartY uint16
	hRange1, hRange2             uint16
	vRange1, vRange2             uint16

	vram [VRAMSize]byte

	phase subPhase
	poly  *polygonCmd
	blit  *blitCmd

	renderer Renderer

	cycleAccum uint64

	err error // set by an unsupported GP0/GP1 command; see Err
}

// ErrUnsupportedCommand is returned for a GP0/GP1 opcode the core decodes
// but does not implement, per SPEC_FULL.md §7's "unsupported command or
// channel" fatal case.
type ErrUnsupportedCommand struct {
	Port string
	Op   byte
}

func (e *ErrUnsupportedCommand) Error() string {
	return fmt.Sprintf("gpu: unsupported %s command %#02x", e.Port, e.Op)
}

// New returns a GPU that hands completed primitives to r. A nil r discards
// them, matching the "renderer is external" baseline (§3).
func New(r Renderer) *GPU {
	if r == nil {
		r = nopRenderer{}
	}
	return &GPU{renderer: r, stat: statReadyCmd | statReadySendVRAM | statReadyRecvDMA}
}

// Reset restores power-on state: GPUSTAT cleared except the permanently-set
// ready flags, command phase Ready, drawing/display env zeroed.
func (g *GPU) Reset() {
	*g = GPU{renderer: g.renderer, stat: statReadyCmd | statReadySendVRAM | statReadyRecvDMA}
}

// Step advances the GPU's frame clock by cycles CPU cycles and reports
// whether one NTSC frame's worth of cycles has elapsed.
func (g *GPU) Step(cycles int) bool {
	g.cycleAccum += uint64(cycles)
	if g.cycleAccum >= frameCycles {
		g.cycleAccum -= frameCycles
		return true
	}
	return false
}

// ReadGPUSTAT returns the status register. Bit 19 (vertical resolution) is
// always forced to 0 (§9: avoids needing interlaced rendering).
func (g *GPU) ReadGPUSTAT() uint32 {
	return g.stat &^ statVertRes
}

// ReadGPUREAD returns VRAM readback data. VRAM->CPU transfer is
// unimplemented in the baseline, so this always returns zero.
func (g *GPU) ReadGPUREAD() uint32 {
	return 0
}

// WriteGP0 feeds one 32-bit command/data word into the GP0 state machine.
// An unsupported opcode is recorded rather than returned directly (the bus
// write path has no error return); the orchestrator collects it via Err
// after stepping the CPU.
func (g *GPU) WriteGP0(word uint32) {
	var err error
	if g.phase == phaseReady {
		err = g.decodeGP0(word)
	} else {
		err = g.feedGP0(word)
	}
	if err != nil {
		g.err = err
		g.poly, g.blit = nil, nil
		g.phase = phaseReady
	}
}

// Err returns and clears the most recent unsupported-command error, if any.
func (g *GPU) Err() error {
	err := g.err
	g.err = nil
	return err
}

// decodeGP0 interprets word as a new GP0 command (phase is Ready).
func (g *GPU) decodeGP0(word uint32) error {
	op := byte(word >> 24)
	switch {
	case op == 0x00: // NOP
		return nil
	case op == 0x01: // clear cache
		slog.Warn("gpu: GP0 0x01 (clear texture cache) is a no-op")
		return nil
	case op == 0x02: // quick rectangle fill
		return &ErrUnsupportedCommand{Port: "GP0", Op: op}
	case op >= 0x20 && op <= 0x3F:
		g.startPolygon(op, word)
		return nil
	case op == 0xA0:
		g.blit = &blitCmd{toVRAM: true}
		g.phase = phaseLoadCoord
		return nil
	case op == 0xC0:
		g.blit = &blitCmd{toVRAM: false}
		g.phase = phaseLoadCoord
		return nil
	case op >= 0xE1 && op <= 0xE6:
		g.envCommand(op, word)
		return nil
	default:
		return &ErrUnsupportedCommand{Port: "GP0", Op: op}
	}
}

// startPolygon decodes a polygon opcode's attribute bits and builds the
// word plan for the remaining vertices. Vertex 0's color comes from the
// command word itself (low 24 bits), per the hardware GP0 encoding (§9).
func (g *GPU) startPolygon(op byte, word uint32) {
	pc := &polygonCmd{
		numVerts:    3,
		textured:    op&0x04 != 0,
		transparent: op&0x02 != 0,
		gouraud:     op&0x10 != 0,
	}
	if op&0x08 != 0 {
		pc.numVerts = 4
	}
	pc.curColor = unpackColor(word)

	pc.plan = append(pc.plan, phaseVertex)
	if pc.textured {
		pc.plan = append(pc.plan, phaseTexture)
	}
	for i := 1; i < pc.numVerts; i++ {
		if pc.gouraud {
			pc.plan = append(pc.plan, phaseColor)
		}
		pc.plan = append(pc.plan, phaseVertex)
		if pc.textured {
			pc.plan = append(pc.plan, phaseTexture)
		}
	}

	g.poly = pc
	g.phase = pc.plan[0]
}

// feedGP0 consumes the next word of an in-progress polygon or VRAM blit.
func (g *GPU) feedGP0(word uint32) error {
	switch g.phase {
	case phaseLoadCoord:
		return g.feedBlitCoord(word)
	case phaseLoadSize:
		return g.feedBlitSize(word)
	case phaseLoadData:
		return g.feedBlitData(word)
	default:
		return g.feedPolygon(word)
	}
}

func (g *GPU) feedBlitCoord(uint32) error {
	g.phase = phaseLoadSize
	return nil
}

func (g *GPU) feedBlitSize(word uint32) error {
	width := word & 0xFFFF
	height := (word >> 16) & 0xFFFF
	g.blit.width, g.blit.height = width, height
	if g.blit.toVRAM {
		g.blit.wordsLeft = (width*height + 1) / 2
		if g.blit.wordsLeft == 0 {
			g.blit = nil
			g.phase = phaseReady
			return nil
		}
		g.phase = phaseLoadData
		return nil
	}
	// VRAM->CPU: the payload comes back through GPUREAD, not GP0.
	g.blit = nil
	g.phase = phaseReady
	return nil
}

// feedBlitData consumes one CPU->VRAM payload word. Payload contents are
// discarded: the core tracks VRAM as a buffer but does not rasterize (§3).
func (g *GPU) feedBlitData(uint32) error {
	g.blit.wordsLeft--
	if g.blit.wordsLeft == 0 {
		g.blit = nil
		g.phase = phaseReady
	}
	return nil
}

func (g *GPU) feedPolygon(word uint32) error {
	pc := g.poly
	switch pc.plan[pc.cursor] {
	case phaseColor:
		pc.curColor = unpackColor(word)
	case phaseVertex:
		pc.curPos = Vertex{
			X: int16(word & 0xFFFF),
			Y: int16((word >> 16) & 0xFFFF),
			R: pc.curColor[0], G: pc.curColor[1], B: pc.curColor[2],
		}
		pc.verts = append(pc.verts, pc.curPos)
	case phaseTexture:
		// texcoord word discarded: texturing is not rasterized (§3).
	}
	pc.cursor++
	if pc.cursor == len(pc.plan) {
		g.finishPolygon(pc)
		return nil
	}
	g.phase = pc.plan[pc.cursor]
	return nil
}

func (g *GPU) finishPolygon(pc *polygonCmd) {
	p := Polygon{
		NumVertices: pc.numVerts,
		Gouraud:     pc.gouraud,
		Textured:    pc.textured,
		Transparent: pc.transparent,
	}
	copy(p.Vertices[:], pc.verts)
	g.renderer.DrawPolygon(p)
	g.poly = nil
	g.phase = phaseReady
}

// unpackColor splits a color word's low 24 bits into R (bits 16-23), G
// (bits 8-15), B (bits 0-7) — the hardware's 0xRRGGBB packing.
func unpackColor(word uint32) [3]uint8 {
	return [3]uint8{uint8(word >> 16), uint8(word >> 8), uint8(word)}
}

// envCommand applies one of the single-word 0xE1-0xE6 environment updates.
func (g *GPU) envCommand(op byte, word uint32) {
	switch op {
	case 0xE1: // draw mode (texpage): bits 0-10 map directly onto GPUSTAT
		g.stat = g.stat&^statDrawModeMask | (word & statDrawModeMask)
	case 0xE2: // texture window
		g.texWinMaskX = uint8(word & 0x1F)
		g.texWinMaskY = uint8((word >> 5) & 0x1F)
		g.texWinOffX = uint8((word >> 10) & 0x1F)
		g.texWinOffY = uint8((word >> 15) & 0x1F)
	case 0xE3: // drawing area top-left
		g.drawAreaX0 = uint16(word & 0x3FF)
		g.drawAreaY0 = uint16((word >> 10) & 0x3FF)
	case 0xE4: // drawing area bottom-right
		g.drawAreaX1 = uint16(word & 0x3FF)
		g.drawAreaY1 = uint16((word >> 10) & 0x3FF)
	case 0xE5: // draw offset
		g.drawOffsetX = signExtend11(word & 0x7FF)
		g.drawOffsetY = signExtend11((word >> 11) & 0x7FF)
	case 0xE6: // mask bit setting
		g.stat = g.stat&^(statMaskSet|statMaskEnable) | (word&0x3)<<11
	}
}

func signExtend11(v uint32) int16 {
	if v&0x400 != 0 {
		v |= 0xFFFFF800
	}
	return int16(int32(v))
}

// WriteGP1 handles a display-control command. Unlike GP0, every GP1
// command is a single immediate word (§4.9). An unsupported opcode is
// recorded and collected via Err, for the same reason as WriteGP0.
func (g *GPU) WriteGP1(word uint32) {
	if err := g.handleGP1(word); err != nil {
		g.err = err
	}
}

func (g *GPU) handleGP1(word uint32) error {
	op := byte(word >> 24)
	switch op {
	case 0x00:
		g.softReset()
	case 0x01:
		g.poly, g.blit, g.phase = nil, nil, phaseReady
	case 0x02:
		g.stat &^= statIRQ
	case 0x03:
		if word&1 != 0 {
			g.stat |= statDisplayOff
		} else {
			g.stat &^= statDisplayOff
		}
	case 0x04:
		g.stat = g.stat&^statDMADirMask | (word&0x3)<<29
	case 0x05:
		g.displayStartX = uint16(word & 0x3FF)
		g.displayStartY = uint16((word >> 10) & 0x1FF)
	case 0x06:
		g.hRange1 = uint16(word & 0xFFF)
		g.hRange2 = uint16((word >> 12) & 0xFFF)
	case 0x07:
		g.vRange1 = uint16(word & 0x3FF)
		g.vRange2 = uint16((word >> 10) & 0x3FF)
	case 0x08:
		g.stat = g.stat&^(0x7F<<17) | (word&0x3F)<<17 | (word&0x40)<<(20-6)
		g.stat &^= statVertRes
	default:
		return &ErrUnsupportedCommand{Port: "GP1", Op: op}
	}
	return nil
}

// softReset implements GP1 0x00: clears the command FIFO, acks the IRQ,
// disables the display, clears DMA direction, zeroes the display start and
// drawing environment, and sets the display ranges to 0x200-0xC00 /
// 0x10-0x100.
func (g *GPU) softReset() {
	g.poly, g.blit, g.phase = nil, nil, phaseReady
	g.stat = statReadyCmd | statReadySendVRAM | statReadyRecvDMA | statDisplayOff
	g.texWinMaskX, g.texWinMaskY, g.texWinOffX, g.texWinOffY = 0, 0, 0, 0
	g.drawAreaX0, g.drawAreaY0, g.drawAreaX1, g.drawAreaY1 = 0, 0, 0, 0
	g.drawOffsetX, g.drawOffsetY = 0, 0
	g.displayStartX, g.displayStartY = 0, 0
	g.hRange1, g.hRange2 = 0x200, 0xC00
	g.vRange1, g.vRange2 = 0x10, 0x100
}

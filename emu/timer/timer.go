/*
 * psx-sub000 - Root counters (timers)
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

// Package timer implements the three PSX root counters (0x1F801100-
// 0x1F801130). Unlike the teacher's wall-clock *time.Ticker* timer, these
// counters advance by an explicit cycle count handed in by the single
// step loop (SPEC_FULL.md §5: no emulator-internal goroutines).
package timer

import "github.com/tlbanken/psx-sub000/emu/irq"

// Approximate NTSC timing constants. The core does not model cycle-exact
// subsystem timing (out of scope), so dotclock/hblank ticks are derived
// from these via a fractional accumulator rather than a real video
// scanout clock.
const (
	cpuClocksPerFrame = 564480
	linesPerFrame     = 263
	dotsPerScanline   = 3413
)

// Mode register bit layout.
const (
	bitSyncEnable    = 1 << 0
	syncModeShift    = 1
	syncModeMask     = 0x3 << syncModeShift
	bitResetMode     = 1 << 3
	bitIrqOnTarget   = 1 << 4
	bitIrqOnFFFF     = 1 << 5
	bitIrqRepeat     = 1 << 6
	bitIrqToggle     = 1 << 7
	clockSrcShift    = 8
	clockSrcMask     = 0x3 << clockSrcShift
	bitIrqDisabled   = 1 << 10
	bitReachedTarget = 1 << 11
	bitReachedFFFF   = 1 << 12
)

// irqSource maps a counter index to its interrupt source.
var irqSource = [3]irq.Source{irq.Timer0, irq.Timer1, irq.Timer2}

// Counter is one root counter's state.
type Counter struct {
	value         uint16
	target        uint16
	mode          uint32 // configuration bits only; reached-target/ffff live below
	reachedTarget bool
	reachedFFFF   bool

	accum uint64 // fractional accumulator for dotclock/hblank/div8 sources
}

// Counters holds all three root counters and raises interrupts on the
// interrupt controller it was constructed with.
type Counters struct {
	c   [3]Counter
	irq *irq.Controller
}

// New returns a Counters wired to raise interrupts on ic.
func New(ic *irq.Controller) *Counters {
	return &Counters{irq: ic}
}

// Reset clears all three counters to power-on state.
func (t *Counters) Reset() {
	for i := range t.c {
		t.c[i] = Counter{}
	}
}

// clockTicks returns how many times the counter's configured clock source
// ticked during cycles CPU cycles, using a fractional accumulator so that
// dot-clock and hblank sources (which can tick faster than the CPU clock)
// are handled without dropping fractional ticks.
func (c *Counter) clockTicks(idx int, cycles int) int {
	useAlt := c.mode&(1<<clockSrcShift) != 0
	var num, den uint64
	switch {
	case idx == 0 && useAlt: // dotclock
		num, den = dotsPerScanline*linesPerFrame, cpuClocksPerFrame
	case idx == 1 && useAlt: // hblank
		num, den = linesPerFrame, cpuClocksPerFrame
	case idx == 2 && c.mode&(1<<(clockSrcShift+1)) != 0:
		num, den = 1, 8 // system clock / 8
	default: // system clock, every cycle
		num, den = 1, 1
	}
	c.accum += uint64(cycles) * num
	ticks := c.accum / den
	c.accum %= den
	return int(ticks)
}

// Step advances every counter by cycles CPU cycles, wrapping and raising
// timer interrupts per SPEC_FULL.md §4.7.
func (t *Counters) Step(cycles int) {
	for i := range t.c {
		c := &t.c[i]
		ticks := c.clockTicks(i, cycles)
		if ticks == 0 {
			continue
		}
		for n := 0; n < ticks; n++ {
			c.value++
			resetPoint := uint16(0xFFFF)
			if c.mode&bitResetMode != 0 {
				resetPoint = c.target
			}
			if c.value != resetPoint {
				continue
			}
			c.value = 0
			if c.mode&bitResetMode != 0 {
				c.reachedTarget = true
			} else {
				c.reachedFFFF = true
			}
			if c.mode&bitIrqDisabled == 0 {
				t.irq.Signal(irqSource[i])
			}
		}
	}
}

// ReadReg reads a timer register by its byte offset within the 48-byte
// block (16 bytes per counter: value, mode, target, reserved).
func (t *Counters) ReadReg(offset uint32) uint32 {
	idx := (offset / 0x10) % 3
	c := &t.c[idx]
	switch offset % 0x10 {
	case 0x0:
		return uint32(c.value)
	case 0x4:
		word := c.mode
		if c.reachedTarget {
			word |= bitReachedTarget
		}
		if c.reachedFFFF {
			word |= bitReachedFFFF
		}
		c.reachedTarget = false
		c.reachedFFFF = false
		return word
	case 0x8:
		return uint32(c.target)
	default:
		return 0
	}
}

// WriteReg writes a timer register by its byte offset. Writing mode
// resets value to 0 and rearms (clears) the sticky reached bits.
func (t *Counters) WriteReg(offset uint32, value uint32) {
	idx := (offset / 0x10) % 3
	c := &t.c[idx]
	switch offset % 0x10 {
	case 0x0:
		c.value = uint16(value)
	case 0x4:
		c.mode = value &^ (bitReachedTarget | bitReachedFFFF)
		c.value = 0
		c.reachedTarget = false
		c.reachedFFFF = false
	case 0x8:
		c.target = uint16(value)
	}
}

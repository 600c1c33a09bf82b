/*
 * psx-sub000 - Breakpoint watcher and memory hex-dump viewer tests
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

package debug

import "testing"

func TestWatchIgnoresUnarmedAddress(t *testing.T) {
	w := New()
	w.Watch(0x1000, false)
	if w.Hit {
		t.Error("Hit set for an address with no breakpoint")
	}
}

func TestWatchLatchesOnArmedAddress(t *testing.T) {
	w := New()
	w.SetBreakpoint(0x1000)
	w.Watch(0x1000, true)
	if !w.Hit || w.HitAddr != 0x1000 || !w.HitWrite {
		t.Error("breakpoint did not latch write hit at the armed address")
	}
}

func TestClearBreakpointStopsFutureHits(t *testing.T) {
	w := New()
	w.SetBreakpoint(0x2000)
	w.ClearBreakpoint(0x2000)
	w.Watch(0x2000, false)
	if w.Hit {
		t.Error("cleared breakpoint still latched a hit")
	}
}

func TestClearHitResetsLatch(t *testing.T) {
	w := New()
	w.SetBreakpoint(0x10)
	w.Watch(0x10, false)
	w.ClearHit()
	if w.Hit {
		t.Error("ClearHit did not reset the latched flag")
	}
}

func TestDumpFormatsSixteenBytesPerLine(t *testing.T) {
	mem := make([]uint8, 32)
	for i := range mem {
		mem[i] = uint8(i)
	}
	read := func(addr uint32) uint8 { return mem[addr] }
	out := Dump(read, 0, 32)
	lines := 0
	for _, c := range out {
		if c == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Errorf("Dump produced %d lines, want 2 for 32 bytes", lines)
	}
}

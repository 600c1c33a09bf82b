/*
 * psx-sub000 - Breakpoint watcher and memory hex-dump viewer
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

// Package debug is the optional bring-up aid the orchestrator can install
// on the bus: a breakpoint set plus a hex-dump of an arbitrary memory
// range, for the headless CLI's -debug flag. It replaces the teacher's
// config-file-registered debug log (debug-file loading is out of scope,
// SPEC_FULL.md §1) with a plain watcher any caller can wire up by hand.
package debug

import (
	"log/slog"
	"strings"

	hex "github.com/tlbanken/psx-sub000/util/hex"
)

// Watcher is a bus breakpoint set: it satisfies bus.Watcher without
// importing emu/bus (the bus only needs Watch(addr, write)).
type Watcher struct {
	breakpoints map[uint32]bool
	Hit         bool // set once and left set until the caller clears it
	HitAddr     uint32
	HitWrite    bool
}

// New returns an empty breakpoint set.
func New() *Watcher {
	return &Watcher{breakpoints: make(map[uint32]bool)}
}

// SetBreakpoint arms a breakpoint at addr.
func (w *Watcher) SetBreakpoint(addr uint32) {
	w.breakpoints[addr] = true
}

// ClearBreakpoint disarms a breakpoint at addr.
func (w *Watcher) ClearBreakpoint(addr uint32) {
	delete(w.breakpoints, addr)
}

// ClearHit resets the latched hit flag so the caller can resume stepping.
func (w *Watcher) ClearHit() {
	w.Hit = false
}

// Watch implements bus.Watcher: it is called on every bus access, before
// the device is touched. A matching address latches Hit and logs once;
// the caller (the orchestrator's step loop) is responsible for noticing
// Hit and pausing.
func (w *Watcher) Watch(addr uint32, write bool) {
	if !w.breakpoints[addr] {
		return
	}
	w.Hit = true
	w.HitAddr = addr
	w.HitWrite = write
	kind := "read"
	if write {
		kind = "write"
	}
	slog.Info("debug: breakpoint hit", "addr", addr, "kind", kind)
}

// Dump formats length bytes starting at start as a hex/ASCII view, sixteen
// bytes per line, in the style of a disassembler memory window. read is
// any byte accessor (typically a Bus.Read8).
func Dump(read func(addr uint32) uint8, start, length uint32) string {
	var out strings.Builder
	for off := uint32(0); off < length; off += 16 {
		line := make([]uint8, 0, 16)
		n := length - off
		if n > 16 {
			n = 16
		}
		for i := uint32(0); i < n; i++ {
			line = append(line, read(start+off+i))
		}

		var addrBuf strings.Builder
		hex.FormatWord(&addrBuf, []uint32{start + off})
		out.WriteString(addrBuf.String())

		var dataBuf strings.Builder
		hex.FormatBytes(&dataBuf, true, line)
		out.WriteString(dataBuf.String())

		for i := uint32(len(line)); i < 16; i++ {
			out.WriteString("   ")
		}
		out.WriteByte(' ')
		for _, b := range line {
			if b >= 0x20 && b < 0x7f {
				out.WriteByte(b)
			} else {
				out.WriteByte('.')
			}
		}
		out.WriteByte('\n')
	}
	return out.String()
}

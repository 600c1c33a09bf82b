/*
 * psx-sub000 - System orchestrator
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

// Package system wires every component into one machine and drives the
// single-threaded step loop: CPU, then GPU, then DMA, then timers, then the
// interrupt controller, once per tick (SPEC_FULL.md §5). There are no
// emulator-internal goroutines; Step is one synchronous call a CLI driver's
// own loop invokes repeatedly.
package system

import (
	"github.com/tlbanken/psx-sub000/emu/bios"
	"github.com/tlbanken/psx-sub000/emu/bus"
	"github.com/tlbanken/psx-sub000/emu/cop0"
	"github.com/tlbanken/psx-sub000/emu/cpu"
	"github.com/tlbanken/psx-sub000/emu/dma"
	"github.com/tlbanken/psx-sub000/emu/gpu"
	"github.com/tlbanken/psx-sub000/emu/irq"
	"github.com/tlbanken/psx-sub000/emu/memctrl"
	"github.com/tlbanken/psx-sub000/emu/ram"
	"github.com/tlbanken/psx-sub000/emu/scratchpad"
	"github.com/tlbanken/psx-sub000/emu/timer"
)

// cyclesPerStep is the coarse per-instruction cycle charge handed to the
// GPU's frame clock and the root counters. SPEC_FULL.md §1 explicitly rules
// out cycle-perfect subsystem timing in favor of coarse step counters; this
// is not tuned against real R3000A cycle counts per instruction.
const cyclesPerStep = 2

// Machine owns every component and the bus that wires them together.
type Machine struct {
	ram     *ram.RAM
	scratch *scratchpad.Scratchpad
	bios    *bios.BIOS
	memctrl *memctrl.MemCtrl
	cop0    *cop0.Cop0
	cpu     *cpu.CPU
	irq     *irq.Controller
	dma     *dma.Controller
	timer   *timer.Counters
	gpu     *gpu.GPU
	bus     *bus.Bus
}

// New assembles a Machine from a BIOS image (exactly or up to 512 KiB,
// zero-padded if shorter) and an optional renderer for completed GPU
// primitives (nil discards them).
func New(biosImage []byte, renderer gpu.Renderer) (*Machine, error) {
	b, err := bios.New(biosImage)
	if err != nil {
		return nil, err
	}

	m := &Machine{
		ram:     ram.New(),
		scratch: scratchpad.New(),
		bios:    b,
		memctrl: memctrl.New(),
		cop0:    cop0.New(),
		irq:     irq.New(),
		gpu:     gpu.New(renderer),
	}
	m.dma = dma.New(m.ram, m.gpu)
	m.timer = timer.New(m.irq)
	m.bus = bus.New(m.ram, m.scratch, m.bios, m.memctrl, m.cop0, m.irq, m.dma, m.timer, m.gpu)
	m.cpu = cpu.New(m.bus, m.cop0)
	return m, nil
}

// Bus exposes the assembled bus, for a debug watcher to attach to.
func (m *Machine) Bus() *bus.Bus { return m.bus }

// CPU exposes the CPU core, for a debug UI to inspect registers and PC.
func (m *Machine) CPU() *cpu.CPU { return m.cpu }

// IRQ exposes the interrupt controller. Step reports a completed frame to
// its caller rather than signalling Vblank itself (§4.10: "returns gpu's
// frame-complete flag to the caller"); the driver loop is expected to call
// IRQ().Signal(irq.Vblank) when Step reports frameComplete.
func (m *Machine) IRQ() *irq.Controller { return m.irq }

// Reset restores every component to its power-on state.
func (m *Machine) Reset() {
	m.ram.Reset()
	m.scratch.Reset()
	m.memctrl.Reset()
	m.cop0.Reset()
	m.irq.Reset()
	m.dma.Reset()
	m.timer.Reset()
	m.gpu.Reset()
	m.cpu.Reset()
}

// Step runs one tick: CPU step, GPU step, DMA step, timer step, interrupt
// step, in that order (SPEC_FULL.md §5). It reports whether the GPU's frame
// clock completed a frame this tick, and any fatal error the DMA controller
// or the GPU command front-end raised.
func (m *Machine) Step() (frameComplete bool, err error) {
	m.cpu.Step()

	// The bus write path has no error return, so a GP0/GP1 command error
	// raised by a CPU-driven MMIO write during the step above is only
	// visible here.
	if gpuErr := m.gpu.Err(); gpuErr != nil {
		return false, gpuErr
	}

	frameComplete = m.gpu.Step(cyclesPerStep)

	if dmaErr := m.dma.Step(); dmaErr != nil {
		return frameComplete, dmaErr
	}

	m.timer.Step(cyclesPerStep)

	m.cop0.SetPending(m.irq.Pending())

	return frameComplete, nil
}

/*
 * psx-sub000 - System orchestrator tests
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

package system

import (
	"testing"

	"github.com/tlbanken/psx-sub000/emu/cop0"
	"github.com/tlbanken/psx-sub000/emu/irq"
)

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	m, err := New(nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestNewPadsShortBIOSAndBootsAtResetVector(t *testing.T) {
	m := newTestMachine(t)
	if m.CPU().PC() != 0xBFC0_0000 {
		t.Errorf("PC after New = %#x, want 0xBFC00000", m.CPU().PC())
	}
}

func TestStepAdvancesPastAllZeroNop(t *testing.T) {
	m := newTestMachine(t)
	if _, err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if m.CPU().PC() != 0xBFC0_0004 {
		t.Errorf("PC after one step = %#x, want 0xBFC00004 (all-zero word decodes as SLL/NOP)", m.CPU().PC())
	}
}

// Interrupt step runs last in the tick (§5: CPU, GPU, DMA, Timer,
// Interrupt), so a signal raised before a Step only becomes visible to the
// CPU's fetch-time check on the *following* Step: one tick latches
// Cop0's pending bit, the next acts on it.
func TestInterruptDeliveryEndToEnd(t *testing.T) {
	m := newTestMachine(t)
	m.CPU().SetPC(0x1000)
	m.Bus().Write32(0x1F80_1074, 0x0001) // I_MASK: unmask Vblank
	m.cop0.WriteReg(cop0.RegSR, 1<<0|1<<8) // IEc, IM0

	m.IRQ().Signal(irq.Vblank)

	if _, err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if _, err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if m.CPU().PC() != 0x8000_0080 {
		t.Errorf("PC after interrupt = %#x, want 0x80000080", m.CPU().PC())
	}
}

func TestOTCDMAScenario(t *testing.T) {
	m := newTestMachine(t)
	b := m.Bus()

	const dmaBase = 0x1F80_1080
	const otcOffset = 0x60 // channel 6's 0x10-byte block

	b.Write32(dmaBase+0x70, 1<<27) // DPCR: enable channel 6

	b.Write32(dmaBase+otcOffset+0x0, 0x100) // MADR
	b.Write32(dmaBase+otcOffset+0x4, 3)     // BCR
	b.Write32(dmaBase+otcOffset+0x8, 1<<24|1<<28)

	if _, err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if got := b.Read32(0x100); got != 0x00FF_FFFF {
		t.Errorf("RAM[0x100] = %#x, want 0x00FFFFFF", got)
	}
	if got := b.Read32(0xFC); got != 0x100 {
		t.Errorf("RAM[0xFC] = %#x, want 0x100", got)
	}
	if got := b.Read32(0xF8); got != 0xFC {
		t.Errorf("RAM[0xF8] = %#x, want 0xFC", got)
	}
}

func TestResetRestoresBootPC(t *testing.T) {
	m := newTestMachine(t)
	m.CPU().SetPC(0x1234)
	m.Reset()
	if m.CPU().PC() != 0xBFC0_0000 {
		t.Errorf("PC after Reset = %#x, want 0xBFC00000", m.CPU().PC())
	}
}

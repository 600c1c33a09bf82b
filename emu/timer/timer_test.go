/*
 * psx-sub000 - Root counter tests
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

package timer

import (
	"testing"

	"github.com/tlbanken/psx-sub000/emu/irq"
)

func TestSystemClockIncrementsOncePerCycle(t *testing.T) {
	ic := irq.New()
	tc := New(ic)
	tc.Step(5)
	if got := tc.ReadReg(0x0); got != 5 {
		t.Errorf("counter0 value = %d, want 5", got)
	}
}

func TestWrapAtFFFFRaisesInterrupt(t *testing.T) {
	ic := irq.New()
	tc := New(ic)
	tc.WriteReg(0x4, 0) // counter 0, mode: reset at 0xFFFF, IRQ enabled
	tc.WriteReg(0x0, 0xFFFE)
	tc.Step(1)
	if got := tc.ReadReg(0x0); got != 0xFFFF {
		t.Fatalf("counter0 value = %#x, want 0xffff", got)
	}
	tc.Step(1)
	if got := tc.ReadReg(0x0); got != 0 {
		t.Errorf("counter0 value after wrap = %#x, want 0", got)
	}
	if ic.ReadReg(irq.RegStat)&(1<<irq.Timer0) == 0 {
		t.Error("Timer0 did not set I_STAT bit on wrap")
	}
}

func TestResetAtTarget(t *testing.T) {
	ic := irq.New()
	tc := New(ic)
	tc.WriteReg(0x8, 10)         // target = 10
	tc.WriteReg(0x4, bitResetMode) // reset_mode = target
	tc.Step(9)
	if got := tc.ReadReg(0x0); got != 9 {
		t.Fatalf("counter0 value = %d, want 9", got)
	}
	tc.Step(1)
	if got := tc.ReadReg(0x0); got != 0 {
		t.Errorf("counter0 value after reaching target = %d, want 0", got)
	}
}

func TestModeReadClearsStickyBits(t *testing.T) {
	ic := irq.New()
	tc := New(ic)
	tc.WriteReg(0x8, 1)
	tc.WriteReg(0x4, bitResetMode)
	tc.Step(1)
	mode := tc.ReadReg(0x4)
	if mode&bitReachedTarget == 0 {
		t.Fatal("reached_target sticky bit not set after wrap")
	}
	mode2 := tc.ReadReg(0x4)
	if mode2&bitReachedTarget != 0 {
		t.Error("reached_target sticky bit survived a mode read")
	}
}

func TestWriteModeResetsValue(t *testing.T) {
	ic := irq.New()
	tc := New(ic)
	tc.Step(100)
	tc.WriteReg(0x4, 0)
	if got := tc.ReadReg(0x0); got != 0 {
		t.Errorf("value after mode write = %d, want 0", got)
	}
}

func TestIrqDisabledSuppressesSignal(t *testing.T) {
	ic := irq.New()
	tc := New(ic)
	tc.WriteReg(0x4, bitIrqDisabled)
	tc.WriteReg(0x0, 0xFFFE)
	tc.Step(2)
	if ic.ReadReg(irq.RegStat)&(1<<irq.Timer0) != 0 {
		t.Error("Timer0 signaled despite irq_disabled set")
	}
}

func TestDiv8ClockSourceOnCounter2(t *testing.T) {
	ic := irq.New()
	tc := New(ic)
	tc.WriteReg(0x4+0x20, 1<<(clockSrcShift+1)) // counter 2, clock_src = /8
	tc.Step(15)
	if got := tc.ReadReg(0x0 + 0x20); got != 1 {
		t.Errorf("counter2 value after 15 cycles at /8 = %d, want 1", got)
	}
}

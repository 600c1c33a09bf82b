/*
 * psx-sub000 - Interrupt controller tests
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

package irq

import "testing"

func TestSignalSetsStatBit(t *testing.T) {
	c := New()
	c.Signal(Vblank)
	if got := c.ReadReg(RegStat); got != 1 {
		t.Errorf("I_STAT = %#x, want 1", got)
	}
	c.Signal(Dma)
	if got := c.ReadReg(RegStat); got != (1 | 1<<Dma) {
		t.Errorf("I_STAT = %#x, want %#x", got, 1|1<<Dma)
	}
}

func TestPendingRequiresMask(t *testing.T) {
	c := New()
	c.Signal(Timer0)
	if c.Pending() {
		t.Error("Pending() true with I_MASK all zero")
	}
	c.WriteReg(RegMask, 1<<Timer0)
	if !c.Pending() {
		t.Error("Pending() false after unmasking the raised source")
	}
}

func TestStatWriteIsAndOnly(t *testing.T) {
	c := New()
	c.Signal(Vblank)
	c.Signal(Gpu)
	// Acknowledge Vblank only: write with Vblank bit cleared, Gpu bit set.
	c.WriteReg(RegStat, ^uint32(1<<Vblank))
	got := c.ReadReg(RegStat)
	if got&(1<<Vblank) != 0 {
		t.Errorf("Vblank bit not acknowledged, I_STAT = %#x", got)
	}
	if got&(1<<Gpu) == 0 {
		t.Errorf("Gpu bit wrongly cleared by AND-write, I_STAT = %#x", got)
	}
}

func TestMaskWriteOverwrites(t *testing.T) {
	c := New()
	c.WriteReg(RegMask, 0x3ff)
	c.WriteReg(RegMask, 1<<Spu)
	if got := c.ReadReg(RegMask); got != 1<<Spu {
		t.Errorf("I_MASK = %#x, want %#x (overwrite, not AND)", got, 1<<Spu)
	}
}

func TestResetClearsBothRegisters(t *testing.T) {
	c := New()
	c.Signal(Sio)
	c.WriteReg(RegMask, 0x3ff)
	c.Reset()
	if c.ReadReg(RegStat) != 0 || c.ReadReg(RegMask) != 0 {
		t.Error("Reset did not clear I_STAT/I_MASK")
	}
}

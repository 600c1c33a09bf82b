/*
 * psx-sub000 - DMA controller tests
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

package dma

import (
	"testing"

	"github.com/tlbanken/psx-sub000/emu/ram"
)

type fakeGPU struct{ words []uint32 }

func (g *fakeGPU) WriteGP0(v uint32) { g.words = append(g.words, v) }

func enableChannel(c *Controller, n int) {
	c.WriteReg(RegDpcr, c.dpcr|1<<uint(4*n+3))
}

func TestOtcDmaBuildsReverseOrderingTable(t *testing.T) {
	r := ram.New()
	gpu := &fakeGPU{}
	c := New(r, gpu)
	enableChannel(c, Otc)
	c.WriteReg(Otc*0x10+RegMadr, 0x100)
	c.WriteReg(Otc*0x10+RegBcr, 3)
	c.WriteReg(Otc*0x10+RegChcr, chcrBusy|chcrTrigger|chcrStepBack)
	if err := c.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if got := r.ReadWord(0x100); got != 0x00FF_FFFF {
		t.Errorf("RAM[0x100] = %#x, want 0x00ff_ffff", got)
	}
	if got := r.ReadWord(0xFC); got != 0x100 {
		t.Errorf("RAM[0xfc] = %#x, want 0x100", got)
	}
	if got := r.ReadWord(0xF8); got != 0xFC {
		t.Errorf("RAM[0xf8] = %#x, want 0xfc", got)
	}
}

func TestOtcTransferClearsBusyAndEnable(t *testing.T) {
	r := ram.New()
	gpu := &fakeGPU{}
	c := New(r, gpu)
	enableChannel(c, Otc)
	c.WriteReg(Otc*0x10+RegMadr, 0x10)
	c.WriteReg(Otc*0x10+RegBcr, 1)
	c.WriteReg(Otc*0x10+RegChcr, chcrBusy|chcrTrigger)
	if err := c.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if c.ch[Otc].chcr&(chcrBusy|chcrTrigger) != 0 {
		t.Error("CHCR busy/trigger bits not cleared after transfer")
	}
	if c.enabled(Otc) {
		t.Error("DPCR enable bit not cleared after transfer")
	}
}

func TestGpuBlockTransferSubmitsWordsToGP0(t *testing.T) {
	r := ram.New()
	gpu := &fakeGPU{}
	c := New(r, gpu)
	r.WriteWord(0x200, 0xe1000000)
	r.WriteWord(0x204, 0x00000000)
	enableChannel(c, Gpu)
	c.WriteReg(Gpu*0x10+RegMadr, 0x200)
	c.WriteReg(Gpu*0x10+RegBcr, 2)
	c.WriteReg(Gpu*0x10+RegChcr, chcrBusy|chcrTrigger|chcrDirFromRAM)
	if err := c.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(gpu.words) != 2 || gpu.words[0] != 0xe1000000 {
		t.Errorf("GP0 words = %#x, want [0xe1000000 0]", gpu.words)
	}
}

func TestGpuLinkedListStopsAtTerminator(t *testing.T) {
	r := ram.New()
	gpu := &fakeGPU{}
	c := New(r, gpu)
	// Packet at 0x1000: 1 word, next = 0x2000.
	r.WriteWord(0x1000, 0x01_002000)
	r.WriteWord(0x1004, 0xaaaaaaaa)
	// Packet at 0x2000: 1 word, terminator.
	r.WriteWord(0x2000, 0x01_FFFFFF)
	r.WriteWord(0x2004, 0xbbbbbbbb)
	enableChannel(c, Gpu)
	c.WriteReg(Gpu*0x10+RegMadr, 0x1000)
	c.WriteReg(Gpu*0x10+RegChcr, chcrBusy|chcrTrigger|chcrDirFromRAM|(2<<syncModeShift))
	if err := c.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(gpu.words) != 2 || gpu.words[0] != 0xaaaaaaaa || gpu.words[1] != 0xbbbbbbbb {
		t.Errorf("GP0 words = %#x, want [0xaaaaaaaa 0xbbbbbbbb]", gpu.words)
	}
}

func TestUnsupportedChannelReturnsError(t *testing.T) {
	r := ram.New()
	gpu := &fakeGPU{}
	c := New(r, gpu)
	enableChannel(c, MdecIn)
	c.WriteReg(MdecIn*0x10+RegChcr, chcrBusy|chcrTrigger)
	if err := c.Step(); err == nil {
		t.Error("Step on channel 0 (MDEC_IN) returned nil error, want unsupported-channel error")
	}
}

func TestSpuChannelSkippedWithoutError(t *testing.T) {
	r := ram.New()
	gpu := &fakeGPU{}
	c := New(r, gpu)
	enableChannel(c, Spu)
	c.WriteReg(Spu*0x10+RegChcr, chcrBusy|chcrTrigger)
	if err := c.Step(); err != nil {
		t.Errorf("Step on channel 4 (SPU) returned error %v, want nil (skip with warning)", err)
	}
}

func TestDicrMasterBitDerivedFromForce(t *testing.T) {
	c := New(ram.New(), &fakeGPU{})
	c.WriteReg(RegDicr, dicrForce)
	if got := c.ReadReg(RegDicr); got&dicrMasterFlag == 0 {
		t.Errorf("DICR = %#x, want bit 31 set when force is set", got)
	}
}

func TestDicrMasterBitDerivedFromEnableAndFlag(t *testing.T) {
	c := New(ram.New(), &fakeGPU{})
	c.dicr = dicrMasterEnable | 1<<(dicrEnableShift+2) | 1<<(dicrFlagShift+2)
	if got := c.ReadReg(RegDicr); got&dicrMasterFlag == 0 {
		t.Errorf("DICR = %#x, want bit 31 set with master enable + matching channel enable + a raised flag", got)
	}
	c.dicr = dicrMasterEnable | 1<<(dicrFlagShift+2)
	if got := c.ReadReg(RegDicr); got&dicrMasterFlag != 0 {
		t.Errorf("DICR = %#x, want bit 31 clear with a raised flag but no channel enable bit set", got)
	}
	c.dicr = dicrMasterEnable | 1<<(dicrEnableShift+2)
	if got := c.ReadReg(RegDicr); got&dicrMasterFlag != 0 {
		t.Errorf("DICR = %#x, want bit 31 clear with no flags raised", got)
	}
}

func TestDicrFlagAckIsWriteOneToClear(t *testing.T) {
	c := New(ram.New(), &fakeGPU{})
	c.dicr = 1<<(dicrFlagShift+2) | 1<<(dicrFlagShift+3)
	c.WriteReg(RegDicr, 1<<(dicrFlagShift+2))
	got := (c.ReadReg(RegDicr) >> dicrFlagShift) & 0x7F
	if got&(1<<2) != 0 {
		t.Error("flag 2 not acknowledged")
	}
	if got&(1<<3) == 0 {
		t.Error("flag 3 wrongly cleared by ack write")
	}
}

func TestDpcrRoundTrip(t *testing.T) {
	c := New(ram.New(), &fakeGPU{})
	c.WriteReg(RegDpcr, 0x12345678)
	if got := c.ReadReg(RegDpcr); got != 0x12345678 {
		t.Errorf("DPCR = %#x, want 0x12345678", got)
	}
}

func TestBcrZeroMeansMaxWords(t *testing.T) {
	r := ram.New()
	gpu := &fakeGPU{}
	c := New(r, gpu)
	enableChannel(c, Otc)
	c.WriteReg(Otc*0x10+RegMadr, 0)
	c.WriteReg(Otc*0x10+RegBcr, 0)
	c.WriteReg(Otc*0x10+RegChcr, chcrBusy|chcrTrigger)
	if err := c.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if got := r.ReadWord(0); got != 0x00FF_FFFF {
		t.Errorf("RAM[0] = %#x, want terminator after BCR=0 (0x10000 words)", got)
	}
}
